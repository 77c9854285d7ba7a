package web

import (
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	weberrors "github.com/lk2023060901/xdooria-social/pkg/web/errors"
)

var tagNameOnce sync.Once

// 校验错误里使用 json tag 作为字段名
func registerTagNameFunc() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// BindAndValidate 绑定并校验请求参数，失败时已写入 400 响应
func BindAndValidate(c *gin.Context, obj any) bool {
	err := c.ShouldBind(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Error(c, weberrors.CodeInvalidParams, verrs.Error())
	} else {
		Error(c, weberrors.CodeInvalidParams, "invalid request parameters: "+err.Error())
	}
	c.Abort()
	return false
}

// GetQuery 获取查询参数，带默认值
func GetQuery(c *gin.Context, key, defaultValue string) string {
	if val := c.Query(key); val != "" {
		return val
	}
	return defaultValue
}
