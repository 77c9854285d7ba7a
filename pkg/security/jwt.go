package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lk2023060901/xdooria-social/pkg/config"
)

// JWTConfig JWT 配置，仅支持 HMAC 系列算法
type JWTConfig struct {
	// 签名密钥
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// 签名算法: HS256, HS384, HS512（默认 HS256）
	Algorithm string `mapstructure:"algorithm" json:"algorithm"`

	// Token 过期时间（默认 24 小时）
	ExpiresIn time.Duration `mapstructure:"expires_in" json:"expires_in"`

	// 签发者，非空时同时用于校验
	Issuer string `mapstructure:"issuer" json:"issuer"`

	// Token 前缀（默认 "Bearer "），验证前去除
	TokenPrefix string `mapstructure:"token_prefix" json:"token_prefix"`

	// 允许的时钟偏差
	Leeway time.Duration `mapstructure:"leeway" json:"leeway"`
}

// Claims 通用 JWT Claims
type Claims struct {
	jwt.RegisteredClaims

	// Payload 自定义载荷，由调用方决定内容
	Payload map[string]any `json:"payload,omitempty"`
}

// DefaultJWTConfig 返回默认 JWT 配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm:   "HS256",
		ExpiresIn:   24 * time.Hour,
		TokenPrefix: "Bearer ",
	}
}

// JWTManager JWT 签发与验证
type JWTManager struct {
	config *JWTConfig
	method jwt.SigningMethod
	parser *jwt.Parser
}

// NewJWTManager 创建 JWT 管理器
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	merged, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if merged.SecretKey == "" {
		return nil, ErrSecretKeyEmpty
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(merged.Algorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmInvalid, merged.Algorithm)
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(merged.Leeway),
		jwt.WithExpirationRequired(),
	}
	if merged.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(merged.Issuer))
	}

	return &JWTManager{
		config: merged,
		method: method,
		parser: jwt.NewParser(opts...),
	}, nil
}

// GenerateToken 签发 Token，未设置 ExpiresAt 时使用配置的有效期
func (m *JWTManager) GenerateToken(claims *Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.ExpiresIn))
	}
	if m.config.Issuer != "" && claims.Issuer == "" {
		claims.Issuer = m.config.Issuer
	}

	return jwt.NewWithClaims(m.method, claims).SignedString([]byte(m.config.SecretKey))
}

// ValidateToken 验证 Token 并返回 Claims
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, m.config.TokenPrefix))
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := m.parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, ErrAlgorithmMismatch
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// Get 获取 Payload 中的值，支持 "user.profile.name" 形式的嵌套 key
func (c *Claims) Get(key string) any {
	var cur any = c.Payload
	for _, k := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[k]
		if !ok {
			return nil
		}
	}
	return cur
}

// GetString 获取字符串值，不存在或类型不符时返回空串
func (c *Claims) GetString(key string) string {
	s, _ := c.Get(key).(string)
	return s
}

// UnmarshalKey 将指定 key 的值解析到 v，key 为空时解析整个 Payload
func (c *Claims) UnmarshalKey(key string, v any) error {
	var val any = c.Payload
	if key != "" {
		val = c.Get(key)
	}
	if val == nil {
		return nil
	}
	return mapstructure.Decode(val, v)
}
