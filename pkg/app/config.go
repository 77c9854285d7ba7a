package app

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"

	"github.com/lk2023060901/xdooria-social/pkg/config"
)

// EnvPrefix 环境变量前缀，XDOORIA_SOCIAL_LOG_LEVEL 对应 log.level
const EnvPrefix = "XDOORIA_SOCIAL"

// LoadConfig 解析命令行并加载配置到 target，返回实际使用的配置文件路径。
// 优先级：命令行显式参数 > 环境变量 > 配置文件 > 默认值
func LoadConfig(target any, fs *pflag.FlagSet, args []string, opts ...config.Option) (string, error) {
	if fs.Lookup("config") == nil {
		fs.StringP("config", "c", "config.yaml", "path to config file")
	}
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return "", errors.Wrap(err, "app: parse flags")
		}
	}

	// 配置文件路径：Flag 显式指定 > XDOORIA_SOCIAL_CONFIG > 默认值
	path, err := fs.GetString("config")
	if err != nil {
		return "", errors.Wrap(err, "app: config flag")
	}
	if !fs.Changed("config") {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path = env
		}
	}

	mgr := config.NewManager(append([]config.Option{config.WithEnvPrefix(EnvPrefix)}, opts...)...)
	if err := mgr.LoadFile(path); err != nil {
		return "", err
	}
	if err := mgr.BindFlags(fs); err != nil {
		return "", err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return "", err
	}
	return path, nil
}
