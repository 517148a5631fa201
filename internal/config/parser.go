package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀,例如 MPCRAWLER_LOGIN_TIMEOUT_SECONDS=60
const EnvPrefix = "MPCRAWLER"

// ParseConfig 解析单个 JSON 配置文档,同样支持环境变量覆盖
func ParseConfig(byteConfig []byte) (*Config, error) {
	return LoadConfig(byteConfig, "")
}

// LoadConfig 先读取内嵌的默认配置,再合并 path 指向的配置文件(可为空),最后应用环境变量
func LoadConfig(defaults []byte, path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("读取默认配置失败: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("合并配置文件 %s 失败: %w", path, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.Chromedp.UserDataDir != "" {
		absPath, err := filepath.Abs(cfg.Chromedp.UserDataDir)
		if err != nil {
			return err
		}
		cfg.Chromedp.UserDataDir = absPath
	}
	if cfg.Rod.UserDataDir != "" {
		absPath, err := filepath.Abs(cfg.Rod.UserDataDir)
		if err != nil {
			return err
		}
		cfg.Rod.UserDataDir = absPath
	}
	cfg.Platform.BaseURL = strings.TrimRight(cfg.Platform.BaseURL, "/")
	if cfg.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url 不能为空")
	}
	return nil
}
