// Package config HTTP头部配置文件
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

const (
	// DefaultHeaderFile 默认头部配置文件
	DefaultHeaderFile = "configs/headers.yaml"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var defaultHeaderTemplate string

// HeaderTemplate 内置的头部配置模板
func HeaderTemplate() string {
	return defaultHeaderTemplate
}

// HeaderConfigLoader 头部配置加载器
type HeaderConfigLoader struct {
	configPath string
	generate   bool
}

// NewHeaderConfigLoader 创建加载器; 文件不存在时会写出模板
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultHeaderFile
	}
	return &HeaderConfigLoader{configPath: configPath, generate: true}
}

// WithoutTemplate 文件不存在时返回空配置,不写出模板
func (hcl *HeaderConfigLoader) WithoutTemplate() *HeaderConfigLoader {
	hcl.generate = false
	return hcl
}

// Path 配置文件路径
func (hcl *HeaderConfigLoader) Path() string {
	return hcl.configPath
}

// EnsureConfigExists 文件不存在时写出模板
// 返回值表示本次是否新建了文件
func (hcl *HeaderConfigLoader) EnsureConfigExists() (bool, error) {
	if _, err := os.Stat(hcl.configPath); !os.IsNotExist(err) {
		return false, nil
	}

	dir := filepath.Dir(hcl.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}
	if err := os.WriteFile(hcl.configPath, []byte(defaultHeaderTemplate), 0644); err != nil {
		return false, fmt.Errorf("无法生成配置文件 [%s]: %w", hcl.configPath, err)
	}
	utils.Infof("已生成头部配置模板: %s", hcl.configPath)
	return true, nil
}

func (hcl *HeaderConfigLoader) validateFileSize() error {
	info, err := os.Stat(hcl.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", hcl.configPath, err)
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// LoadConfig 加载并解析头部配置
// 文件被其他进程锁定时降级为空配置
func (hcl *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	empty := &models.HeaderConfig{Headers: map[string]string{}}

	if hcl.generate {
		if _, err := hcl.EnsureConfigExists(); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(hcl.configPath); os.IsNotExist(err) {
		return empty, nil
	}

	if err := hcl.validateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(hcl.configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			utils.Warnf("配置文件被锁定 [%s], 使用默认头部", hcl.configPath)
			return empty, nil
		}
		return nil, &models.ConfigError{FilePath: hcl.configPath, Cause: err}
	}

	var cfg models.HeaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return &cfg, nil
}
