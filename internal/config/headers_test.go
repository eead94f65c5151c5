package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

func TestHeaderConfigLoader_LoadConfig(t *testing.T) {
	t.Run("首次运行自动生成模板", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "configs", "headers.yaml")
		loader := NewHeaderConfigLoader(configPath)

		cfg, err := loader.LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			t.Fatal("配置文件应该被自动生成")
		}
		// viper会把键名转成小写
		if cfg.Headers["accept-language"] != "en-US,en;q=0.9" {
			t.Errorf("期望模板中的Accept-Language, 实际 %v", cfg.Headers)
		}
	})

	t.Run("不生成模板时返回空配置", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		cfg, err := NewHeaderConfigLoader(configPath).WithoutTemplate().LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if len(cfg.Headers) != 0 {
			t.Errorf("期望空配置, 实际 %v", cfg.Headers)
		}
		if _, err := os.Stat(configPath); !os.IsNotExist(err) {
			t.Error("不应生成配置文件")
		}
	})

	t.Run("加载已存在的配置文件", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		content := "headers:\n  User-Agent: \"Test Bot/1.0\"\n  Cookie: \"CONSENT=YES+1\"\n"
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}

		cfg, err := NewHeaderConfigLoader(configPath).LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if cfg.Headers["user-agent"] != "Test Bot/1.0" {
			t.Errorf("期望 user-agent='Test Bot/1.0', 实际='%s'", cfg.Headers["user-agent"])
		}
		if cfg.Headers["cookie"] != "CONSENT=YES+1" {
			t.Errorf("期望 cookie='CONSENT=YES+1', 实际='%s'", cfg.Headers["cookie"])
		}
	})

	t.Run("空headers得到非nil的map", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		if err := os.WriteFile(configPath, []byte("# 空配置\n"), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}
		cfg, err := NewHeaderConfigLoader(configPath).LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if cfg.Headers == nil {
			t.Fatal("Headers map应该被初始化")
		}
	})

	t.Run("YAML格式错误返回ConfigError", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		bad := "headers:\n  User-Agent: \"Test Bot\n  X-Custom: missing quote\n"
		if err := os.WriteFile(configPath, []byte(bad), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}

		_, err := NewHeaderConfigLoader(configPath).LoadConfig()
		var cfgErr *models.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("期望 ConfigError, 实际 %v", err)
		}
		if cfgErr.FilePath != configPath {
			t.Errorf("期望路径 %s, 实际 %s", configPath, cfgErr.FilePath)
		}
	})

	t.Run("文件过大", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		big := "headers:\n  X-Big: \"" + strings.Repeat("a", MaxConfigFileSize) + "\"\n"
		if err := os.WriteFile(configPath, []byte(big), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}
		if _, err := NewHeaderConfigLoader(configPath).LoadConfig(); err == nil {
			t.Error("期望文件过大返回错误")
		}
	})
}

func TestNewHeaderConfigLoader_DefaultPath(t *testing.T) {
	if got := NewHeaderConfigLoader("").Path(); got != DefaultHeaderFile {
		t.Errorf("期望 %s, 实际 %s", DefaultHeaderFile, got)
	}
}

func TestHeaderTemplate(t *testing.T) {
	if !strings.Contains(HeaderTemplate(), "headers:") {
		t.Error("模板应包含headers段")
	}
}
