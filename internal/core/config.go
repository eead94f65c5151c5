package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// EnvPrefix 环境变量前缀,如 YTSCRAPER_ENRICH_TRANSPORT=browser
const EnvPrefix = "YTSCRAPER"

// Config 应用程序配置
type Config struct {
	Browser  models.BrowserConfig  `mapstructure:"browser"`
	Scrape   models.ScrollConfig   `mapstructure:"scrape"`
	Enrich   models.EnrichConfig   `mapstructure:"enrich"`
	Session  models.SessionConfig  `mapstructure:"session"`
	Campaign models.CampaignConfig `mapstructure:"campaign"`
	Storage  StorageConfig         `mapstructure:"storage"`
	Server   ServerConfig          `mapstructure:"server"`
	Logging  LoggingConfig         `mapstructure:"logging"`
}

// StorageConfig 导出列表存储配置
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // json 或 sqlite
	Path   string `mapstructure:"path"`
}

// ServerConfig 命令接口配置
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	StartURL string `mapstructure:"start_url"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LogConfig 转换为日志系统配置
func (c LoggingConfig) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Level,
		LogDir:     c.LogDir,
		MaxSize:    c.Rotation.MaxSize,
		MaxBackups: c.Rotation.MaxBackups,
		MaxAge:     c.Rotation.MaxAge,
		Compress:   c.Rotation.Compress,
	}
}

// LoadConfig 加载配置
//
// 顺序: 默认值 < config.yaml < .env / 环境变量。
// configPath为空时依次搜索 ./configs、当前目录和 ~/.ytscraper,找不到文件不算错误。
func LoadConfig(configPath string) (*Config, error) {
	// .env 不覆盖已存在的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Warnf("读取.env失败: %v", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ytscraper"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig 只含默认值的配置
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.min_free_memory_mb", 512)

	v.SetDefault("scrape.stall_rounds", models.DefaultStallRounds)
	v.SetDefault("scrape.delay_ms", models.DefaultDelayMs)
	v.SetDefault("scrape.max_items", models.DefaultMaxItems)
	v.SetDefault("scrape.settle_delay_ms", 400)

	v.SetDefault("enrich.transport", "http")
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("enrich.timeout_seconds", 30)
	v.SetDefault("enrich.rate_per_second", 0)
	v.SetDefault("enrich.burst", 5)

	v.SetDefault("session.initial_delay_ms", 1000)
	v.SetDefault("session.poll_interval_ms", 500)
	v.SetDefault("session.settle_delay_ms", 1500)
	v.SetDefault("session.scrape_delay_ms", 2000)
	v.SetDefault("session.continuous_first_delay_ms", 500)
	v.SetDefault("session.continuous_settle_ms", 2000)
	v.SetDefault("session.continuous_interval_ms", 1000)

	v.SetDefault("campaign.default_count", models.DefaultCampaignCount)
	v.SetDefault("campaign.stall_rounds", 6)
	v.SetDefault("campaign.delay_ms", 2000)
	v.SetDefault("campaign.navigate_wait_ms", 4000)
	v.SetDefault("campaign.init_wait_ms", 2000)
	v.SetDefault("campaign.home_wait_ms", 3000)
	v.SetDefault("campaign.query_pause_ms", 1000)

	v.SetDefault("storage.driver", "json")
	v.SetDefault("storage.path", "data/export.json")

	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.start_url", "https://www.youtube.com/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// Validate 校验各段配置
func (c *Config) Validate() error {
	if err := c.Enrich.Validate(); err != nil {
		return fmt.Errorf("enrich配置无效: %w", err)
	}
	scroll := models.ScrapeOptions{
		StallRounds: c.Scrape.StallRounds,
		DelayMs:     c.Scrape.DelayMs,
		MaxItems:    c.Scrape.MaxItems,
	}
	if err := scroll.Validate(); err != nil {
		return fmt.Errorf("scrape配置无效: %w", err)
	}
	if c.Campaign.DefaultCount < models.MinCampaignCount || c.Campaign.DefaultCount > models.MaxCampaignCount {
		return fmt.Errorf("campaign配置无效: %w,当前值: %d", models.ErrCountOutOfRange, c.Campaign.DefaultCount)
	}
	if c.Storage.Driver != "json" && c.Storage.Driver != "sqlite" {
		return fmt.Errorf("storage.driver必须是json或sqlite,当前值: %s", c.Storage.Driver)
	}
	return nil
}
