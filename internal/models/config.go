package models

import (
	"fmt"
	"time"
)

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Headless        bool   `mapstructure:"headless" json:"headless"`                     // 无头模式
	Bin             string `mapstructure:"bin" json:"bin"`                               // Chromium可执行文件,为空时自动下载
	NoSandbox       bool   `mapstructure:"no_sandbox" json:"no_sandbox"`                 // 容器内运行时需要
	UserDataDir     string `mapstructure:"user_data_dir" json:"user_data_dir"`           // 保留登录态/同意弹窗状态
	MinFreeMemoryMB int    `mapstructure:"min_free_memory_mb" json:"min_free_memory_mb"` // 启动前要求的最低可用内存
}

// ScrollConfig 自动滚动配置
type ScrollConfig struct {
	StallRounds   int `mapstructure:"stall_rounds" json:"stall_rounds"`
	DelayMs       int `mapstructure:"delay_ms" json:"delay_ms"`
	MaxItems      int `mapstructure:"max_items" json:"max_items"`
	SettleDelayMs int `mapstructure:"settle_delay_ms" json:"settle_delay_ms"` // 回到顶部后的等待
}

// MaxEnrichConcurrency 频道补全预热的并发上限
const MaxEnrichConcurrency = 5

// EnrichConfig 频道补全配置
type EnrichConfig struct {
	Transport      string  `mapstructure:"transport" json:"transport"` // http 或 browser
	Concurrency    int     `mapstructure:"concurrency" json:"concurrency"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" json:"timeout_seconds"`
	RatePerSecond  float64 `mapstructure:"rate_per_second" json:"rate_per_second"` // 0为不限速
	Burst          int     `mapstructure:"burst" json:"burst"`
}

// Timeout 单次抓取超时
func (c EnrichConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate 验证配置
func (c EnrichConfig) Validate() error {
	if c.Transport != "http" && c.Transport != "browser" {
		return fmt.Errorf("频道补全方式必须是http或browser,当前值: %s", c.Transport)
	}
	if c.Concurrency < 1 || c.Concurrency > MaxEnrichConcurrency {
		return fmt.Errorf("频道补全并发数必须在1-5之间,当前值: %d", c.Concurrency)
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("限速不能为负数")
	}
	return nil
}

// SessionConfig 会话与连续滚动的时间参数(毫秒)
type SessionConfig struct {
	InitialDelayMs         int `mapstructure:"initial_delay_ms" json:"initial_delay_ms"`
	PollIntervalMs         int `mapstructure:"poll_interval_ms" json:"poll_interval_ms"`
	SettleDelayMs          int `mapstructure:"settle_delay_ms" json:"settle_delay_ms"`
	ScrapeDelayMs          int `mapstructure:"scrape_delay_ms" json:"scrape_delay_ms"`
	ContinuousFirstDelayMs int `mapstructure:"continuous_first_delay_ms" json:"continuous_first_delay_ms"`
	ContinuousSettleMs     int `mapstructure:"continuous_settle_ms" json:"continuous_settle_ms"`
	ContinuousIntervalMs   int `mapstructure:"continuous_interval_ms" json:"continuous_interval_ms"`
}

// CampaignConfig 批量任务配置
type CampaignConfig struct {
	DefaultCount   int `mapstructure:"default_count" json:"default_count"`
	StallRounds    int `mapstructure:"stall_rounds" json:"stall_rounds"`
	DelayMs        int `mapstructure:"delay_ms" json:"delay_ms"`
	NavigateWaitMs int `mapstructure:"navigate_wait_ms" json:"navigate_wait_ms"`
	InitWaitMs     int `mapstructure:"init_wait_ms" json:"init_wait_ms"`
	HomeWaitMs     int `mapstructure:"home_wait_ms" json:"home_wait_ms"`
	QueryPauseMs   int `mapstructure:"query_pause_ms" json:"query_pause_ms"`
}

// Millis 毫秒转Duration
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
