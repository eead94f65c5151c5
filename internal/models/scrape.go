package models

import (
	"fmt"
	"time"
)

const (
	DefaultStallRounds = 3    // 连续无增长轮数
	DefaultDelayMs     = 1200 // 每次滚动后等待(毫秒)
	DefaultMaxItems    = 0    // 0表示不限制
)

// ScrapeOptions 单次抓取参数
type ScrapeOptions struct {
	Auto        bool `json:"auto"`        // 是否先自动滚动
	StallRounds int  `json:"stallRounds"` // 连续无增长轮数
	DelayMs     int  `json:"delayMs"`     // 每次滚动后等待(毫秒)
	MaxItems    int  `json:"maxItems"`    // 达到该数量提前结束,0为不限制
}

// DefaultScrapeOptions 默认抓取参数(不滚动)
func DefaultScrapeOptions() ScrapeOptions {
	return ScrapeOptions{
		StallRounds: DefaultStallRounds,
		DelayMs:     DefaultDelayMs,
		MaxItems:    DefaultMaxItems,
	}
}

// Delay 每轮等待时长
func (o ScrapeOptions) Delay() time.Duration {
	return time.Duration(o.DelayMs) * time.Millisecond
}

// Validate 验证参数范围
func (o ScrapeOptions) Validate() error {
	if o.StallRounds < 0 {
		return fmt.Errorf("停滞轮数不能为负数,当前值: %d", o.StallRounds)
	}
	if o.DelayMs < 0 {
		return fmt.Errorf("滚动等待时间不能为负数,当前值: %d", o.DelayMs)
	}
	if o.MaxItems < 0 {
		return fmt.Errorf("最大条目数不能为负数,当前值: %d", o.MaxItems)
	}
	return nil
}

// ScrollOptionsFrom 由命令请求构造自动滚动参数,缺省字段取默认值
func ScrollOptionsFrom(req CommandRequest) ScrapeOptions {
	opts := DefaultScrapeOptions()
	opts.Auto = true
	if req.StallRounds != nil {
		opts.StallRounds = *req.StallRounds
	}
	if req.DelayMs != nil {
		opts.DelayMs = *req.DelayMs
	}
	if req.MaxItems != nil {
		opts.MaxItems = *req.MaxItems
	}
	return opts
}
