package main

import (
	"fmt"
	"net"
	"strings"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// ValidateScrapeFlags 验证 scrape 命令参数
func ValidateScrapeFlags(query, targetURL string, opts models.ScrapeOptions) error {
	if query != "" && strings.TrimSpace(query) == "" {
		return fmt.Errorf("搜索词不能为空白")
	}
	if targetURL != "" {
		if err := utils.ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
		if !core.IsSearchResultsURL(targetURL) {
			return fmt.Errorf("目标URL不是YouTube搜索结果页: %s", targetURL)
		}
	}

	if opts.StallRounds < 0 || opts.StallRounds > 50 {
		return fmt.Errorf("停滞轮数必须在0-50之间,当前值: %d", opts.StallRounds)
	}
	if opts.DelayMs < 0 || opts.DelayMs > 60000 {
		return fmt.Errorf("滚动等待时间必须在0-60000毫秒之间,当前值: %d", opts.DelayMs)
	}
	if opts.MaxItems < 0 {
		return fmt.Errorf("最大条目数不能为负数,当前值: %d", opts.MaxItems)
	}
	return nil
}

// ValidateCampaign 清理并验证批量任务请求
func ValidateCampaign(req models.CampaignRequest) (models.CampaignRequest, error) {
	normalized, err := req.Normalize()
	if err != nil {
		return req, fmt.Errorf("批量任务参数无效: %w", err)
	}
	return normalized, nil
}

// ValidateServeFlags 验证 serve 命令参数
func ValidateServeFlags(addr, startURL string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("无效的监听地址 %q: %w", addr, err)
	}
	if startURL != "" {
		if err := utils.ValidateURL(startURL); err != nil {
			return fmt.Errorf("无效的起始页面: %w", err)
		}
	}
	return nil
}
