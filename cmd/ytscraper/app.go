package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/crawlers"
	"github.com/RecoveryAshes/ytscraper/internal/enrich"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/storage"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// runtime 一次命令执行所需的组件
type runtime struct {
	cfg     *core.Config
	headers *core.HeaderManager

	browser *crawlers.Browser
	page    *crawlers.BrowserPage
	scraper *core.Scraper
	session *core.Session

	kv      storage.KV
	exports *storage.ExportList
}

// signalContext Ctrl+C 或 SIGTERM 时取消
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openExports 打开存储并加载导出列表
func openExports(ctx context.Context, cfg *core.Config) (storage.KV, *storage.ExportList, error) {
	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("打开存储失败: %w", err)
	}
	exports := storage.NewExportList(kv)
	if err := exports.Load(ctx); err != nil {
		kv.Close()
		return nil, nil, err
	}
	return kv, exports, nil
}

// newRuntime 启动浏览器并装配抓取管线
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := appConfig
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hm, err := core.NewHeaderManager("", headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	safe, err := hm.GetSafeHeaders()
	if err != nil {
		return nil, fmt.Errorf("HTTP头部配置无效: %w", err)
	}
	utils.Debugf("当前有效的HTTP头部 (%d个): %v", len(safe), safe)

	rt := &runtime{cfg: cfg, headers: hm}

	rt.kv, rt.exports, err = openExports(ctx, cfg)
	if err != nil {
		return nil, err
	}

	utils.Info("🚀 启动浏览器...")
	rt.browser, err = crawlers.LaunchBrowser(cfg.Browser, hm)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.page, err = rt.browser.NewPage(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	source, err := rt.channelSource(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	cache := enrich.NewCache()
	fetcher := enrich.NewFetcher(source, cache,
		enrich.WithConcurrency(cfg.Enrich.Concurrency),
		enrich.WithRateLimit(cfg.Enrich.RatePerSecond, cfg.Enrich.Burst),
	)
	rt.session = core.NewSession(cache)
	rt.scraper = core.NewScraper(rt.page, fetcher, models.Millis(cfg.Scrape.SettleDelayMs))
	return rt, nil
}

// channelSource 按配置选择频道页抓取方式
// browser方式使用单独的标签页,不干扰主页面
func (rt *runtime) channelSource(ctx context.Context) (models.TextFetcher, error) {
	timeout := rt.cfg.Enrich.Timeout()
	switch rt.cfg.Enrich.Transport {
	case "browser":
		tab, err := rt.browser.NewPage(ctx)
		if err != nil {
			return nil, err
		}
		return crawlers.NewBrowserFetcher(tab, timeout), nil
	default:
		return crawlers.NewHTTPFetcher(timeout, rt.headers)
	}
}

// Close 释放浏览器与存储
func (rt *runtime) Close() {
	if rt.browser != nil {
		if err := rt.browser.Close(); err != nil {
			utils.Warnf("%v", err)
		}
	}
	if rt.kv != nil {
		if err := rt.kv.Close(); err != nil {
			utils.Warnf("关闭存储失败: %v", err)
		}
	}
}

// campaignRunner 基于当前运行时创建批量任务执行器
func (rt *runtime) campaignRunner(onStatus core.StatusFunc) *core.CampaignRunner {
	return core.NewCampaignRunner(rt.scraper, rt.exports, rt.session, rt.cfg.Campaign, onStatus)
}

// writeRecords 写出JSON数组,path为空或"-"时写到标准输出
func writeRecords[T any](path string, records []T) error {
	if path == "" || path == "-" {
		return storage.WriteJSON(os.Stdout, records)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer f.Close()
	if err := storage.WriteJSON(f, records); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	utils.Infof("💾 已写入 %d 条记录: %s", len(records), path)
	return nil
}
