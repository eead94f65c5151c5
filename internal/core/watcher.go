package core

import (
	"context"
	"sync"
	"time"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// NavigationWatcher 跟踪页面URL变化并在搜索结果页自动抓取
type NavigationWatcher struct {
	session *Session
	scraper *Scraper

	initialDelay time.Duration
	pollInterval time.Duration
	settleDelay  time.Duration
	scrapeDelay  time.Duration
}

// NewNavigationWatcher 创建导航监视器
func NewNavigationWatcher(session *Session, scraper *Scraper, cfg models.SessionConfig) *NavigationWatcher {
	poll := models.Millis(cfg.PollIntervalMs)
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &NavigationWatcher{
		session:      session,
		scraper:      scraper,
		initialDelay: models.Millis(cfg.InitialDelayMs),
		pollInterval: poll,
		settleDelay:  models.Millis(cfg.SettleDelayMs),
		scrapeDelay:  models.Millis(cfg.ScrapeDelayMs),
	}
}

// Run 运行直到ctx结束
//
// 启动后等待initialDelay做第一次抓取,之后每隔pollInterval读取页面URL。
// URL变化时立即 Reset,等待settleDelay+scrapeDelay后抓取;
// 抓取在独立goroutine中进行,期间继续轮询,过期结果由 Session.Store 丢弃。
func (w *NavigationWatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	if err := utils.SleepContext(ctx, w.initialDelay); err != nil {
		return nil
	}

	page := w.scraper.Page()
	current, err := page.URL(ctx)
	if err != nil {
		utils.Warnf("读取页面URL失败: %v", err)
	}
	w.session.Reset(current)
	w.autoScrape(ctx, current)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pageURL, err := page.URL(ctx)
		if err != nil {
			utils.Debugf("读取页面URL失败: %v", err)
			continue
		}
		if pageURL == w.session.URL() {
			continue
		}

		utils.Infof("🔀 页面已切换: %s", pageURL)
		w.session.Reset(pageURL)

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			if err := utils.SleepContext(ctx, w.settleDelay+w.scrapeDelay); err != nil {
				return
			}
			w.autoScrape(ctx, target)
		}(pageURL)
	}
}

// autoScrape 对pageURL做一次不滚动的抓取并保存
// 非搜索结果页或抓取失败时清空结果
func (w *NavigationWatcher) autoScrape(ctx context.Context, pageURL string) {
	if !IsSearchResultsURL(pageURL) {
		w.session.Discard(pageURL)
		return
	}

	records, err := w.scraper.RunScrape(ctx, models.ScrapeOptions{})
	if err != nil {
		if ctx.Err() == nil {
			utils.Warnf("自动抓取失败: %v", err)
		}
		w.session.Discard(pageURL)
		return
	}

	if w.session.Store(pageURL, records) {
		utils.Infof("自动抓取到%d条记录", len(records))
	} else {
		utils.Debugf("页面已再次切换,丢弃%d条过期记录", len(records))
	}
}
