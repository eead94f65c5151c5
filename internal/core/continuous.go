package core

import (
	"context"
	"sync"
	"time"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// scrollToken 连续滚动的取消令牌,只能取消一次
type scrollToken struct {
	once sync.Once
	done chan struct{}
}

func newScrollToken() *scrollToken {
	return &scrollToken{done: make(chan struct{})}
}

func (t *scrollToken) cancel() {
	t.once.Do(func() { close(t.done) })
}

func (t *scrollToken) cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// wait 等待d; 令牌取消或ctx结束时提前返回false
func (t *scrollToken) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// ContinuousScroller 连续滚动模式
//
// 每轮平滑滚动到底部,等待内容加载后做一次不滚动的抓取并覆盖会话结果。
// 停止只是取消令牌,正在进行的抓取不会被中断,其结果被丢弃。
type ContinuousScroller struct {
	base    context.Context // 后台循环的生命周期
	session *Session
	scraper *Scraper

	firstDelay time.Duration
	settle     time.Duration
	interval   time.Duration

	wg sync.WaitGroup
}

// NewContinuousScroller 创建连续滚动控制器; base结束时后台循环随之退出
func NewContinuousScroller(base context.Context, session *Session, scraper *Scraper, cfg models.SessionConfig) *ContinuousScroller {
	return &ContinuousScroller{
		base:       base,
		session:    session,
		scraper:    scraper,
		firstDelay: models.Millis(cfg.ContinuousFirstDelayMs),
		settle:     models.Millis(cfg.ContinuousSettleMs),
		interval:   models.Millis(cfg.ContinuousIntervalMs),
	}
}

// Start 启动连续滚动
// 已在运行或当前不在搜索结果页时什么都不做,返回false。
// ctx只用于检查当前页面,循环本身跟随创建时的base。
func (c *ContinuousScroller) Start(ctx context.Context) bool {
	pageURL, err := c.scraper.Page().URL(ctx)
	if err != nil || !IsSearchResultsURL(pageURL) {
		utils.Debug("无法启动连续滚动: 不在搜索结果页")
		return false
	}

	token, ok := c.session.beginScroll()
	if !ok {
		utils.Debug("连续滚动已在运行")
		return false
	}

	utils.Info("▶️  开始连续滚动")
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.session.releaseScroll(token)
		c.loop(c.base, token)
	}()
	return true
}

// Stop 停止连续滚动; 未运行时返回false
func (c *ContinuousScroller) Stop() bool {
	if !c.session.endScroll() {
		return false
	}
	utils.Info("⏹️  连续滚动已停止")
	return true
}

// Wait 等待后台循环退出
func (c *ContinuousScroller) Wait() {
	c.wg.Wait()
}

func (c *ContinuousScroller) loop(ctx context.Context, token *scrollToken) {
	if !token.wait(ctx, c.firstDelay) {
		return
	}

	page := c.scraper.Page()
	for {
		if token.cancelled() {
			return
		}
		if err := page.ScrollToBottom(ctx, true); err != nil {
			utils.Warnf("连续滚动: 滚动失败: %v", err)
		}
		if !token.wait(ctx, c.settle) {
			return
		}

		if token.cancelled() {
			return
		}
		pageURL, _ := page.URL(ctx)
		records, err := c.scraper.RunScrape(ctx, models.ScrapeOptions{})
		switch {
		case err != nil:
			utils.Warnf("连续滚动: 抓取失败: %v", err)
		case token.cancelled():
			return
		default:
			c.session.Store(pageURL, records)
			utils.Debugf("连续滚动: 抓取到%d条记录", len(records))
		}

		if !token.wait(ctx, c.interval) {
			return
		}
	}
}
