package core

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// Dispatcher 命令分发器
// 每个请求恰好得到一个响应,处理过程中的错误和panic都转成 {ok:false}
type Dispatcher struct {
	session    *Session
	scraper    *Scraper
	continuous *ContinuousScroller
}

// NewDispatcher 创建命令分发器
func NewDispatcher(session *Session, scraper *Scraper, continuous *ContinuousScroller) *Dispatcher {
	return &Dispatcher{
		session:    session,
		scraper:    scraper,
		continuous: continuous,
	}
}

// Session 分发器使用的会话
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Handle 处理一条命令
func (d *Dispatcher) Handle(ctx context.Context, req models.CommandRequest) (resp models.CommandResponse) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("处理命令 %s 时发生panic: %v", req.Cmd, r)
			resp = models.ErrorResponse(fmt.Errorf("%v", r))
		}
	}()

	utils.Debugf("收到命令: %s", req.Cmd)

	switch req.Cmd {
	case models.CmdScrapeVisible:
		if data, ok := d.session.Data(); ok && d.onResultsPage(ctx) {
			return models.OKResponse(data)
		}
		records, err := d.scraper.RunScrape(ctx, models.ScrapeOptions{})
		if err != nil {
			return models.ErrorResponse(err)
		}
		return models.OKResponse(records)

	case models.CmdScrapeFresh:
		return d.scrapeAndStore(ctx, models.ScrapeOptions{})

	case models.CmdScrollAndScrape:
		return d.scrapeAndStore(ctx, models.ScrollOptionsFrom(req))

	case models.CmdGetAutoData, models.CmdGetCurrentData:
		return models.OKResponse(d.session.DataOrEmpty())

	case models.CmdStartAutoScroll:
		d.continuous.Start(ctx)
		return models.OKResponse(d.session.DataOrEmpty())

	case models.CmdStopAutoScroll:
		d.continuous.Stop()
		return models.CommandResponse{OK: true}

	default:
		return models.ErrorResponse(models.ErrUnknownCommand)
	}
}

// scrapeAndStore 抓取并覆盖会话结果
func (d *Dispatcher) scrapeAndStore(ctx context.Context, opts models.ScrapeOptions) models.CommandResponse {
	pageURL, _ := d.scraper.Page().URL(ctx)
	if pageURL != d.session.URL() {
		// 导航监视器还没轮询到新页面
		d.session.Reset(pageURL)
	}
	records, err := d.scraper.RunScrape(ctx, opts)
	if err != nil {
		return models.ErrorResponse(err)
	}
	if !d.session.Store(pageURL, records) {
		utils.Debugf("抓取期间页面已切换,结果不写入会话")
	}
	return models.OKResponse(records)
}

func (d *Dispatcher) onResultsPage(ctx context.Context) bool {
	pageURL, err := d.scraper.Page().URL(ctx)
	return err == nil && IsSearchResultsURL(pageURL)
}
