package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/ytscraper/internal/crawlers"
	"github.com/RecoveryAshes/ytscraper/internal/enrich"
	"github.com/RecoveryAshes/ytscraper/internal/extractor"
	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// Scraper 抓取流水线协调器
type Scraper struct {
	page     models.Page
	enricher *enrich.Fetcher

	// 自动滚动结束回到顶部后的等待
	settle time.Duration
}

// NewScraper 创建抓取器
// enricher为nil时跳过频道补全,订阅数保持为空
func NewScraper(page models.Page, enricher *enrich.Fetcher, settle time.Duration) *Scraper {
	return &Scraper{
		page:     page,
		enricher: enricher,
		settle:   settle,
	}
}

// Page 返回抓取使用的页面
func (s *Scraper) Page() models.Page {
	return s.page
}

// RunScrape 执行一次完整抓取
// 执行流程:
//  1. 可选的自动滚动
//  2. 页面快照并抽取候选记录
//  3. 去重
//  4. 频道补全
//  5. 投影为输出形态
//
// 只有快照失败或ctx取消会返回错误,字段缺失一律降级为空值。
func (s *Scraper) RunScrape(ctx context.Context, opts models.ScrapeOptions) ([]models.VideoRecord, error) {
	mode := "once"
	if opts.Auto {
		mode = "auto"
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		rounds, err := crawlers.NewAutoScroller(s.page, s.settle).
			Run(ctx, opts.StallRounds, opts.Delay(), opts.MaxItems)
		if err != nil {
			return nil, err
		}
		utils.Debugf("自动滚动完成: %d轮", rounds)
	}

	snapshot, err := s.page.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("页面快照失败: %w", err)
	}

	raw := extractor.Dedupe(extractor.Extract(snapshot))
	if s.enricher != nil {
		raw = s.enricher.Enrich(ctx, raw)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := models.Project(raw)
	metrics.ScrapesTotal.WithLabelValues(mode).Inc()
	metrics.RecordsExtracted.Add(float64(len(records)))
	utils.Debugf("抓取完成(%s): %d条记录", mode, len(records))
	return records, nil
}
