package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/storage"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

const (
	// HomeURL 批量任务开始前不在站内时先打开首页
	HomeURL = "https://www.youtube.com"

	searchURLPrefix = "https://www.youtube.com/results?search_query="
)

// ErrCampaignRunning 已有批量任务在运行
var ErrCampaignRunning = errors.New("已有批量任务正在运行")

// StatusFunc 批量任务状态回调
type StatusFunc func(models.StatusEvent)

// CampaignRunner 批量抓取执行器
// 按顺序处理每个搜索词,把新视频追加到导出列表; 同一时间只允许一个任务
type CampaignRunner struct {
	scraper  *Scraper
	exports  *storage.ExportList
	session  *Session
	config   models.CampaignConfig
	onStatus StatusFunc

	running atomic.Bool
}

// NewCampaignRunner 创建批量执行器
// session为nil时不回写会话结果; onStatus为nil时只写日志
func NewCampaignRunner(scraper *Scraper, exports *storage.ExportList, session *Session, config models.CampaignConfig, onStatus StatusFunc) *CampaignRunner {
	return &CampaignRunner{
		scraper:  scraper,
		exports:  exports,
		session:  session,
		config:   config,
		onStatus: onStatus,
	}
}

// Running 是否有任务在运行
func (r *CampaignRunner) Running() bool {
	return r.running.Load()
}

// SearchURL 搜索词对应的结果页地址
func SearchURL(query string) string {
	return searchURLPrefix + url.QueryEscape(query)
}

// Run 执行批量任务
// 执行流程:
//  1. 校验请求,失败时不做任何导航
//  2. 重新加载导出列表
//  3. 不在站内时先打开首页
//  4. 逐个搜索词: 导航、自动滚动抓取、追加新视频
//  5. 汇总并回写会话结果
//
// 单个搜索词失败不会中止整个任务; 只有ctx取消会提前结束。
func (r *CampaignRunner) Run(ctx context.Context, req models.CampaignRequest) (*models.CampaignSummary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrCampaignRunning
	}
	defer r.running.Store(false)

	if req.Count == 0 && r.config.DefaultCount > 0 {
		req.Count = r.config.DefaultCount
	}
	req, err := req.Normalize()
	if err != nil {
		r.status(models.StatusError, 0, 0, err.Error())
		return nil, err
	}

	total := len(req.Queries)
	summary := &models.CampaignSummary{
		ID:        uuid.NewString(),
		Queries:   total,
		Count:     req.Count,
		Results:   make([]models.QueryResult, 0, total),
		StartedAt: time.Now(),
	}

	utils.Infof("🚀 开始批量抓取: %d个搜索词, 每个目标%d条 [%s]", total, req.Count, summary.ID)
	r.status(models.StatusInfo, 0, total, fmt.Sprintf("开始批量抓取, 共%d个搜索词", total))

	if err := r.exports.Load(ctx); err != nil {
		r.status(models.StatusError, 0, total, err.Error())
		return nil, err
	}

	page := r.scraper.Page()
	if current, err := page.URL(ctx); err != nil || !IsYouTubeURL(current) {
		utils.Infof("当前页面不在站内,先打开首页: %s", HomeURL)
		if err := page.Navigate(ctx, HomeURL); err != nil {
			r.status(models.StatusError, 0, total, err.Error())
			return nil, fmt.Errorf("打开首页失败: %w", err)
		}
		if err := utils.SleepContext(ctx, models.Millis(r.config.HomeWaitMs)); err != nil {
			return nil, err
		}
	}

	for i, query := range req.Queries {
		if err := ctx.Err(); err != nil {
			r.finish(summary)
			return summary, err
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, total)
		result, records := r.runQuery(ctx, i+1, total, query, req.Count)
		summary.Results = append(summary.Results, result)
		summary.Data = append(summary.Data, records...)
		summary.TotalFound += result.Found
		summary.TotalAdded += result.Added

		if i < total-1 {
			if err := utils.SleepContext(ctx, models.Millis(r.config.QueryPauseMs)); err != nil {
				r.finish(summary)
				return summary, err
			}
		}
	}

	r.finish(summary)
	r.status(models.StatusSuccess, 0, total,
		fmt.Sprintf("批量抓取完成! 新增%d个视频到导出列表, 共找到%d个视频", summary.TotalAdded, len(summary.Data)))
	return summary, nil
}

// runQuery 处理单个搜索词
func (r *CampaignRunner) runQuery(ctx context.Context, index, total int, query string, count int) (models.QueryResult, []models.VideoRecord) {
	start := time.Now()
	result := models.QueryResult{Query: query}
	done := func() {
		result.Duration = time.Since(start).Seconds()
	}

	r.status(models.StatusInfo, index, total, fmt.Sprintf("处理中 %d/%d: \"%s\" (目标: %d)", index, total, query, count))

	records, err := r.scrapeQuery(ctx, index, total, query, count)
	if err != nil {
		result.Error = err.Error()
		done()
		metrics.CampaignQueries.WithLabelValues("error").Inc()
		utils.Errorf("❌ 搜索词 \"%s\" 处理失败: %v", query, err)
		r.status(models.StatusError, index, total, fmt.Sprintf("%d/%d: 出错 - %v", index, total, err))
		return result, nil
	}

	result.Found = len(records)
	if len(records) == 0 {
		done()
		metrics.CampaignQueries.WithLabelValues("empty").Inc()
		r.status(models.StatusInfo, index, total, fmt.Sprintf("%d/%d: 没有找到结果", index, total))
		return result, nil
	}

	added, err := r.exports.Append(ctx, records, query)
	if err != nil {
		result.Error = err.Error()
		done()
		metrics.CampaignQueries.WithLabelValues("error").Inc()
		utils.Errorf("❌ 保存导出列表失败: %v", err)
		r.status(models.StatusError, index, total, fmt.Sprintf("%d/%d: 出错 - %v", index, total, err))
		return result, records
	}

	result.Added = len(added)
	done()
	metrics.CampaignQueries.WithLabelValues("complete").Inc()
	r.status(models.StatusSuccess, index, total,
		fmt.Sprintf("%d/%d 完成: 找到%d个, 新增%d个 (列表共%d个)", index, total, result.Found, result.Added, r.exports.Count()))
	return result, records
}

// scrapeQuery 导航到搜索结果页并自动滚动抓取
func (r *CampaignRunner) scrapeQuery(ctx context.Context, index, total int, query string, count int) ([]models.VideoRecord, error) {
	page := r.scraper.Page()
	if err := page.Navigate(ctx, SearchURL(query)); err != nil {
		return nil, fmt.Errorf("打开搜索页失败: %w", err)
	}
	if err := utils.SleepContext(ctx, models.Millis(r.config.NavigateWaitMs)); err != nil {
		return nil, err
	}
	if err := utils.SleepContext(ctx, models.Millis(r.config.InitWaitMs)); err != nil {
		return nil, err
	}

	r.status(models.StatusInfo, index, total, fmt.Sprintf("正在滚动并抓取 \"%s\"...", query))
	return r.scraper.RunScrape(ctx, models.ScrapeOptions{
		Auto:        true,
		StallRounds: r.config.StallRounds,
		DelayMs:     r.config.DelayMs,
		MaxItems:    count,
	})
}

// finish 记录耗时,回写会话并打印摘要
func (r *CampaignRunner) finish(summary *models.CampaignSummary) {
	summary.Duration = time.Since(summary.StartedAt).Seconds()
	if r.session != nil {
		data := summary.Data
		if data == nil {
			data = []models.VideoRecord{}
		}
		r.session.Replace(data)
	}
	printCampaignSummary(summary)
}

func (r *CampaignRunner) status(level models.StatusLevel, index, total int, message string) {
	switch level {
	case models.StatusError:
		utils.Warnf("[批量] %s", message)
	default:
		utils.Infof("[批量] %s", message)
	}
	if r.onStatus != nil {
		r.onStatus(models.StatusEvent{
			Level:   level,
			Message: message,
			Index:   index,
			Total:   total,
			At:      time.Now(),
		})
	}
}

// printCampaignSummary 打印批量任务摘要
func printCampaignSummary(summary *models.CampaignSummary) {
	failed := 0
	for _, res := range summary.Results {
		if res.Error != "" {
			failed++
		}
	}

	utils.Info("==================================================")
	utils.Info("📊 批量抓取摘要")
	utils.Info("==================================================")
	utils.Infof("搜索词: %d (已处理 %d)", summary.Queries, len(summary.Results))
	utils.Infof("🔍 共找到: %d", summary.TotalFound)
	utils.Infof("✅ 新增: %d", summary.TotalAdded)
	utils.Infof("❌ 失败: %d", failed)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.Duration)
	utils.Info("==================================================")

	if failed > 0 {
		utils.Warn("失败的搜索词:")
		for _, res := range summary.Results {
			if res.Error != "" {
				utils.Warnf("  - %s: %s", res.Query, res.Error)
			}
		}
	}
}
