// Package metrics Prometheus指标
//
// 指标在包初始化时创建,未注册时也可以安全计数;
// serve 命令启动时调用 Register 暴露到 /metrics。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScrapesTotal 抓取次数,按模式区分(auto/once)
	ScrapesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscraper_scrapes_total",
			Help: "Total scrape runs, by mode.",
		},
		[]string{"mode"},
	)

	// RecordsExtracted 去重后的记录数
	RecordsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscraper_records_extracted_total",
			Help: "Total records returned by scrapes after dedup.",
		},
	)

	// ScrollRounds 自动滚动轮数
	ScrollRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytscraper_scroll_rounds",
			Help:    "Scroll rounds per auto-scroll run.",
			Buckets: []float64{1, 3, 5, 10, 20, 50, 100},
		},
	)

	// ChannelCacheHits 频道缓存命中
	ChannelCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscraper_channel_cache_hits_total",
			Help: "Channel enrichment cache hits.",
		},
	)

	// ChannelCacheMisses 频道缓存未命中
	ChannelCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscraper_channel_cache_misses_total",
			Help: "Channel enrichment cache misses.",
		},
	)

	// ChannelFetchFailures 频道页抓取失败
	ChannelFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytscraper_channel_fetch_failures_total",
			Help: "Channel page fetches that failed.",
		},
	)

	// CampaignQueries 批量任务中处理的搜索词,按结果区分
	CampaignQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytscraper_campaign_queries_total",
			Help: "Campaign queries processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// ExportListSize 导出列表当前长度
	ExportListSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytscraper_export_list_size",
			Help: "Entries currently in the export list.",
		},
	)

	// RequestDuration 命令接口请求耗时
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytscraper_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by path, method and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

var registerOnce sync.Once

// Register 注册全部指标,重复调用无副作用
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			ScrapesTotal,
			RecordsExtracted,
			ScrollRounds,
			ChannelCacheHits,
			ChannelCacheMisses,
			ChannelFetchFailures,
			CampaignQueries,
			ExportListSize,
			RequestDuration,
		)
	})
}
