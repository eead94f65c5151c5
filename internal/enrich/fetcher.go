// Package enrich 频道补全: 抓取频道页,提取订阅数与handle
//
// 所有失败都被吞掉并缓存为空结果,调用方永远拿到一个 models.ChannelInfo。
package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// DefaultConcurrency 预热阶段的最大并发抓取数
const DefaultConcurrency = 5

// Fetcher 频道补全器
type Fetcher struct {
	source      models.TextFetcher
	cache       *Cache
	limiter     *rate.Limiter
	concurrency int
}

// Option 补全器选项
type Option func(*Fetcher)

// WithConcurrency 设置预热并发数,不超过DefaultConcurrency
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 && n <= DefaultConcurrency {
			f.concurrency = n
		}
	}
}

// WithRateLimit 限制每秒发出的请求数,rps<=0时不限速
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewFetcher 创建补全器; cache为nil时新建一个
func NewFetcher(source models.TextFetcher, cache *Cache, opts ...Option) *Fetcher {
	if cache == nil {
		cache = NewCache()
	}
	f := &Fetcher{
		source:      source,
		cache:       cache,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Cache 返回共享缓存
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Lookup 获取单个频道的补全信息
//
// 先抓频道首页; 任一字段缺失时再抓 about 页,只填补缺失字段。
// 首页抓取失败得到空结果; about 页失败则保留首页已得到的字段。
func (f *Fetcher) Lookup(ctx context.Context, channelURL string) models.ChannelInfo {
	if channelURL == "" {
		return models.ChannelInfo{}
	}

	root := Canonicalize(channelURL)
	if info, ok := f.cache.Get(root); ok {
		metrics.ChannelCacheHits.Inc()
		return info
	}
	metrics.ChannelCacheMisses.Inc()

	var info models.ChannelInfo
	text, err := f.fetch(ctx, root)
	if err != nil {
		metrics.ChannelFetchFailures.Inc()
		utils.Debugf("频道页抓取失败 [%s]: %v", root, err)
	} else {
		info = ExtractChannelInfo(text)
		if !info.Complete() {
			info = f.fillFromAbout(ctx, root, info)
		}
	}

	// 调用方取消不算抓取失败,不写缓存
	if ctx.Err() != nil {
		return info
	}
	f.cache.Set(root, info)
	return info
}

func (f *Fetcher) fillFromAbout(ctx context.Context, root string, info models.ChannelInfo) models.ChannelInfo {
	aboutURL := AboutURL(root)
	text, err := f.fetch(ctx, aboutURL)
	if err != nil {
		metrics.ChannelFetchFailures.Inc()
		utils.Debugf("频道about页抓取失败 [%s]: %v", aboutURL, err)
		return info
	}

	about := ExtractChannelInfo(text)
	if info.Subscribers == "" {
		info.Subscribers = about.Subscribers
	}
	if info.Handle == "" {
		info.Handle = about.Handle
	}
	return info
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return f.source.FetchText(ctx, url)
}

// WarmUp 以有限并发把所有频道写入缓存,返回时全部URL都已缓存
func (f *Fetcher) WarmUp(ctx context.Context, channelURLs []string) {
	seen := make(map[string]struct{}, len(channelURLs))
	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for _, u := range channelURLs {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		u := u
		g.Go(func() error {
			f.Lookup(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	utils.Debugf("频道缓存预热完成: %d个频道, 缓存共%d条", len(seen), f.cache.Len())
}

// Enrich 为记录填充订阅数与handle
// 先完成预热,再逐条赋值; 赋值阶段只读缓存
func (f *Fetcher) Enrich(ctx context.Context, records []models.RawRecord) []models.RawRecord {
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.ChannelURL)
	}
	f.WarmUp(ctx, urls)

	for i := range records {
		r := &records[i]
		if r.ChannelURL == "" {
			r.Subscribers = ""
			continue
		}
		info := f.Lookup(ctx, r.ChannelURL)
		r.Subscribers = info.Subscribers
		if r.ChannelHandle == "" && info.Handle != "" {
			r.ChannelHandle = info.Handle
		}
	}
	return records
}
