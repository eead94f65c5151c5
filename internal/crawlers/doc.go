// Package crawlers 浏览器会话与网络抓取
//
// # 概述
//
// crawlers包把go-rod驱动的Chromium标签页包装成 models.Page,
// 并提供两种频道页抓取方式(models.TextFetcher)以及自动滚动驱动。
//
// # 核心组件
//
// ## Browser / BrowserPage
//
// LaunchBrowser 在启动前用 ResourceMonitor 检查可用内存,
// 之后按配置启动Chromium(无头模式、沙箱、用户数据目录)。
// BrowserPage 负责导航、滚动和HTML快照,快照交给 extractor 解析。
//
//	browser, err := LaunchBrowser(cfg.Browser, headerManager)
//	if err != nil { /* 处理错误 */ }
//	defer browser.Close()
//
//	page, err := browser.NewPage(ctx)
//	err = page.Navigate(ctx, "https://www.youtube.com/results?search_query=lofi")
//
// ## HTTPFetcher / BrowserFetcher
//
// HTTPFetcher 基于Colly,共享一个带Cookie容器的http.Client,
// 自动处理 gzip / deflate / br 三种压缩。
// BrowserFetcher 在页面内执行 fetch(credentials: include),沿用浏览器登录态。
//
// ## AutoScroller
//
// 反复滚动到底部,直到结果卡片数量连续 stallRounds 轮不再增长,
// 或达到 maxItems。结束后滚回顶部并等待页面稳定。
//
//	s := NewAutoScroller(page, DefaultSettleDelay)
//	rounds, err := s.Run(ctx, 3, 1200*time.Millisecond, 0)
//
// # 并发安全
//
//   - HTTPFetcher: 每次调用创建独立的Collector,可并发使用
//   - BrowserFetcher: 同一标签页上的多个Eval互不影响
//   - ResourceMonitor: sync.RWMutex
//   - AutoScroller: 单次Run内串行,不应在同一页面上并发运行
package crawlers
