package models

import "context"

// ResultNode 页面快照中的一个元素
// 所有读取方法在找不到目标时返回空值,不返回错误
type ResultNode interface {
	// Has 子树中是否存在匹配selector的元素
	Has(selector string) bool

	// Within 是否嵌套在匹配selector的祖先元素内
	Within(ancestor string) bool

	// Text 第一个匹配元素的文本(已trim); selector为空时取自身
	Text(selector string) string

	// Texts 第一个匹配元素的各个子元素文本(已trim)
	Texts(selector string) []string

	// Href 第一个匹配元素的绝对链接
	Href(selector string) string
}

// PageQuery 页面查询能力
// 提取器只依赖此接口,测试时可用HTML夹具替代真实页面
type PageQuery interface {
	// Find 按文档顺序返回匹配selector的元素
	Find(selector string) []ResultNode
}

// Page 浏览器标签页能力: 定位、导航、滚动、快照
type Page interface {
	URL(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	ScrollToBottom(ctx context.Context, smooth bool) error
	ScrollToTop(ctx context.Context) error
	Snapshot(ctx context.Context) (PageQuery, error)
}

// TextFetcher 网络抓取能力,返回页面原始文本
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}
