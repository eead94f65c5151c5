package models

import "errors"

// Command 命令名称
type Command string

const (
	CmdScrapeVisible   Command = "SCRAPE_VISIBLE"    // 优先返回缓存
	CmdScrapeFresh     Command = "SCRAPE_FRESH"      // 总是重新抓取
	CmdScrollAndScrape Command = "SCROLL_AND_SCRAPE" // 自动滚动后抓取
	CmdGetAutoData     Command = "GET_AUTO_DATA"     // 只读缓存
	CmdStartAutoScroll Command = "START_AUTO_SCROLL" // 启动连续滚动
	CmdStopAutoScroll  Command = "STOP_AUTO_SCROLL"  // 停止连续滚动
	CmdGetCurrentData  Command = "GET_CURRENT_DATA"  // 只读缓存
)

// NeedsResultsPage 是否需要当前页面是搜索结果页
// 只读命令、停止滚动和未知命令不受页面限制
func (c Command) NeedsResultsPage() bool {
	switch c {
	case CmdScrapeVisible, CmdScrapeFresh, CmdScrollAndScrape, CmdStartAutoScroll:
		return true
	}
	return false
}

var (
	// ErrUnknownCommand 未知命令
	ErrUnknownCommand = errors.New("Unknown command")

	// ErrNotSearchPage 当前页面不是搜索结果页
	ErrNotSearchPage = errors.New("Not on YouTube search page")
)

// CommandRequest 命令请求
// 数值参数为nil时使用默认值
type CommandRequest struct {
	Cmd         Command `json:"cmd"`
	StallRounds *int    `json:"stallRounds,omitempty"`
	DelayMs     *int    `json:"delayMs,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`
}

// CommandResponse 命令响应,每个请求恰好应答一次
type CommandResponse struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// OKResponse 构造成功响应; records为nil时返回空数组
func OKResponse(records []VideoRecord) CommandResponse {
	if records == nil {
		records = []VideoRecord{}
	}
	return CommandResponse{OK: true, Data: records}
}

// ErrorResponse 构造失败响应
func ErrorResponse(err error) CommandResponse {
	return CommandResponse{OK: false, Error: err.Error()}
}
