package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCampaignCount = 20  // 每个搜索词的默认目标数量
	MinCampaignCount     = 1   // 目标数量下限
	MaxCampaignCount     = 100 // 目标数量上限
)

var (
	// ErrNoQueries 未提供任何搜索词
	ErrNoQueries = errors.New("请至少输入一个搜索词")

	// ErrCountOutOfRange 目标数量越界
	ErrCountOutOfRange = fmt.Errorf("目标数量必须在%d-%d之间", MinCampaignCount, MaxCampaignCount)
)

// CampaignRequest 批量抓取请求
type CampaignRequest struct {
	Queries []string `json:"queries" yaml:"queries"`
	Count   int      `json:"count" yaml:"count"`
}

// Normalize 清理搜索词并校验目标数量
// 空行被丢弃; Count为0时取默认值
func (r CampaignRequest) Normalize() (CampaignRequest, error) {
	queries := make([]string, 0, len(r.Queries))
	for _, q := range r.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return r, ErrNoQueries
	}

	count := r.Count
	if count == 0 {
		count = DefaultCampaignCount
	}
	if count < MinCampaignCount || count > MaxCampaignCount {
		return r, fmt.Errorf("%w,当前值: %d", ErrCountOutOfRange, count)
	}

	return CampaignRequest{Queries: queries, Count: count}, nil
}

// StatusLevel 状态消息级别
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusSuccess StatusLevel = "success"
	StatusError   StatusLevel = "error"
)

// StatusEvent 批量任务状态消息
type StatusEvent struct {
	Level   StatusLevel `json:"level"`
	Message string      `json:"message"`
	Index   int         `json:"index"` // 当前搜索词序号(从1开始),0表示整体状态
	Total   int         `json:"total"`
	At      time.Time   `json:"at"`
}

// QueryResult 单个搜索词的处理结果
type QueryResult struct {
	Query    string  `json:"query"`
	Found    int     `json:"found"`
	Added    int     `json:"added"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration"` // 秒
}

// CampaignSummary 批量任务摘要
type CampaignSummary struct {
	ID         string        `json:"id"`
	Queries    int           `json:"queries"`
	Count      int           `json:"count"`
	TotalFound int           `json:"totalFound"`
	TotalAdded int           `json:"totalAdded"`
	Results    []QueryResult `json:"results"`
	Data       []VideoRecord `json:"-"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   float64       `json:"duration"` // 秒
}
