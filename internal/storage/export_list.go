package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/models"
)

const (
	// ExportListKey 导出列表在存储中的键
	ExportListKey = "youtube_scraper_export_list"

	// DownloadFilename 下载文件名
	DownloadFilename = "youtube_search.json"
)

// ExportList 跨会话累积的导出列表
// 只支持追加和整体清空; 同一videoId只会出现一次
type ExportList struct {
	kv  KV
	now func() time.Time

	mu      sync.Mutex
	entries []models.ExportEntry
	ids     map[string]struct{}
}

// NewExportList 创建导出列表,调用 Load 后才会读取已保存的内容
func NewExportList(kv KV) *ExportList {
	return &ExportList{
		kv:  kv,
		now: time.Now,
		ids: make(map[string]struct{}),
	}
}

// Load 从存储重新加载; 键不存在时为空列表
func (l *ExportList) Load(ctx context.Context) error {
	raw, ok, err := l.kv.Get(ctx, ExportListKey)
	if err != nil {
		return fmt.Errorf("读取导出列表失败: %w", err)
	}

	var entries []models.ExportEntry
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("解析导出列表失败: %w", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.ids = make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.VideoID != "" {
			l.ids[e.VideoID] = struct{}{}
		}
	}
	metrics.ExportListSize.Set(float64(len(entries)))
	return nil
}

// Entries 返回当前列表的副本
func (l *ExportList) Entries() []models.ExportEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.ExportEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count 条目数
func (l *ExportList) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Contains videoId是否已在列表中
func (l *ExportList) Contains(videoID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[videoID]
	return ok
}

// NewItems 过滤出可以加入列表的记录
// 没有videoId的记录、已在列表中的记录以及输入内重复的记录都被丢弃
func (l *ExportList) NewItems(records []models.VideoRecord) []models.VideoRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newItemsLocked(records)
}

func (l *ExportList) newItemsLocked(records []models.VideoRecord) []models.VideoRecord {
	seen := make(map[string]struct{}, len(records))
	var out []models.VideoRecord
	for _, r := range records {
		if r.VideoID == "" {
			continue
		}
		if _, dup := l.ids[r.VideoID]; dup {
			continue
		}
		if _, dup := seen[r.VideoID]; dup {
			continue
		}
		seen[r.VideoID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Append 追加新记录并持久化,返回实际加入的条目
// 同一次调用加入的条目共用一个 addedAt; 持久化失败时列表保持不变
func (l *ExportList) Append(ctx context.Context, records []models.VideoRecord, batchQuery string) ([]models.ExportEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := l.newItemsLocked(records)
	if len(fresh) == 0 {
		return nil, nil
	}

	addedAt := l.now().UTC().Format(time.RFC3339)
	added := make([]models.ExportEntry, 0, len(fresh))
	for _, r := range fresh {
		added = append(added, models.ExportEntry{
			VideoRecord: r,
			AddedAt:     addedAt,
			BatchQuery:  batchQuery,
		})
	}

	next := make([]models.ExportEntry, 0, len(l.entries)+len(added))
	next = append(next, l.entries...)
	next = append(next, added...)
	if err := l.persist(ctx, next); err != nil {
		return nil, err
	}

	l.entries = next
	for _, e := range added {
		l.ids[e.VideoID] = struct{}{}
	}
	metrics.ExportListSize.Set(float64(len(next)))
	return added, nil
}

// Clear 清空列表
func (l *ExportList) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.persist(ctx, []models.ExportEntry{}); err != nil {
		return err
	}
	l.entries = nil
	l.ids = make(map[string]struct{})
	metrics.ExportListSize.Set(0)
	return nil
}

func (l *ExportList) persist(ctx context.Context, entries []models.ExportEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("序列化导出列表失败: %w", err)
	}
	if err := l.kv.Set(ctx, ExportListKey, raw); err != nil {
		return fmt.Errorf("保存导出列表失败: %w", err)
	}
	return nil
}

// WriteJSON 以两个空格缩进写出JSON数组; nil写出 []
func WriteJSON[T any](w io.Writer, records []T) error {
	if records == nil {
		records = []T{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("写出JSON失败: %w", err)
	}
	return nil
}
