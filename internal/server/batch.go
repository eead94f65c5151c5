package server

import (
	"sync"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// maxBatchEvents 保留的状态消息条数
const maxBatchEvents = 100

// BatchStatus 最近一次批量任务的状态
type BatchStatus struct {
	Running bool                    `json:"running"`
	Events  []models.StatusEvent    `json:"events"`
	Summary *models.CampaignSummary `json:"summary,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// BatchTracker 收集批量任务的状态消息,供 GET /api/batch 查询
// Record 可直接作为 core.StatusFunc 传给 CampaignRunner
type BatchTracker struct {
	mu     sync.RWMutex
	status BatchStatus
}

// NewBatchTracker 创建状态收集器
func NewBatchTracker() *BatchTracker {
	return &BatchTracker{}
}

// Begin 新任务开始,清空上一次的状态
func (t *BatchTracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = BatchStatus{Running: true}
}

// Record 追加一条状态消息
func (t *BatchTracker) Record(ev models.StatusEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Events = append(t.status.Events, ev)
	if n := len(t.status.Events); n > maxBatchEvents {
		t.status.Events = append([]models.StatusEvent(nil), t.status.Events[n-maxBatchEvents:]...)
	}
}

// Finish 任务结束
func (t *BatchTracker) Finish(summary *models.CampaignSummary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.Summary = summary
	if err != nil {
		t.status.Error = err.Error()
	}
}

// Snapshot 当前状态的副本
func (t *BatchTracker) Snapshot() BatchStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.status
	out.Events = append([]models.StatusEvent{}, t.status.Events...)
	return out
}
