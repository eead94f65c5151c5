package models

// ExportEntry 导出列表中的一条记录
type ExportEntry struct {
	VideoRecord

	AddedAt    string `json:"addedAt"`              // 加入时间(RFC3339)
	BatchQuery string `json:"batchQuery,omitempty"` // 批量任务中产生该记录的搜索词
}
