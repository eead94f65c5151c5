package models

// VideoRecord 单条搜索结果的最终输出形态
// 字段顺序即导出顺序,不允许额外字段
type VideoRecord struct {
	Title         string `json:"title"`         // 视频标题(完整文本)
	Channel       string `json:"channel"`       // 频道名称
	ChannelHandle string `json:"channelHandle"` // 频道handle,以@开头,无法获取时为空
	Subscribers   string `json:"subscribers"`   // 订阅数文本,如 "1.2M subscribers"
	Views         string `json:"views"`         // 播放量文本
	Length        string `json:"length"`        // 时长,直播等无时长时为空
	UploadDate    string `json:"uploadDate"`    // 相对上传时间,如 "3 weeks ago"
	VideoID       string `json:"videoId"`       // watch/shorts链接中的视频ID
}

// RawRecord 抽取阶段的候选记录
// 比VideoRecord多出链接字段,仅在流水线内部使用
type RawRecord struct {
	VideoRecord

	URL        string `json:"-"` // 标题链接(绝对地址)
	ChannelURL string `json:"-"` // 频道链接(绝对地址),页面未给出时为空
}

// IdentityKey 去重键: 优先videoId,其次标题链接
func (r RawRecord) IdentityKey() string {
	if r.VideoID != "" {
		return r.VideoID
	}
	return r.URL
}

// ChannelInfo 频道补全结果
type ChannelInfo struct {
	Subscribers string `json:"subscribers"`
	Handle      string `json:"handle"`
}

// Complete 两个字段是否都已获取
func (c ChannelInfo) Complete() bool {
	return c.Subscribers != "" && c.Handle != ""
}

// Project 将候选记录投影为输出形态
func Project(raw []RawRecord) []VideoRecord {
	out := make([]VideoRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.VideoRecord)
	}
	return out
}
