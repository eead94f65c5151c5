// Package extractor 从搜索结果页快照中抽取视频记录
//
// 抽取是只读的纯函数: 输入 models.PageQuery,输出候选记录。
// 缺失的节点得到空字段,不会中断整个抽取过程。
package extractor

import (
	"github.com/RecoveryAshes/ytscraper/internal/models"
)

const (
	selVideoRenderer = "ytd-video-renderer"
	selRichItem      = "ytd-rich-item-renderer"
	selAdSlot        = "ytd-ad-slot-renderer"
	selTitleLink     = "a#video-title"
	selChannelLink   = "ytd-channel-name a"
	selMetadataLine  = "#metadata-line"
	selDuration      = "ytd-thumbnail-overlay-time-status-renderer span"
	selDurationAlt   = "span.ytd-thumbnail-overlay-time-status-renderer"
)

// FindResultNodes 返回合格的结果节点
// 经典结果卡片在前,带标题链接的网格卡片在后,广告容器内的节点全部排除
func FindResultNodes(q models.PageQuery) []models.ResultNode {
	var nodes []models.ResultNode
	nodes = append(nodes, q.Find(selVideoRenderer)...)
	for _, n := range q.Find(selRichItem) {
		if n.Has(selTitleLink) {
			nodes = append(nodes, n)
		}
	}

	result := nodes[:0]
	for _, n := range nodes {
		if !n.Within(selAdSlot) {
			result = append(result, n)
		}
	}
	return result
}

// CountResultNodes 合格节点数量,供自动滚动衡量进度
func CountResultNodes(q models.PageQuery) int {
	return len(FindResultNodes(q))
}

// Extract 对每个合格节点抽取一条候选记录,保持页面顺序
func Extract(q models.PageQuery) []models.RawRecord {
	nodes := FindResultNodes(q)
	records := make([]models.RawRecord, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, extractNode(n))
	}
	return records
}

func extractNode(n models.ResultNode) models.RawRecord {
	views, uploadDate := SplitMetadata(n.Texts(selMetadataLine))

	var duration string
	if n.Has(selDuration) {
		duration = n.Text(selDuration)
	} else {
		duration = n.Text(selDurationAlt)
	}

	link := n.Href(selTitleLink)
	channelURL := n.Href(selChannelLink)

	return models.RawRecord{
		VideoRecord: models.VideoRecord{
			Title:         n.Text(selTitleLink),
			Channel:       n.Text(selChannelLink),
			ChannelHandle: ChannelHandle(channelURL),
			Views:         views,
			Length:        duration,
			UploadDate:    uploadDate,
			VideoID:       VideoID(link),
		},
		URL:        link,
		ChannelURL: channelURL,
	}
}
