package extractor

import (
	"net/url"
	"strings"
)

// SplitMetadata 把元数据行拆成播放量和上传时间
//
// 含 "view"(不区分大小写)的一项视为播放量,另一项视为上传时间。
// 两项都不含 "view" 时按位置分配: 第0项播放量,第1项上传时间。
// 只有一项时按是否含 "view" 归类,默认归为上传时间。
func SplitMetadata(parts []string) (views, uploadDate string) {
	switch {
	case len(parts) >= 2:
		idx := -1
		for i, p := range parts {
			if isViewText(p) {
				idx = i
				break
			}
		}
		if idx == -1 {
			return parts[0], parts[1]
		}

		views = parts[idx]
		if idx == 0 {
			uploadDate = parts[1]
		} else {
			uploadDate = parts[0]
		}
		if uploadDate == "" {
			for i, p := range parts {
				if i != idx && p != "" {
					uploadDate = p
					break
				}
			}
		}
		return views, uploadDate

	case len(parts) == 1:
		if isViewText(parts[0]) {
			return parts[0], ""
		}
		return "", parts[0]
	}
	return "", ""
}

func isViewText(s string) bool {
	return strings.Contains(strings.ToLower(s), "view")
}

// VideoID 从视频链接中取出ID
// /watch 路由取 v 参数, /shorts/ 路由取其后的路径段,其余情况和非法URL返回空串
func VideoID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	switch {
	case strings.HasPrefix(u.Path, "/watch"):
		return u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/shorts/"), "/")
		return id
	}
	return ""
}

// ChannelHandle 从频道链接推导handle
// /@X -> @X; /c/X 与 /user/X -> @X; /channel/<ID> 无法推导,返回空串
func ChannelHandle(channelURL string) string {
	if channelURL == "" {
		return ""
	}
	u, err := url.Parse(channelURL)
	if err != nil {
		return ""
	}
	path := u.Path

	switch {
	case strings.HasPrefix(path, "/@"):
		segment, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
		if segment == "@" {
			return ""
		}
		return segment
	case strings.HasPrefix(path, "/c/"):
		return prefixedSegment(strings.TrimPrefix(path, "/c/"))
	case strings.HasPrefix(path, "/user/"):
		return prefixedSegment(strings.TrimPrefix(path, "/user/"))
	}
	return ""
}

func prefixedSegment(rest string) string {
	name, _, _ := strings.Cut(rest, "/")
	if name == "" {
		return ""
	}
	return "@" + name
}
