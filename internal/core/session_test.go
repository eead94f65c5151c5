package core

import (
	"testing"

	"github.com/RecoveryAshes/ytscraper/internal/enrich"
	"github.com/RecoveryAshes/ytscraper/internal/models"
)

func TestIsSearchResultsURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"搜索结果页", "https://www.youtube.com/results?search_query=lofi", true},
		{"无www", "https://youtube.com/results?search_query=a", true},
		{"移动版", "https://m.youtube.com/results?search_query=a", true},
		{"首页", "https://www.youtube.com/", false},
		{"播放页", "https://www.youtube.com/watch?v=abc", false},
		{"仿冒域名", "https://notyoutube.com/results?search_query=a", false},
		{"路径中含results", "https://example.com/youtube.com/results", false},
		{"空字符串", "", false},
		{"非法URL", "://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSearchResultsURL(tt.url); got != tt.want {
				t.Errorf("期望 %v,实际 %v", tt.want, got)
			}
		})
	}
}

func TestSession_StoreGuard(t *testing.T) {
	s := NewSession(nil)
	s.Reset("https://www.youtube.com/results?search_query=a")

	records := []models.VideoRecord{{VideoID: "x"}}
	if !s.Store("https://www.youtube.com/results?search_query=a", records) {
		t.Fatal("当前URL的结果应该被保存")
	}

	s.Reset("https://www.youtube.com/results?search_query=b")
	if _, ok := s.Data(); ok {
		t.Error("Reset后结果应被清空")
	}
	if s.Store("https://www.youtube.com/results?search_query=a", records) {
		t.Error("过期页面的结果不应被保存")
	}
	if _, ok := s.Data(); ok {
		t.Error("过期结果不应覆盖当前页面")
	}
}

func TestSession_StoreOverwrites(t *testing.T) {
	s := NewSession(nil)
	s.Reset(resultsURL)
	s.Store(resultsURL, []models.VideoRecord{{VideoID: "a"}, {VideoID: "b"}})
	s.Store(resultsURL, []models.VideoRecord{{VideoID: "c"}})

	data, ok := s.Data()
	if !ok || len(data) != 1 || data[0].VideoID != "c" {
		t.Errorf("期望结果被整体覆盖为 [c],实际 %+v", data)
	}

	s.Discard("https://www.youtube.com/other")
	if _, ok := s.Data(); !ok {
		t.Error("过期URL的Discard不应清空结果")
	}
	s.Discard(resultsURL)
	if got := s.DataOrEmpty(); got == nil || len(got) != 0 {
		t.Errorf("期望空切片,实际 %#v", got)
	}
}

func TestSession_ResetKeepsCacheAndScrollFlag(t *testing.T) {
	cache := enrich.NewCache()
	cache.Set("https://www.youtube.com/@a", models.ChannelInfo{Handle: "@a"})
	s := NewSession(cache)

	token, ok := s.beginScroll()
	if !ok {
		t.Fatal("第一次beginScroll应成功")
	}
	if _, ok := s.beginScroll(); ok {
		t.Error("运行中不应重复启动")
	}

	s.Reset("https://www.youtube.com/results?search_query=new")
	if !s.AutoScrollActive() {
		t.Error("Reset不应改变连续滚动标记")
	}
	if s.Cache().Len() != 1 {
		t.Error("Reset不应清空频道缓存")
	}

	if !s.endScroll() {
		t.Error("endScroll应返回true")
	}
	if !token.cancelled() {
		t.Error("令牌应已取消")
	}
	if s.endScroll() {
		t.Error("重复停止应返回false")
	}
}

func TestSession_Replace(t *testing.T) {
	s := NewSession(nil)
	s.Reset(resultsURL)
	s.Replace([]models.VideoRecord{{VideoID: "batch"}})
	data, ok := s.Data()
	if !ok || len(data) != 1 {
		t.Fatalf("期望1条,实际 %+v", data)
	}
	if s.ID() == "" {
		t.Error("会话ID不应为空")
	}
}
