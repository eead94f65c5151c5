package core

import (
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/RecoveryAshes/ytscraper/internal/enrich"
	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// Session 单个页面的会话状态
//
// 持有当前跟踪的URL、最近一次抓取结果以及连续滚动的运行标记。
// 频道缓存跨导航共享,Reset 不会清空它。
type Session struct {
	id    string
	cache *enrich.Cache

	mu        sync.RWMutex
	url       string
	result    []models.VideoRecord
	hasResult bool
	scroll    *scrollToken // 连续滚动运行中时非nil
}

// NewSession 创建会话; cache为nil时新建一个
func NewSession(cache *enrich.Cache) *Session {
	if cache == nil {
		cache = enrich.NewCache()
	}
	return &Session{
		id:    uuid.NewString(),
		cache: cache,
	}
}

// ID 会话ID
func (s *Session) ID() string {
	return s.id
}

// Cache 频道缓存
func (s *Session) Cache() *enrich.Cache {
	return s.cache
}

// URL 当前跟踪的URL
func (s *Session) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Reset URL变化时重新初始化: 清空结果并记录新URL
// 连续滚动标记不受影响,只有启动/停止命令会改变它
func (s *Session) Reset(pageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = pageURL
	s.result = nil
	s.hasResult = false
}

// Store 保存pageURL上的抓取结果(覆盖,不合并)
// pageURL已不是当前跟踪的URL时丢弃,返回false
func (s *Session) Store(pageURL string, records []models.VideoRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pageURL != s.url {
		return false
	}
	s.result = records
	s.hasResult = true
	return true
}

// Discard 清空pageURL上的结果; pageURL已过期时不做任何事
func (s *Session) Discard(pageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pageURL != s.url {
		return
	}
	s.result = nil
	s.hasResult = false
}

// Replace 无条件替换结果,批量任务结束时使用
func (s *Session) Replace(records []models.VideoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = records
	s.hasResult = true
}

// Data 最近一次结果; 没有结果时ok为false
func (s *Session) Data() ([]models.VideoRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasResult {
		return nil, false
	}
	out := make([]models.VideoRecord, len(s.result))
	copy(out, s.result)
	return out, true
}

// DataOrEmpty 最近一次结果,没有时返回空切片
func (s *Session) DataOrEmpty() []models.VideoRecord {
	data, ok := s.Data()
	if !ok || data == nil {
		return []models.VideoRecord{}
	}
	return data
}

// AutoScrollActive 连续滚动是否在运行
func (s *Session) AutoScrollActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scroll != nil
}

// beginScroll 登记新的连续滚动; 已在运行时返回false
func (s *Session) beginScroll() (*scrollToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scroll != nil {
		return nil, false
	}
	s.scroll = newScrollToken()
	return s.scroll, true
}

// endScroll 取消当前连续滚动; 未运行时返回false
func (s *Session) endScroll() bool {
	s.mu.Lock()
	token := s.scroll
	s.scroll = nil
	s.mu.Unlock()

	if token == nil {
		return false
	}
	token.cancel()
	return true
}

// releaseScroll 循环退出时清除仍指向token的运行标记
func (s *Session) releaseScroll(token *scrollToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scroll == token {
		s.scroll = nil
	}
}

// IsSearchResultsURL 是否是搜索结果页: youtube.com或其子域名下的 /results
func IsSearchResultsURL(rawURL string) bool {
	u, ok := parseYouTubeURL(rawURL)
	return ok && strings.TrimSuffix(u.Path, "/") == "/results"
}

// IsYouTubeURL 是否在youtube.com及其子域名下
func IsYouTubeURL(rawURL string) bool {
	_, ok := parseYouTubeURL(rawURL)
	return ok
}

func parseYouTubeURL(rawURL string) (*url.URL, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	if host != "youtube.com" && !strings.HasSuffix(host, ".youtube.com") {
		return nil, false
	}
	return u, true
}
