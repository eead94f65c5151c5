package enrich

import (
	"regexp"
	"strings"
	"sync"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

var channelSubpage = regexp.MustCompile(`(?i)/(videos|about|streams|playlists|featured)/?$`)

// Canonicalize 去掉频道链接末尾的子页路径,作为缓存键
func Canonicalize(channelURL string) string {
	return channelSubpage.ReplaceAllString(channelURL, "")
}

// AboutURL 频道的 about 子页地址
func AboutURL(canonical string) string {
	return strings.TrimSuffix(canonical, "/") + "/about"
}

// Cache 频道补全缓存
// 进程内共享,只增不减; 失败结果同样缓存,会话内不重试
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.ChannelInfo
}

// NewCache 创建缓存
func NewCache() *Cache {
	return &Cache{entries: make(map[string]models.ChannelInfo)}
}

// Get 按规范化地址读取
func (c *Cache) Get(canonical string) (models.ChannelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.entries[canonical]
	return info, ok
}

// Set 写入
func (c *Cache) Set(canonical string, info models.ChannelInfo) {
	c.mu.Lock()
	c.entries[canonical] = info
	c.mu.Unlock()
}

// Len 条目数
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
