// Package storage 导出列表的持久化
//
// 导出列表整体序列化为一个JSON文档,存放在键值存储的单个键下。
// 后端可以是单个JSON文件,也可以是SQLite数据库。
package storage

import (
	"context"
	"fmt"
	"sync"
)

// KV 最小键值存储
type KV interface {
	// Get 读取键; 不存在时ok为false
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set 写入键,覆盖旧值
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open 按驱动名打开存储
func Open(driver, path string) (KV, error) {
	switch driver {
	case "", "json":
		return NewJSONFileKV(path)
	case "sqlite":
		return NewSQLiteKV(path)
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", driver)
	}
}

// MemoryKV 内存存储,用于测试和不需要持久化的场景
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV 创建内存存储
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}
