package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONFileKV 所有键保存在一个JSON对象文件中
// 每次写入先写临时文件再重命名,进程崩溃不会留下半个文件
type JSONFileKV struct {
	path string

	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewJSONFileKV 打开或创建存储文件
func NewJSONFileKV(path string) (*JSONFileKV, error) {
	if path == "" {
		return nil, fmt.Errorf("存储文件路径为空")
	}
	kv := &JSONFileKV{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return kv, nil
	case err != nil:
		return nil, fmt.Errorf("读取存储文件失败 [%s]: %w", path, err)
	case len(raw) == 0:
		return kv, nil
	}

	if err := json.Unmarshal(raw, &kv.data); err != nil {
		return nil, fmt.Errorf("解析存储文件失败 [%s]: %w", path, err)
	}
	return kv, nil
}

func (kv *JSONFileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (kv *JSONFileKV) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("键 %s 的值不是合法JSON", key)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	prev, had := kv.data[key]
	kv.data[key] = append(json.RawMessage(nil), value...)
	if err := kv.flush(); err != nil {
		if had {
			kv.data[key] = prev
		} else {
			delete(kv.data, key)
		}
		return err
	}
	return nil
}

func (kv *JSONFileKV) flush() error {
	out, err := json.MarshalIndent(kv.data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化存储失败: %w", err)
	}

	dir := filepath.Dir(kv.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建存储目录失败 [%s]: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(kv.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, kv.path); err != nil {
		return fmt.Errorf("替换存储文件失败: %w", err)
	}
	return nil
}

func (kv *JSONFileKV) Close() error {
	return nil
}
