package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Browser.Headless {
		t.Error("期望默认无头模式")
	}
	if cfg.Scrape.StallRounds != 3 || cfg.Scrape.DelayMs != 1200 || cfg.Scrape.MaxItems != 0 {
		t.Errorf("期望滚动默认值 3/1200/0,实际 %+v", cfg.Scrape)
	}
	if cfg.Enrich.Transport != "http" || cfg.Enrich.Concurrency != 5 || cfg.Enrich.TimeoutSeconds != 30 {
		t.Errorf("补全默认值不符: %+v", cfg.Enrich)
	}
	if cfg.Campaign.StallRounds != 6 || cfg.Campaign.DelayMs != 2000 || cfg.Campaign.DefaultCount != 20 {
		t.Errorf("批量默认值不符: %+v", cfg.Campaign)
	}
	if cfg.Session.PollIntervalMs != 500 || cfg.Session.SettleDelayMs != 1500 {
		t.Errorf("会话默认值不符: %+v", cfg.Session)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应通过校验: %v", err)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
scrape:
  stall_rounds: 5
enrich:
  transport: browser
storage:
  driver: sqlite
  path: data/export.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("YTSCRAPER_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Scrape.StallRounds != 5 {
		t.Errorf("期望 stall_rounds=5,实际 %d", cfg.Scrape.StallRounds)
	}
	if cfg.Scrape.DelayMs != 1200 {
		t.Errorf("未设置的字段应取默认值,实际 %d", cfg.Scrape.DelayMs)
	}
	if cfg.Enrich.Transport != "browser" || cfg.Storage.Driver != "sqlite" {
		t.Errorf("期望 browser/sqlite,实际 %s/%s", cfg.Enrich.Transport, cfg.Storage.Driver)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("期望环境变量覆盖 server.addr,实际 %s", cfg.Server.Addr)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"未知补全方式", "enrich:\n  transport: carrier-pigeon\n"},
		{"停滞轮数为负", "scrape:\n  stall_rounds: -1\n"},
		{"补全并发数超过上限", "enrich:\n  concurrency: 6\n"},
		{"补全并发数为0", "enrich:\n  concurrency: 0\n"},
		{"未知存储驱动", "storage:\n  driver: redis\n"},
		{"批量数量越界", "campaign:\n  default_count: 500\n"},
		{"YAML语法错误", "scrape: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("期望返回错误")
			}
		})
	}
}

func TestHeaderManager_MergeOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.yaml")
	content := "headers:\n  Accept-Language: zh-CN\n  Cookie: CONSENT=YES+1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	hm, err := NewHeaderManager(path, []string{"Accept-Language: ja-JP", "X-Debug: 1"})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	headers, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("获取头部失败: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"User-Agent", DefaultUserAgent},
		{"Accept-Language", "ja-JP"},
		{"Cookie", "CONSENT=YES+1"},
		{"X-Debug", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headers.Get(tt.name); got != tt.want {
				t.Errorf("期望 %q,实际 %q", tt.want, got)
			}
		})
	}

	headers.Set("User-Agent", "mutated")
	again, _ := hm.GetHeaders()
	if again.Get("User-Agent") != DefaultUserAgent {
		t.Error("GetHeaders 应返回副本")
	}

	safe, err := hm.GetSafeHeaders()
	if err != nil {
		t.Fatal(err)
	}
	if safe["Cookie"] == "CONSENT=YES+1" {
		t.Error("Cookie 应被脱敏")
	}
}

func TestHeaderManager_InvalidCLIHeader(t *testing.T) {
	if _, err := NewStaticHeaderManager([]string{"no-colon"}); err == nil {
		t.Error("期望格式错误")
	}

	hm, err := NewStaticHeaderManager([]string{"Host: evil.example"})
	if err != nil {
		t.Fatalf("解析不应失败: %v", err)
	}
	if _, err := hm.GetHeaders(); err == nil {
		t.Error("期望禁止的头部校验失败")
	}

	hm, _ = NewStaticHeaderManager(nil)
	headers, err := hm.GetHeaders()
	if err != nil || headers.Get("Accept") == "" {
		t.Errorf("期望只有默认头部,实际 %v %v", headers, err)
	}
}
