package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCampaignRequest_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		req       CampaignRequest
		wantQs    []string
		wantCount int
		wantErr   error
	}{
		{"清理空行和空白", CampaignRequest{Queries: []string{" lofi ", "", "\t", "jazz"}, Count: 10}, []string{"lofi", "jazz"}, 10, nil},
		{"数量为0取默认值", CampaignRequest{Queries: []string{"a"}}, []string{"a"}, DefaultCampaignCount, nil},
		{"数量下限", CampaignRequest{Queries: []string{"a"}, Count: 1}, []string{"a"}, 1, nil},
		{"数量上限", CampaignRequest{Queries: []string{"a"}, Count: 100}, []string{"a"}, 100, nil},
		{"没有搜索词", CampaignRequest{Queries: []string{" ", ""}}, nil, 0, ErrNoQueries},
		{"nil搜索词", CampaignRequest{}, nil, 0, ErrNoQueries},
		{"数量超过上限", CampaignRequest{Queries: []string{"a"}, Count: 101}, nil, 0, ErrCountOutOfRange},
		{"数量为负", CampaignRequest{Queries: []string{"a"}, Count: -3}, nil, 0, ErrCountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Normalize()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("期望错误 %v,实际 %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("不期望错误: %v", err)
			}
			if strings.Join(got.Queries, "|") != strings.Join(tt.wantQs, "|") {
				t.Errorf("期望搜索词 %v,实际 %v", tt.wantQs, got.Queries)
			}
			if got.Count != tt.wantCount {
				t.Errorf("期望数量 %d,实际 %d", tt.wantCount, got.Count)
			}
		})
	}
}

func TestScrapeOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ScrapeOptions
		wantErr bool
	}{
		{"默认参数", DefaultScrapeOptions(), false},
		{"停滞轮数为0", ScrapeOptions{StallRounds: 0}, false},
		{"停滞轮数为负", ScrapeOptions{StallRounds: -1}, true},
		{"等待时间为负", ScrapeOptions{StallRounds: 1, DelayMs: -1}, true},
		{"最大条目为负", ScrapeOptions{StallRounds: 1, MaxItems: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("期望错误=%v,实际 %v", tt.wantErr, err)
			}
		})
	}
}

func TestScrollOptionsFrom(t *testing.T) {
	var req CommandRequest
	if err := json.Unmarshal([]byte(`{"cmd":"SCROLL_AND_SCRAPE","maxItems":50}`), &req); err != nil {
		t.Fatal(err)
	}

	opts := ScrollOptionsFrom(req)
	if !opts.Auto {
		t.Error("期望自动滚动")
	}
	if opts.StallRounds != DefaultStallRounds || opts.DelayMs != DefaultDelayMs {
		t.Errorf("缺省字段应取默认值,实际 %+v", opts)
	}
	if opts.MaxItems != 50 {
		t.Errorf("期望 maxItems=50,实际 %d", opts.MaxItems)
	}

	// 显式的0与缺省不同
	zero := 0
	opts = ScrollOptionsFrom(CommandRequest{DelayMs: &zero})
	if opts.DelayMs != 0 {
		t.Errorf("期望 delayMs=0,实际 %d", opts.DelayMs)
	}
}

func TestCommand_NeedsResultsPage(t *testing.T) {
	tests := []struct {
		cmd  Command
		want bool
	}{
		{CmdScrapeVisible, true},
		{CmdScrapeFresh, true},
		{CmdScrollAndScrape, true},
		{CmdStartAutoScroll, true},
		{CmdStopAutoScroll, false},
		{CmdGetAutoData, false},
		{CmdGetCurrentData, false},
		{Command("DANCE"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			if got := tt.cmd.NeedsResultsPage(); got != tt.want {
				t.Errorf("期望 %v,实际 %v", tt.want, got)
			}
		})
	}
}

func TestCommandResponse_JSON(t *testing.T) {
	tests := []struct {
		name string
		resp CommandResponse
		want string
	}{
		{"nil数据为空数组", OKResponse(nil), `{"ok":true,"data":[]}`},
		{"错误", ErrorResponse(ErrUnknownCommand), `{"ok":false,"error":"Unknown command"}`},
		{"无数据", CommandResponse{OK: true}, `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("期望 %s,实际 %s", tt.want, data)
			}
		})
	}
}

func TestExportEntry_JSON(t *testing.T) {
	entry := ExportEntry{
		VideoRecord: VideoRecord{Title: "t", VideoID: "abc"},
		AddedAt:     "2026-03-01T02:00:00Z",
	}
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	// 8个视频字段 + addedAt,batchQuery为空时省略
	if len(fields) != 9 {
		t.Errorf("期望9个字段,实际 %d: %s", len(fields), data)
	}
	if _, ok := fields["batchQuery"]; ok {
		t.Error("batchQuery为空时应省略")
	}
	if fields["videoId"] != "abc" {
		t.Errorf("期望展开的videoId,实际 %v", fields["videoId"])
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	h, err := CliHeaders{"X-A: 1", "Cookie:  a=b; c=d "}.Parse()
	if err != nil {
		t.Fatalf("不期望错误: %v", err)
	}
	if h.Get("X-A") != "1" || h.Get("Cookie") != "a=b; c=d" {
		t.Errorf("解析结果不符: %v", h)
	}

	for _, bad := range []string{"no-colon", ": value"} {
		if _, err := (CliHeaders{bad}).Parse(); err == nil {
			t.Errorf("期望 %q 解析失败", bad)
		}
	}
}
