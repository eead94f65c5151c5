package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/extractor"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/storage"
)

const resultsURL = "https://www.youtube.com/results?search_query=lofi"

// stubPage 按URL返回固定数量结果的页面
type stubPage struct {
	mu      sync.Mutex
	url     string
	results map[string]int
}

func (p *stubPage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *stubPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	return nil
}

func (p *stubPage) ScrollToBottom(ctx context.Context, smooth bool) error { return nil }

func (p *stubPage) ScrollToTop(ctx context.Context) error { return nil }

func (p *stubPage) Snapshot(ctx context.Context) (models.PageQuery, error) {
	p.mu.Lock()
	url, n := p.url, p.results[p.url]
	p.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html><body><ytd-item-section-renderer>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<ytd-video-renderer><a id="video-title" href="/watch?v=v%02d">Video <%d></a>`, i, i)
		b.WriteString(`<div id="metadata-line"><span>10 views</span><span>1 day ago</span></div></ytd-video-renderer>`)
	}
	b.WriteString("</ytd-item-section-renderer></body></html>")
	return extractor.NewDocument(b.String(), url)
}

type fixture struct {
	page    *stubPage
	session *core.Session
	exports *storage.ExportList
	tracker *BatchTracker
	server  *Server
}

func newFixture(t *testing.T, startURL string) *fixture {
	t.Helper()
	f := &fixture{
		page:    &stubPage{url: startURL, results: map[string]int{resultsURL: 3}},
		session: core.NewSession(nil),
		exports: storage.NewExportList(storage.NewMemoryKV()),
		tracker: NewBatchTracker(),
	}
	scraper := core.NewScraper(f.page, nil, 0)
	continuous := core.NewContinuousScroller(context.Background(), f.session, scraper, models.SessionConfig{
		ContinuousSettleMs:   1,
		ContinuousIntervalMs: 1,
	})
	t.Cleanup(func() {
		continuous.Stop()
		continuous.Wait()
	})

	runner := core.NewCampaignRunner(scraper, f.exports, f.session, models.CampaignConfig{StallRounds: 1}, f.tracker.Record)
	f.server = New(context.Background(), Deps{
		Dispatcher: core.NewDispatcher(f.session, scraper, continuous),
		Page:       f.page,
		Exports:    f.exports,
		Campaigns:  runner,
		Tracker:    f.tracker,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *fixture) command(t *testing.T, cmd models.Command) models.CommandResponse {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/command", fmt.Sprintf(`{"cmd":%q}`, cmd))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out models.CommandResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, resultsURL)

	resp, body := f.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, _ = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommand(t *testing.T) {
	t.Run("抓取并读取缓存", func(t *testing.T) {
		f := newFixture(t, resultsURL)

		out := f.command(t, models.CmdScrapeFresh)
		require.True(t, out.OK, out.Error)
		assert.Len(t, out.Data, 3)

		out = f.command(t, models.CmdGetCurrentData)
		require.True(t, out.OK)
		assert.Len(t, out.Data, 3)
	})

	t.Run("未知命令", func(t *testing.T) {
		f := newFixture(t, resultsURL)
		out := f.command(t, "DANCE")
		assert.False(t, out.OK)
		assert.Equal(t, "Unknown command", out.Error)
	})

	t.Run("不在搜索结果页", func(t *testing.T) {
		f := newFixture(t, "https://www.youtube.com/watch?v=abc")
		out := f.command(t, models.CmdScrapeFresh)
		assert.False(t, out.OK)
		assert.Equal(t, models.ErrNotSearchPage.Error(), out.Error)

		out = f.command(t, models.CmdStartAutoScroll)
		assert.Equal(t, models.ErrNotSearchPage.Error(), out.Error)

		// 停止滚动和只读命令不受页面限制
		out = f.command(t, models.CmdStopAutoScroll)
		assert.True(t, out.OK)
		for _, cmd := range []models.Command{models.CmdGetAutoData, models.CmdGetCurrentData} {
			out = f.command(t, cmd)
			assert.True(t, out.OK, string(cmd))
			assert.Equal(t, []any{}, out.Data, string(cmd))
		}

		// 未知命令照常返回Unknown command
		out = f.command(t, models.Command("DANCE"))
		assert.False(t, out.OK)
		assert.Equal(t, models.ErrUnknownCommand.Error(), out.Error)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		f := newFixture(t, resultsURL)
		resp, body := f.do(t, http.MethodPost, "/api/command", "{")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), `"ok":false`)
	})
}

func TestExportEndpoints(t *testing.T) {
	f := newFixture(t, resultsURL)

	// 没有数据时不能追加
	resp, _ := f.do(t, http.MethodPost, "/api/export/append", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.True(t, f.command(t, models.CmdScrapeFresh).OK)

	resp, body := f.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":0,"entries":[],"newItems":3}`, string(body))

	resp, body = f.do(t, http.MethodPost, "/api/export/append", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"added":3,"total":3}`, string(body))

	// 再次追加不会重复
	_, body = f.do(t, http.MethodPost, "/api/export/append", "")
	assert.JSONEq(t, `{"ok":true,"added":0,"total":3}`, string(body))

	resp, body = f.do(t, http.MethodGet, "/api/export/download", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), DownloadFilename)
	assert.Contains(t, string(body), "Video <0>", "下载内容不应转义HTML")
	var records []models.VideoRecord
	require.NoError(t, json.Unmarshal(body, &records))
	assert.Len(t, records, 3)

	resp, _ = f.do(t, http.MethodDelete, "/api/export", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, f.exports.Count())
}

func TestDownload_NoData(t *testing.T) {
	f := newFixture(t, resultsURL)
	resp, _ := f.do(t, http.MethodGet, "/api/export/download", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBatchEndpoints(t *testing.T) {
	t.Run("参数校验", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"没有搜索词", `{"queries":["  "]}`},
			{"数量越界", `{"queries":["a"],"count":500}`},
			{"格式错误", `{"queries":`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t, resultsURL)
				resp, _ := f.do(t, http.MethodPost, "/api/batch", tt.body)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		}
	})

	t.Run("启动并完成", func(t *testing.T) {
		f := newFixture(t, resultsURL)
		f.page.results[core.SearchURL("jazz")] = 2

		resp, body := f.do(t, http.MethodPost, "/api/batch", `{"queries":["jazz"],"count":2}`)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.JSONEq(t, `{"ok":true,"queries":1,"count":2}`, string(body))

		require.Eventually(t, func() bool {
			return !f.tracker.Snapshot().Running
		}, 2*time.Second, 5*time.Millisecond)

		status := f.tracker.Snapshot()
		require.NotNil(t, status.Summary)
		assert.Equal(t, 2, status.Summary.TotalAdded)
		assert.Empty(t, status.Error)
		assert.NotEmpty(t, status.Events)
		assert.Equal(t, 2, f.exports.Count())

		_, body = f.do(t, http.MethodGet, "/api/batch", "")
		var got BatchStatus
		require.NoError(t, json.Unmarshal(body, &got))
		assert.False(t, got.Running)
		assert.Equal(t, models.StatusSuccess, got.Events[len(got.Events)-1].Level)
	})
}

func TestBatchTracker_KeepsRecentEvents(t *testing.T) {
	tr := NewBatchTracker()
	tr.Begin()
	for i := 0; i < maxBatchEvents+10; i++ {
		tr.Record(models.StatusEvent{Message: fmt.Sprint(i)})
	}
	snap := tr.Snapshot()
	require.Len(t, snap.Events, maxBatchEvents)
	assert.Equal(t, "10", snap.Events[0].Message)
	assert.True(t, snap.Running)

	tr.Finish(nil, context.Canceled)
	snap = tr.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, context.Canceled.Error(), snap.Error)
}
