package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/ytscraper/internal/enrich"
	"github.com/RecoveryAshes/ytscraper/internal/extractor"
	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// fakeVideo 夹具页面上的一个结果卡片
type fakeVideo struct {
	id      string
	title   string
	channel string // 频道路径,如 /@name 或 /channel/UC1
	meta    []string
}

func vids(prefix string, n int) []fakeVideo {
	out := make([]fakeVideo, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fakeVideo{
			id:    fmt.Sprintf("%s%02d", prefix, i),
			title: fmt.Sprintf("%s video %d", prefix, i),
			meta:  []string{fmt.Sprintf("%d views", i*100), "1 day ago"},
		})
	}
	return out
}

// fakePage 由HTML夹具驱动的页面
// perScroll>0时初始只显示perScroll个结果,每滚动一次多显示perScroll个
type fakePage struct {
	mu          sync.Mutex
	url         string
	results     map[string][]fakeVideo
	perScroll   int
	scrolls     int
	smooth      int
	navigations []string
	snapshotErr error
	snapshots   int
	urlErr      error
	onSnapshot  func()
	panicOnSnap bool
}

func newFakePage(url string) *fakePage {
	return &fakePage{url: url, results: make(map[string][]fakeVideo)}
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.urlErr != nil {
		return "", p.urlErr
	}
	return p.url, nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.scrolls = 0
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *fakePage) setURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

func (p *fakePage) ScrollToBottom(ctx context.Context, smooth bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	if smooth {
		p.smooth++
	}
	return nil
}

func (p *fakePage) ScrollToTop(ctx context.Context) error {
	return nil
}

func (p *fakePage) smoothScrolls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.smooth
}

func (p *fakePage) snapshotCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots
}

func (p *fakePage) Snapshot(ctx context.Context) (models.PageQuery, error) {
	p.mu.Lock()
	p.snapshots++
	if p.panicOnSnap {
		p.mu.Unlock()
		panic("快照崩溃")
	}
	if p.snapshotErr != nil {
		err := p.snapshotErr
		p.mu.Unlock()
		return nil, err
	}
	url := p.url
	videos := p.results[url]
	if p.perScroll > 0 {
		visible := p.perScroll * (p.scrolls + 1)
		if visible < len(videos) {
			videos = videos[:visible]
		}
	}
	hook := p.onSnapshot
	p.mu.Unlock()

	if hook != nil {
		hook()
	}
	return extractor.NewDocument(renderResults(videos), url)
}

func renderResults(videos []fakeVideo) string {
	var b strings.Builder
	b.WriteString("<html><body><ytd-item-section-renderer>")
	for _, v := range videos {
		b.WriteString("<ytd-video-renderer>")
		fmt.Fprintf(&b, `<a id="video-title" href="/watch?v=%s">%s</a>`, v.id, html.EscapeString(v.title))
		if v.channel != "" {
			fmt.Fprintf(&b, `<ytd-channel-name><a href="%s">ch</a></ytd-channel-name>`, v.channel)
		}
		b.WriteString(`<div id="metadata-line">`)
		for _, m := range v.meta {
			fmt.Fprintf(&b, "<span>%s</span>", m)
		}
		b.WriteString("</div></ytd-video-renderer>")
	}
	b.WriteString("</ytd-item-section-renderer></body></html>")
	return b.String()
}

// channelSource 按URL返回频道页文本
type channelSource struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newChannelSource(pages map[string]string) *channelSource {
	return &channelSource{pages: pages, calls: make(map[string]int)}
}

func (s *channelSource) FetchText(ctx context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[url]++
	text, ok := s.pages[url]
	if !ok {
		return "", errors.New("404")
	}
	return text, nil
}

func (s *channelSource) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

const resultsURL = "https://www.youtube.com/results?search_query=lofi"

func testSessionConfig() models.SessionConfig {
	return models.SessionConfig{
		InitialDelayMs:         0,
		PollIntervalMs:         5,
		SettleDelayMs:          0,
		ScrapeDelayMs:          0,
		ContinuousFirstDelayMs: 0,
		ContinuousSettleMs:     1,
		ContinuousIntervalMs:   1,
	}
}

func newTestScraper(page models.Page) *Scraper {
	return NewScraper(page, enrich.NewFetcher(newChannelSource(nil), nil), 0)
}

// eventually 在超时前反复检查条件
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
