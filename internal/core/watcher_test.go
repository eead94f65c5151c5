package core

import (
	"context"
	"testing"
	"time"
)

func runWatcher(t *testing.T, page *fakePage, session *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := NewNavigationWatcher(session, newTestScraper(page), testSessionConfig())
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestNavigationWatcher_InitialScrape(t *testing.T) {
	page := newFakePage(resultsURL)
	page.results[resultsURL] = vids("a", 4)
	session := NewSession(nil)
	runWatcher(t, page, session)

	if !eventually(time.Second, func() bool {
		data, ok := session.Data()
		return ok && len(data) == 4
	}) {
		t.Fatal("期望启动后自动抓取到4条记录")
	}
	if session.URL() != resultsURL {
		t.Errorf("期望跟踪 %s,实际 %s", resultsURL, session.URL())
	}
}

func TestNavigationWatcher_NavigationResetsAndRescrapes(t *testing.T) {
	other := "https://www.youtube.com/results?search_query=jazz"
	page := newFakePage(resultsURL)
	page.results[resultsURL] = vids("a", 4)
	page.results[other] = vids("b", 2)
	session := NewSession(nil)
	runWatcher(t, page, session)

	if !eventually(time.Second, func() bool { _, ok := session.Data(); return ok }) {
		t.Fatal("期望初始抓取完成")
	}

	page.setURL(other)
	if !eventually(time.Second, func() bool {
		data, ok := session.Data()
		return ok && len(data) == 2 && data[0].VideoID == "b00"
	}) {
		data, _ := session.Data()
		t.Fatalf("期望切换后得到新页面的2条记录,实际 %+v", data)
	}

	page.setURL("https://www.youtube.com/watch?v=b00")
	if !eventually(time.Second, func() bool {
		_, ok := session.Data()
		return !ok && session.URL() == "https://www.youtube.com/watch?v=b00"
	}) {
		t.Error("离开搜索结果页后结果应被清空")
	}
}

func TestNavigationWatcher_ScrapeFailureClears(t *testing.T) {
	page := newFakePage(resultsURL)
	page.snapshotErr = context.DeadlineExceeded
	session := NewSession(nil)
	runWatcher(t, page, session)

	if !eventually(time.Second, func() bool { return page.snapshotCount() > 0 }) {
		t.Fatal("期望尝试抓取")
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok := session.Data(); ok {
		t.Error("抓取失败时不应保存结果")
	}
}

func TestContinuousScroller(t *testing.T) {
	t.Run("不在结果页时不启动", func(t *testing.T) {
		page := newFakePage("https://www.youtube.com/")
		session := NewSession(nil)
		c := NewContinuousScroller(context.Background(), session, newTestScraper(page), testSessionConfig())
		if c.Start(context.Background()) {
			t.Error("期望不启动")
		}
		if session.AutoScrollActive() {
			t.Error("标记不应被设置")
		}
	})

	t.Run("重复启动为空操作", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		page := newFakePage(resultsURL)
		page.results[resultsURL] = vids("v", 2)
		session := NewSession(nil)
		session.Reset(resultsURL)
		c := NewContinuousScroller(ctx, session, newTestScraper(page), testSessionConfig())

		if !c.Start(context.Background()) {
			t.Fatal("第一次启动应成功")
		}
		if c.Start(context.Background()) {
			t.Error("第二次启动应为空操作")
		}
		if !eventually(time.Second, func() bool { return page.smoothScrolls() >= 2 }) {
			t.Error("期望平滑滚动多轮")
		}

		if !c.Stop() {
			t.Error("停止应返回true")
		}
		c.Wait()
		scrolls := page.smoothScrolls()
		time.Sleep(10 * time.Millisecond)
		if page.smoothScrolls() != scrolls {
			t.Error("停止后不应继续滚动")
		}
		if c.Stop() {
			t.Error("重复停止应返回false")
		}
	})

	t.Run("停止后丢弃进行中的结果", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		page := newFakePage(resultsURL)
		page.results[resultsURL] = vids("v", 2)
		session := NewSession(nil)
		session.Reset(resultsURL)
		c := NewContinuousScroller(ctx, session, newTestScraper(page), testSessionConfig())

		// 快照进行中时停止
		page.onSnapshot = func() { c.Stop() }
		c.Start(context.Background())
		c.Wait()

		if _, ok := session.Data(); ok {
			t.Error("停止后完成的抓取不应写入会话")
		}
	})

	t.Run("base结束时清除标记", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		page := newFakePage(resultsURL)
		session := NewSession(nil)
		c := NewContinuousScroller(ctx, session, newTestScraper(page), testSessionConfig())
		c.Start(context.Background())
		cancel()
		c.Wait()
		if session.AutoScrollActive() {
			t.Error("循环退出后标记应被清除")
		}
	})
}
