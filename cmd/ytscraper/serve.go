package main

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/crawlers"
	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/server"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

var (
	serveAddr     string
	serveStartURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动浏览器会话和本地命令接口",
	Long: `启动一个常驻浏览器标签页,监视页面导航并自动抓取搜索结果,
同时在本地提供命令接口:

  curl -X POST localhost:8765/api/command -d '{"cmd":"SCROLL_AND_SCRAPE","maxItems":50}'
  curl localhost:8765/api/export/download -o youtube_search.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			appConfig.Server.Addr = serveAddr
		}
		if cmd.Flags().Changed("start-url") {
			appConfig.Server.StartURL = serveStartURL
		}
		if err := ValidateServeFlags(appConfig.Server.Addr, appConfig.Server.StartURL); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		metrics.Register(prometheus.DefaultRegisterer)

		monitor := crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{
			MinFreeMemory:    int64(appConfig.Browser.MinFreeMemoryMB) * 1024 * 1024,
			CPULoadThreshold: 95,
		})
		monitor.StartMonitoring(30 * time.Second)
		defer monitor.StopMonitoring()

		if appConfig.Server.StartURL != "" {
			if err := rt.page.Navigate(ctx, appConfig.Server.StartURL); err != nil {
				return err
			}
		}

		sessionCfg := appConfig.Session
		continuous := core.NewContinuousScroller(ctx, rt.session, rt.scraper, sessionCfg)
		watcher := core.NewNavigationWatcher(rt.session, rt.scraper, sessionCfg)
		tracker := server.NewBatchTracker()

		srv := server.New(ctx, server.Deps{
			Dispatcher: core.NewDispatcher(rt.session, rt.scraper, continuous),
			Page:       rt.page,
			Exports:    rt.exports,
			Campaigns:  rt.campaignRunner(tracker.Record),
			Tracker:    tracker,
		})

		utils.Infof("🎬 会话 %s 已就绪", rt.session.ID())

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
		g.Go(func() error {
			return srv.Listen(appConfig.Server.Addr)
		})
		g.Go(func() error {
			<-gctx.Done()
			continuous.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		err = g.Wait()
		continuous.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		utils.Info("👋 服务已停止")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8765", "命令接口监听地址")
	serveCmd.Flags().StringVar(&serveStartURL, "start-url", "https://www.youtube.com/", "浏览器启动后打开的页面")
}
