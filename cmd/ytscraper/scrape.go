package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// 抓取参数
var (
	scrapeQuery       string
	scrapeURL         string
	scrapeAuto        bool
	scrapeStallRounds int
	scrapeDelayMs     int
	scrapeMaxItems    int
	scrapeOutput      string
	scrapeAppend      bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "抓取一个搜索结果页",
	Long: `打开搜索结果页并提取视频信息。

  ytscraper scrape -q "lofi hip hop"
  ytscraper scrape -u "https://www.youtube.com/results?search_query=jazz" --auto --max-items 100 -o jazz.json --append`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scrapeQuery == "" && scrapeURL == "" {
			return cmd.Help()
		}

		// 未显式指定的滚动参数取配置文件的值
		if !cmd.Flags().Changed("stall-rounds") {
			scrapeStallRounds = appConfig.Scrape.StallRounds
		}
		if !cmd.Flags().Changed("delay-ms") {
			scrapeDelayMs = appConfig.Scrape.DelayMs
		}
		if !cmd.Flags().Changed("max-items") {
			scrapeMaxItems = appConfig.Scrape.MaxItems
		}

		opts := models.ScrapeOptions{
			Auto:        scrapeAuto,
			StallRounds: scrapeStallRounds,
			DelayMs:     scrapeDelayMs,
			MaxItems:    scrapeMaxItems,
		}
		if err := ValidateScrapeFlags(scrapeQuery, scrapeURL, opts); err != nil {
			return err
		}

		target := scrapeURL
		if scrapeQuery != "" {
			target = core.SearchURL(scrapeQuery)
		}

		ctx, stop := signalContext()
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		utils.Infof("🔍 打开: %s", target)
		if err := rt.page.Navigate(ctx, target); err != nil {
			return err
		}
		if err := utils.SleepContext(ctx, models.Millis(appConfig.Campaign.NavigateWaitMs)); err != nil {
			return err
		}

		records, err := rt.scraper.RunScrape(ctx, opts)
		if err != nil {
			return fmt.Errorf("抓取失败: %w", err)
		}
		utils.Infof("✅ 共提取 %d 个视频", len(records))

		if err := writeRecords(scrapeOutput, records); err != nil {
			return err
		}

		if scrapeAppend {
			added, err := rt.exports.Append(ctx, records, scrapeQuery)
			if err != nil {
				return err
			}
			utils.Infof("📥 新增 %d 个视频到导出列表 (共%d个)", len(added), rt.exports.Count())
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeQuery, "query", "q", "", "搜索词")
	scrapeCmd.Flags().StringVarP(&scrapeURL, "url", "u", "", "搜索结果页URL")
	scrapeCmd.Flags().BoolVar(&scrapeAuto, "auto", false, "自动滚动直到没有新结果")
	scrapeCmd.Flags().IntVar(&scrapeStallRounds, "stall-rounds", models.DefaultStallRounds, "连续无新增的轮数上限")
	scrapeCmd.Flags().IntVar(&scrapeDelayMs, "delay-ms", models.DefaultDelayMs, "每轮滚动后的等待(毫秒)")
	scrapeCmd.Flags().IntVar(&scrapeMaxItems, "max-items", models.DefaultMaxItems, "最大条目数,0为不限")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "输出文件,默认标准输出")
	scrapeCmd.Flags().BoolVar(&scrapeAppend, "append", false, "同时追加到导出列表")
	scrapeCmd.MarkFlagsMutuallyExclusive("query", "url")
}
