package main

import (
	"context"
	"errors"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// 批量任务参数
var (
	queriesFile  string
	batchQueries []string
	batchCount   int
	reportDir    string
	cronSpec     string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "依次抓取多个搜索词并追加到导出列表",
	Long: `依次搜索每个搜索词,自动滚动抓取并把新视频追加到导出列表。

搜索词文件每行一个,# 开头为注释; 也可以是YAML:
  queries: ["lofi", "jazz"]
  count: 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := campaignRequest(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		bar := utils.NewProgressBar(len(req.Queries), "批量抓取")
		runner := rt.campaignRunner(progressReporter(bar))

		summary, err := runner.Run(ctx, req)
		if summary != nil {
			writeReport(summary)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				utils.Warn("批量任务已中断")
				return nil
			}
			return err
		}

		utils.Info("✨ 批量抓取任务完成!")
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "按cron表达式定期执行批量任务",
	Long: `按cron表达式定期执行批量任务,上一次未结束时跳过本次触发。

  ytscraper schedule --cron "0 */6 * * *" --queries queries.txt
  ytscraper schedule --cron @daily -q lofi -q jazz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cronSpec == "" {
			return errors.New("必须指定 --cron")
		}
		req, err := campaignRequest(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		scheduler, err := core.NewCampaignScheduler(rt.campaignRunner(nil), req, cronSpec, func(summary *models.CampaignSummary, err error) {
			if summary != nil {
				writeReport(summary)
			}
		})
		if err != nil {
			return err
		}
		return scheduler.Start(ctx)
	},
}

// campaignRequest 由参数和任务文件组装请求
// 命令行的 -q 追加在文件内容之后; --count 覆盖文件中的count
func campaignRequest(cmd *cobra.Command) (models.CampaignRequest, error) {
	var req models.CampaignRequest
	if queriesFile != "" {
		fromFile, err := utils.ReadCampaignFile(queriesFile)
		if err != nil {
			return req, err
		}
		req = fromFile
	}
	req.Queries = append(req.Queries, batchQueries...)
	if cmd.Flags().Changed("count") {
		req.Count = batchCount
	}
	if req.Count == 0 {
		req.Count = appConfig.Campaign.DefaultCount
	}
	return ValidateCampaign(req)
}

// progressReporter 把状态消息映射到进度条
func progressReporter(bar *progressbar.ProgressBar) core.StatusFunc {
	return func(ev models.StatusEvent) {
		switch {
		case ev.Index > 0:
			bar.Describe(ev.Message)
			_ = bar.Set(ev.Index - 1)
		case ev.Level == models.StatusSuccess:
			_ = bar.Finish()
		}
	}
}

func writeReport(summary *models.CampaignSummary) {
	if reportDir == "" {
		return
	}
	if _, err := utils.NewReporter(reportDir).GenerateReport(summary); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}
}

func init() {
	for _, c := range []*cobra.Command{batchCmd, scheduleCmd} {
		c.Flags().StringVar(&queriesFile, "queries", "", "搜索词文件(.txt 或 .yaml)")
		c.Flags().StringArrayVarP(&batchQueries, "query", "q", nil, "搜索词,可多次指定")
		c.Flags().IntVar(&batchCount, "count", models.DefaultCampaignCount, "每个搜索词的目标数量 (1-100)")
		c.Flags().StringVar(&reportDir, "report-dir", "", "任务报告输出目录,为空时不生成")
	}
	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "", "cron表达式,如 \"0 */6 * * *\" 或 @daily")
}
