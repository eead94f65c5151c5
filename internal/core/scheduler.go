package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// CampaignScheduler 按cron表达式定期执行批量任务
// 上一次任务未结束时跳过本次触发
type CampaignScheduler struct {
	runner   *CampaignRunner
	request  models.CampaignRequest
	schedule string
	cron     *cron.Cron

	// 每次任务结束后回调,可为nil
	onSummary func(*models.CampaignSummary, error)
}

// NewCampaignScheduler 创建调度器,schedule使用标准5段cron格式
func NewCampaignScheduler(runner *CampaignRunner, request models.CampaignRequest, schedule string, onSummary func(*models.CampaignSummary, error)) (*CampaignScheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("无效的cron表达式 %q: %w", schedule, err)
	}
	if _, err := request.Normalize(); err != nil {
		return nil, err
	}

	logger := cronLogger{}
	return &CampaignScheduler{
		runner:    runner,
		request:   request,
		schedule:  schedule,
		onSummary: onSummary,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}, nil
}

// Start 启动调度并阻塞到ctx结束,返回前等待正在运行的任务退出
func (s *CampaignScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	utils.Infof("⏰ 定时批量任务已启动: %s", s.schedule)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	utils.Info("定时批量任务已停止")
	return nil
}

// RunOnce 立即执行一次
func (s *CampaignScheduler) RunOnce(ctx context.Context) {
	summary, err := s.runner.Run(ctx, s.request)
	if err != nil && !errors.Is(err, context.Canceled) {
		utils.Errorf("定时批量任务失败: %v", err)
	}
	if s.onSummary != nil {
		s.onSummary(summary, err)
	}
}

// cronLogger 把cron的日志转到zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	utils.Logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	utils.Logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
