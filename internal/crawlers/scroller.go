package crawlers

import (
	"context"
	"time"

	"github.com/RecoveryAshes/ytscraper/internal/extractor"
	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// DefaultSettleDelay 滚回顶部后的等待时间
const DefaultSettleDelay = 400 * time.Millisecond

// AutoScroller 自动滚动驱动
// 反复滚到底部触发懒加载,直到结果数连续若干轮不再增长或达到上限
type AutoScroller struct {
	page   models.Page
	settle time.Duration
}

// NewAutoScroller 创建自动滚动驱动; settle<0 时使用默认值
func NewAutoScroller(page models.Page, settle time.Duration) *AutoScroller {
	if settle < 0 {
		settle = DefaultSettleDelay
	}
	return &AutoScroller{page: page, settle: settle}
}

// Run 执行自动滚动,返回实际滚动轮数
//
// 每轮: 滚到底部 -> 等待delay -> 重新计数。计数未超过上一轮记为停滞,
// 连续停滞 stallRounds 轮或 maxItems>0 且计数达到 maxItems 时结束,
// 随后滚回顶部并等待页面稳定。stallRounds为0时只滚一轮。只有ctx取消会返回错误。
func (s *AutoScroller) Run(ctx context.Context, stallRounds int, delay time.Duration, maxItems int) (int, error) {
	if stallRounds < 0 {
		stallRounds = models.DefaultStallRounds
	}

	prev, _ := s.count(ctx)
	stalls, rounds := 0, 0
	utils.Debugf("开始自动滚动: 基准数量=%d, 停滞轮数=%d, 间隔=%v, 上限=%d", prev, stallRounds, delay, maxItems)

	for {
		if err := ctx.Err(); err != nil {
			return rounds, err
		}

		if err := s.page.ScrollToBottom(ctx, false); err != nil {
			if ctx.Err() != nil {
				return rounds, ctx.Err()
			}
			utils.Debugf("滚动到底部失败: %v", err)
		}
		if err := utils.SleepContext(ctx, delay); err != nil {
			return rounds, err
		}
		rounds++

		count, ok := s.count(ctx)
		if !ok {
			// 快照失败按未增长处理
			count = prev
		}

		if count <= prev {
			stalls++
		} else {
			stalls = 0
		}
		prev = count

		utils.Debugf("滚动第%d轮: 数量=%d, 停滞=%d/%d", rounds, count, stalls, stallRounds)

		if stalls >= stallRounds {
			break
		}
		if maxItems > 0 && count >= maxItems {
			utils.Debugf("已达到数量上限 %d", maxItems)
			break
		}
	}

	metrics.ScrollRounds.Observe(float64(rounds))

	if err := s.page.ScrollToTop(ctx); err != nil {
		if ctx.Err() != nil {
			return rounds, ctx.Err()
		}
		utils.Debugf("滚动回顶部失败: %v", err)
	}
	if err := utils.SleepContext(ctx, s.settle); err != nil {
		return rounds, err
	}

	utils.Infof("自动滚动结束: 共%d轮, 结果数量%d", rounds, prev)
	return rounds, nil
}

func (s *AutoScroller) count(ctx context.Context) (int, bool) {
	q, err := s.page.Snapshot(ctx)
	if err != nil {
		utils.Debugf("页面快照失败: %v", err)
		return 0, false
	}
	return extractor.CountResultNodes(q), true
}
