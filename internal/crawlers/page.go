package crawlers

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/RecoveryAshes/ytscraper/internal/extractor"
	"github.com/RecoveryAshes/ytscraper/internal/models"
)

const (
	jsScrollToBottom = `(smooth) => window.scrollTo({
		top: Math.max(document.body.scrollHeight, document.documentElement.scrollHeight),
		behavior: smooth ? 'smooth' : 'auto'
	})`
	jsScrollToTop = `() => window.scrollTo({top: 0, behavior: 'auto'})`
)

// BrowserPage 基于go-rod标签页的 models.Page 实现
type BrowserPage struct {
	page *rod.Page
}

// EvalString 执行单参数脚本并返回字符串结果
func (p *BrowserPage) EvalString(ctx context.Context, js string, arg string) (string, error) {
	res, err := p.page.Context(ctx).Eval(js, arg)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// URL 当前地址
func (p *BrowserPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("获取页面地址失败: %w", err)
	}
	return info.URL, nil
}

// Navigate 导航并等待load事件
func (p *BrowserPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("导航失败 [%s]: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败 [%s]: %w", url, err)
	}
	return nil
}

// ScrollToBottom 滚动到页面底部
func (p *BrowserPage) ScrollToBottom(ctx context.Context, smooth bool) error {
	_, err := p.page.Context(ctx).Eval(jsScrollToBottom, smooth)
	return err
}

// ScrollToTop 滚动回顶部
func (p *BrowserPage) ScrollToTop(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(jsScrollToTop)
	return err
}

// Snapshot 读取当前DOM并解析为可查询的文档
func (p *BrowserPage) Snapshot(ctx context.Context) (models.PageQuery, error) {
	page := p.page.Context(ctx)
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("获取页面信息失败: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取页面HTML失败: %w", err)
	}
	doc, err := extractor.NewDocument(html, info.URL)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
