package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// ErrBrowserNotReady 浏览器未启动或已关闭
var ErrBrowserNotReady = errors.New("浏览器未就绪")

// Browser Chromium会话
type Browser struct {
	browser        *rod.Browser
	config         models.BrowserConfig
	headerProvider models.HeaderProvider

	mu     sync.Mutex
	closed bool
}

// LaunchBrowser 检查资源后启动并连接浏览器
func LaunchBrowser(config models.BrowserConfig, headerProvider models.HeaderProvider) (*Browser, error) {
	monitor := NewResourceMonitor(ResourceMonitorConfig{
		MinFreeMemory:    int64(config.MinFreeMemoryMB) * 1024 * 1024,
		CPULoadThreshold: 95,
	})
	if ok, reason := monitor.CheckLaunch(); !ok {
		return nil, fmt.Errorf("资源不足,无法启动浏览器: %s", reason)
	}

	l := launcher.New().
		Headless(config.Headless).
		NoSandbox(config.NoSandbox)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}
	if config.UserDataDir != "" {
		l = l.UserDataDir(config.UserDataDir)
	}
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s (headless=%v)", controlURL, config.Headless)
	return &Browser{
		browser:        rb,
		config:         config,
		headerProvider: headerProvider,
	}, nil
}

// NewPage 打开新标签页并应用自定义头部
func (b *Browser) NewPage(ctx context.Context) (*BrowserPage, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed || b.browser == nil {
		return nil, ErrBrowserNotReady
	}

	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err)
	}
	// 页面对象不绑定调用方ctx,每次操作再单独绑定
	page = page.Context(context.Background())

	if err := applyHeaders(page, b.headerProvider); err != nil {
		utils.Warnf("应用自定义HTTP头部失败: %v", err)
	}
	return &BrowserPage{page: page}, nil
}

// Close 关闭浏览器,可重复调用
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.browser == nil {
		return nil
	}
	b.closed = true
	if err := b.browser.Close(); err != nil {
		return fmt.Errorf("关闭浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已关闭")
	return nil
}

// applyHeaders User-Agent走专用接口,其余头部作为额外请求头
func applyHeaders(page *rod.Page, provider models.HeaderProvider) error {
	if provider == nil {
		return nil
	}
	headers, err := provider.GetHeaders()
	if err != nil {
		return err
	}

	var extra []string
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		if http.CanonicalHeaderKey(name) == "User-Agent" {
			if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: values[0]}); err != nil {
				return fmt.Errorf("设置User-Agent失败: %w", err)
			}
			continue
		}
		if !utils.IsSafeForBrowser(name) {
			utils.Debugf("跳过浏览器不接受的头部: %s", name)
			continue
		}
		extra = append(extra, name, values[0])
	}
	if len(extra) == 0 {
		return nil
	}
	if _, err := page.SetExtraHeaders(extra); err != nil {
		return fmt.Errorf("设置额外头部失败: %w", err)
	}
	return nil
}
