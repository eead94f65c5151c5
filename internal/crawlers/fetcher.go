package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/publicsuffix"

	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// DefaultFetchTimeout 频道页抓取超时
const DefaultFetchTimeout = 30 * time.Second

// HTTPFetcher 使用Colly抓取频道页原始文本
// 所有请求共用一个带Cookie的http.Client
type HTTPFetcher struct {
	client         *http.Client
	headerProvider models.HeaderProvider
}

// NewHTTPFetcher 创建HTTP抓取器; timeout<=0 时使用默认值
func NewHTTPFetcher(timeout time.Duration, headerProvider models.HeaderProvider) (*HTTPFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("创建Cookie容器失败: %w", err)
	}

	utils.Debugf("HTTP抓取器: 超时设置为 %v", timeout)
	return &HTTPFetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		headerProvider: headerProvider,
	}, nil
}

// FetchText 抓取URL并返回解码后的文本
// 非2xx响应同样返回正文,由调用方的规则决定能否提取
func (f *HTTPFetcher) FetchText(ctx context.Context, url string) (string, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetClient(f.client)
	c.ParseHTTPErrorResponse = true

	var (
		body    []byte
		status  int
		callErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if f.headerProvider == nil {
			return
		}
		headers, err := f.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		decoded, err := decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			callErr = err
			return
		}
		body = decoded
	})

	c.OnError(func(r *colly.Response, err error) {
		callErr = err
	})

	if err := c.Visit(url); err != nil && callErr == nil {
		callErr = err
	}
	if callErr != nil {
		return "", fmt.Errorf("抓取失败 [%s]: %w", url, callErr)
	}
	if status >= http.StatusBadRequest {
		utils.Debugf("频道页返回状态码 %d: %s", status, url)
	}
	return string(body), nil
}

// ScriptTab 浏览器内抓取所需的标签页操作
type ScriptTab interface {
	URL(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	EvalString(ctx context.Context, js string, arg string) (string, error)
}

// BrowserFetcher 在浏览器标签页内执行fetch,沿用浏览器的Cookie
// 带Cookie的fetch必须同源,抓取前先把标签页导航到目标站点
type BrowserFetcher struct {
	tab     ScriptTab
	timeout time.Duration
	mu      sync.RWMutex // 导航持写锁,fetch持读锁
}

const jsFetchText = `(u) => fetch(u, {credentials: 'include'}).then(r => r.text())`

// NewBrowserFetcher 创建浏览器内抓取器
func NewBrowserFetcher(tab ScriptTab, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &BrowserFetcher{tab: tab, timeout: timeout}
}

// FetchText 实现 models.TextFetcher
func (f *BrowserFetcher) FetchText(ctx context.Context, target string) (string, error) {
	if f.tab == nil {
		return "", ErrBrowserNotReady
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	origin, err := originOf(target)
	if err != nil {
		return "", err
	}
	if err := f.ensureOrigin(ctx, origin); err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	text, err := f.tab.EvalString(ctx, jsFetchText, target)
	if err != nil {
		return "", fmt.Errorf("页面内抓取失败 [%s]: %w", target, err)
	}
	return text, nil
}

// ensureOrigin 标签页不在origin下时导航到该站点首页
func (f *BrowserFetcher) ensureOrigin(ctx context.Context, origin string) error {
	f.mu.RLock()
	same := f.sameOrigin(ctx, origin)
	f.mu.RUnlock()
	if same {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sameOrigin(ctx, origin) {
		return nil
	}
	utils.Debugf("抓取标签页导航到 %s", origin)
	if err := f.tab.Navigate(ctx, origin+"/"); err != nil {
		return fmt.Errorf("抓取标签页导航失败: %w", err)
	}
	return nil
}

func (f *BrowserFetcher) sameOrigin(ctx context.Context, origin string) bool {
	current, err := f.tab.URL(ctx)
	if err != nil {
		return false
	}
	o, err := originOf(current)
	return err == nil && o == origin
}

// originOf 返回 scheme://host
func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("无效的URL [%s]: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("不支持的URL [%s]", rawURL)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}

// decompressResponse 根据Content-Encoding解压响应体
// Colly可能已自动解开gzip但保留了头部,因此先检查魔数
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
