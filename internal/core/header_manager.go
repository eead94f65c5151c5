package core

import (
	"net/http"
	"sync"

	"github.com/RecoveryAshes/ytscraper/internal/config"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// DefaultUserAgent 默认User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/124.0.0.0 Safari/537.36"

// HeaderManager 合并三层HTTP头部: 默认 < 配置文件 < 命令行
// 实现 models.HeaderProvider,可被多个抓取goroutine并发调用
type HeaderManager struct {
	defaults http.Header
	cli      http.Header

	validator    *utils.HeaderValidator
	redactor     *utils.HeaderRedactor
	configLoader *config.HeaderConfigLoader

	once    sync.Once
	merged  http.Header
	loadErr error
}

// NewHeaderManager 创建头部管理器
// configFile为空时使用 configs/headers.yaml; cliHeaders 形如 "Name: Value"
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	return &HeaderManager{
		defaults:     defaultHeaders(),
		cli:          cli,
		validator:    utils.NewHeaderValidator(),
		redactor:     utils.NewHeaderRedactor(),
		configLoader: config.NewHeaderConfigLoader(configFile),
	}, nil
}

// NewStaticHeaderManager 不读配置文件,只使用默认头部和给定头部
func NewStaticHeaderManager(cliHeaders []string) (*HeaderManager, error) {
	hm, err := NewHeaderManager("", cliHeaders)
	if err != nil {
		return nil, err
	}
	hm.configLoader = nil
	return hm, nil
}

func defaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": []string{"en-US,en;q=0.9"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

func (hm *HeaderManager) load() {
	fromFile := make(http.Header)
	if hm.configLoader != nil {
		headerConfig, err := hm.configLoader.LoadConfig()
		if err != nil {
			utils.Errorf("加载HTTP头部配置失败: %v", err)
			hm.loadErr = err
			return
		}
		for name, value := range headerConfig.Headers {
			fromFile.Set(name, value)
		}
	}

	for _, layer := range []struct {
		name    string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", fromFile},
		{"命令行", hm.cli},
	} {
		if err := hm.validator.Validate(layer.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", layer.name, err)
			hm.loadErr = err
			return
		}
	}

	merged := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, fromFile, hm.cli} {
		for name, values := range layer {
			merged[http.CanonicalHeaderKey(name)] = values
		}
	}
	hm.merged = merged

	utils.Debugf("HTTP头部已加载: %s", hm.redactor.RedactToString(merged))
}

// GetHeaders 实现 models.HeaderProvider
// 首次调用时加载并校验,之后返回缓存结果的副本
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(hm.load)
	if hm.loadErr != nil {
		return nil, hm.loadErr
	}
	return hm.merged.Clone(), nil
}

// GetSafeHeaders 返回脱敏后的头部,用于日志和 validate 命令输出
func (hm *HeaderManager) GetSafeHeaders() (map[string]string, error) {
	headers, err := hm.GetHeaders()
	if err != nil {
		return nil, err
	}
	return hm.redactor.Redact(headers), nil
}
