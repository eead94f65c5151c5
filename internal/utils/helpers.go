package utils

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// ReadCampaignFile 读取批量任务文件
//
// .yaml/.yml 文件按 {queries: [...], count: N} 解析;
// 其他文件每行一个搜索词,跳过空行和 # 开头的注释行。
// 返回值未经 Normalize,由调用方统一校验。
func ReadCampaignFile(path string) (models.CampaignRequest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readCampaignYAML(path)
	default:
		queries, err := ReadQueriesFromFile(path)
		if err != nil {
			return models.CampaignRequest{}, err
		}
		return models.CampaignRequest{Queries: queries}, nil
	}
}

func readCampaignYAML(path string) (models.CampaignRequest, error) {
	var req models.CampaignRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("打开任务文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("解析任务文件失败: %w", err)
	}
	Infof("从YAML文件加载了 %d 个搜索词", len(req.Queries))
	return req, nil
}

// ReadQueriesFromFile 从文本文件中读取搜索词列表
func ReadQueriesFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开搜索词文件失败: %w", err)
	}
	defer file.Close()

	queries := make([]string, 0)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取搜索词文件失败: %w", err)
	}

	Infof("从文件加载了 %d 个搜索词", len(queries))
	return queries, nil
}

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	return nil
}

// SleepContext 等待d或ctx结束; d<=0 时只检查ctx
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
