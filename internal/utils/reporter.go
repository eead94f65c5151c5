package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// Reporter 批量任务报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport 写出批量任务报告,返回报告目录
//
//	<outputDir>/campaign_<id>/summary.json  每个搜索词的结果与耗时
//	<outputDir>/campaign_<id>/records.json  本次新增的记录
func (r *Reporter) GenerateReport(summary *models.CampaignSummary) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("报告内容为空")
	}

	reportsDir := filepath.Join(r.outputDir, "campaign_"+summary.ID)
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	if err := r.saveJSONReport(reportsDir, "summary.json", summary); err != nil {
		return "", err
	}

	records := summary.Data
	if records == nil {
		records = []models.VideoRecord{}
	}
	if err := r.saveJSONReport(reportsDir, "records.json", records); err != nil {
		return "", err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return reportsDir, nil
}

func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
