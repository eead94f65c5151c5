package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 全局参数
var (
	configFile string
	verbose    bool
	logLevel   string
	headers    []string // 自定义HTTP请求头

	// PersistentPreRunE 中加载
	appConfig *core.Config
)

var rootCmd = &cobra.Command{
	Use:   "ytscraper",
	Short: "YouTube搜索结果抓取工具",
	Long: `ytscraper - YouTube搜索结果抓取工具

从搜索结果页提取视频信息,并补全频道订阅数与handle:
  • 单次抓取或自动滚动抓取
  • 批量搜索词任务与定时任务
  • 导出列表(去重追加,JSON/SQLite存储)
  • 本地命令接口(serve)

示例:
  ytscraper scrape -q "lofi hip hop" --auto --max-items 50 -o lofi.json
  ytscraper batch --queries queries.txt --count 30
  ytscraper export download -o export.json
  ytscraper serve --addr 127.0.0.1:8765

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := config.Logging.LogConfig()
		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		} else if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}
		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = config
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ytscraper %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
