package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "管理导出列表",
}

var exportListCmd = &cobra.Command{
	Use:   "list",
	Short: "显示导出列表",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		kv, exports, err := openExports(ctx, appConfig)
		if err != nil {
			return err
		}
		defer kv.Close()

		entries := exports.Entries()
		for i, e := range entries {
			batch := e.BatchQuery
			if batch == "" {
				batch = "-"
			}
			fmt.Printf("%4d  %-11s  %-20s  %s  [%s]\n", i+1, e.VideoID, e.AddedAt, e.Title, batch)
		}
		fmt.Printf("共 %d 个视频\n", len(entries))
		return nil
	},
}

var exportClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "清空导出列表",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		kv, exports, err := openExports(ctx, appConfig)
		if err != nil {
			return err
		}
		defer kv.Close()

		n := exports.Count()
		if err := exports.Clear(ctx); err != nil {
			return err
		}
		utils.Infof("🗑️ 已清空导出列表 (%d个)", n)
		return nil
	},
}

var exportDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "把导出列表写成JSON文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		kv, exports, err := openExports(ctx, appConfig)
		if err != nil {
			return err
		}
		defer kv.Close()

		entries := exports.Entries()
		if len(entries) == 0 {
			utils.Warn("导出列表为空")
		}
		return writeRecords(exportOutput, entries)
	},
}

func init() {
	exportDownloadCmd.Flags().StringVarP(&exportOutput, "output", "o", "youtube_export.json", "输出文件, - 为标准输出")

	exportCmd.AddCommand(exportListCmd)
	exportCmd.AddCommand(exportClearCmd)
	exportCmd.AddCommand(exportDownloadCmd)
}
