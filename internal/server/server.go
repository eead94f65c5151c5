// Package server 命令接口的HTTP实现
//
// 路由:
//
//	POST   /api/command          命令请求/响应
//	GET    /api/export           导出列表
//	POST   /api/export/append    追加当前结果
//	DELETE /api/export           清空导出列表
//	GET    /api/export/download  下载当前结果
//	POST   /api/batch            启动批量任务
//	GET    /api/batch            最近一次批量任务状态
package server

import (
	"bytes"
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/RecoveryAshes/ytscraper/internal/core"
	"github.com/RecoveryAshes/ytscraper/internal/models"
	"github.com/RecoveryAshes/ytscraper/internal/storage"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// DownloadFilename 下载文件名
const DownloadFilename = "youtube_search.json"

// Deps 服务依赖
type Deps struct {
	Dispatcher *core.Dispatcher
	Page       models.Page
	Exports    *storage.ExportList
	Campaigns  *core.CampaignRunner // 为nil时不提供批量接口
	Tracker    *BatchTracker
}

// Server 命令接口服务
type Server struct {
	app  *fiber.App
	base context.Context
	deps Deps
}

// New 创建服务并注册路由
// base 用于后台批量任务,请求结束不会取消它
func New(base context.Context, deps Deps) *Server {
	if deps.Tracker == nil {
		deps.Tracker = NewBatchTracker()
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "ytscraper",
			ServerHeader: "ytscraper",
		}),
		base: base,
		deps: deps,
	}
	s.routes()
	return s
}

// App 底层fiber应用
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 开始监听
func (s *Server) Listen(addr string) error {
	utils.Infof("🌐 命令接口监听于 %s", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown 关闭服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	app := s.app
	app.Use(recoverer.New())
	app.Use(requestLogger())
	app.Use(metricsMiddleware())

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metricsHandler())

	api := app.Group("/api")
	api.Post("/command", s.handleCommand)

	api.Get("/export", s.listExport)
	api.Post("/export/append", s.appendExport)
	api.Delete("/export", s.clearExport)
	api.Get("/export/download", s.downloadCurrent)

	api.Post("/batch", s.startBatch)
	api.Get("/batch", s.batchStatus)
}

// handleCommand POST /api/command
// 抓取和滚动命令要求当前页面是搜索结果页
func (s *Server) handleCommand(c fiber.Ctx) error {
	var req models.CommandRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "请求格式错误: "+err.Error())
	}

	ctx := c.Context()
	if req.Cmd.NeedsResultsPage() {
		pageURL, err := s.deps.Page.URL(ctx)
		if err != nil || !core.IsSearchResultsURL(pageURL) {
			return c.JSON(models.ErrorResponse(models.ErrNotSearchPage))
		}
	}

	return c.JSON(s.deps.Dispatcher.Handle(ctx, req))
}

// listExport GET /api/export
func (s *Server) listExport(c fiber.Ctx) error {
	entries := s.deps.Exports.Entries()
	current := s.deps.Dispatcher.Session().DataOrEmpty()
	return c.JSON(fiber.Map{
		"count":    len(entries),
		"entries":  entries,
		"newItems": len(s.deps.Exports.NewItems(current)),
	})
}

// appendExport POST /api/export/append
func (s *Server) appendExport(c fiber.Ctx) error {
	current, ok := s.deps.Dispatcher.Session().Data()
	if !ok || len(current) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "没有可追加的数据,请先抓取")
	}

	added, err := s.deps.Exports.Append(c.Context(), current, "")
	if err != nil {
		utils.Errorf("追加导出列表失败: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"ok":    true,
		"added": len(added),
		"total": s.deps.Exports.Count(),
	})
}

// clearExport DELETE /api/export
func (s *Server) clearExport(c fiber.Ctx) error {
	if err := s.deps.Exports.Clear(c.Context()); err != nil {
		utils.Errorf("清空导出列表失败: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"ok": true})
}

// downloadCurrent GET /api/export/download
func (s *Server) downloadCurrent(c fiber.Ctx) error {
	current, ok := s.deps.Dispatcher.Session().Data()
	if !ok || len(current) == 0 {
		return errorResponse(c, fiber.StatusNotFound, "没有可下载的数据,请先抓取")
	}

	var buf bytes.Buffer
	if err := storage.WriteJSON(&buf, current); err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Attachment(DownloadFilename)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(buf.Bytes())
}

// startBatch POST /api/batch
func (s *Server) startBatch(c fiber.Ctx) error {
	runner := s.deps.Campaigns
	if runner == nil {
		return errorResponse(c, fiber.StatusNotFound, "批量任务未启用")
	}

	var req models.CampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "请求格式错误: "+err.Error())
	}
	normalized, err := req.Normalize()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	if runner.Running() {
		return errorResponse(c, fiber.StatusConflict, core.ErrCampaignRunning.Error())
	}

	tracker := s.deps.Tracker
	tracker.Begin()
	go func() {
		summary, err := runner.Run(s.base, normalized)
		if errors.Is(err, core.ErrCampaignRunning) {
			// 与另一个请求同时启动,保留对方的状态
			return
		}
		if err != nil {
			utils.Warnf("批量任务结束: %v", err)
		}
		tracker.Finish(summary, err)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"ok":      true,
		"queries": len(normalized.Queries),
		"count":   normalized.Count,
	})
}

// batchStatus GET /api/batch
func (s *Server) batchStatus(c fiber.Ctx) error {
	return c.JSON(s.deps.Tracker.Snapshot())
}
