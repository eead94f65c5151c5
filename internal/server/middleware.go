package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/RecoveryAshes/ytscraper/internal/metrics"
	"github.com/RecoveryAshes/ytscraper/internal/utils"
)

// requestLogger 每个请求记录一行结构化日志
func requestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		evt := utils.Logger.Debug()
		switch {
		case status >= 500:
			evt = utils.Logger.Error()
		case status >= 400:
			evt = utils.Logger.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}

// metricsMiddleware 记录请求耗时,/metrics 本身不计入
func metricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// fasthttp会复用底层缓冲,先拷贝
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		metrics.RequestDuration.WithLabelValues(path, method, status).Observe(time.Since(start).Seconds())
		return err
	}
}

// metricsHandler 通过fiber暴露Prometheus指标
func metricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

// errorResponse 统一的错误响应,形状与命令响应一致
func errorResponse(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":    false,
		"error": msg,
	})
}
