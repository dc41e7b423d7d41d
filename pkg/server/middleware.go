package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// =============================================================================
// 1. Logging Middleware (结构化日志)
// =============================================================================

// statusRecorder 包装 ResponseWriter 以便事后读取状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithLogging 负责记录每个 HTTP 请求
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		logRequest(req.Method, req.URL.Path, rec.status, time.Since(start))
	})
}

// logRequest 统一的日志打印逻辑
// 使用 Go 1.21+ 标准库 slog，这是目前的最佳实践
func logRequest(method, path string, status int, duration time.Duration) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		// NotFound / Gone 这种业务错误算 Warn
		level = slog.LevelWarn
	}

	slog.Log(context.Background(), level, "HTTP Request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("dur", duration),
	)
}

// =============================================================================
// 2. Recovery Middleware (防弹衣)
// =============================================================================

// WithRecovery 捕获 Panic
func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				// 打印堆栈信息，方便调试
				slog.Error("🔥 PANIC RECOVERED",
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())),
				)
				// 返回一个友好的 500 错误给客户端，而不是直接断开连接
				http.Error(w, "internal server error: panic recovered", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}
