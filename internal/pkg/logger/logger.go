// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// base 是所有服务共享的根 Logger，输出结构化 JSON 到标准输出。
var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 设置全局日志级别和时间格式，在 bootstrap 阶段调用一次。
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lv, err := zerolog.ParseLevel(level)
	if err != nil {
		lv = zerolog.InfoLevel
	}
	base = base.Level(lv)
}

// Ctx 返回一个绑定了当前追踪上下文的 Logger。
// 如果 ctx 中存在有效的 Span，日志会自动附带 trace_id / span_id，
// 方便在 Jaeger 和日志系统之间互相跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}

// L 返回根 Logger，用于没有请求上下文的启动/关停日志。
func L() *zerolog.Logger {
	return &base
}
