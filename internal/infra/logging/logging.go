// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"channel-relay-bot/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// keep 1 of every 100 debug/trace events; warn and above always pass
		sampled := base.Sample(zerolog.LevelSampler{
			TraceSampler: &zerolog.BasicSampler{N: 100},
			DebugSampler: &zerolog.BasicSampler{N: 100},
		})
		return &sampled
	}
	return &base
}

// Component returns a child logger tagged with a component name.
func Component(base *zerolog.Logger, name string) *zerolog.Logger {
	l := base.With().Str("component", name).Logger()
	return &l
}

type ctxKey string

const (
	ctxTraceID ctxKey = "trace_id"
	ctxTgID    ctxKey = "tg_id"
	ctxEventID ctxKey = "event_id"
)

// With attaches the per-event fields stored in ctx (trace_id, tg_id, event_id).
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v, ok := ctx.Value(ctxTraceID).(string); ok {
		l = l.Str("trace_id", v)
	}
	if v, ok := ctx.Value(ctxTgID).(int64); ok {
		l = l.Int64("tg_id", v)
	}
	if v, ok := ctx.Value(ctxEventID).(string); ok {
		l = l.Str("event_id", v)
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "RelayUC.ResolveAndRelay")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		elapsed := time.Since(start)
		logger.Trace().Str("method", name).Dur("duration", elapsed).Msg("finish")
	}
}

// Redact hides secrets when not in dev; keep short/preview.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithTgID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxTgID, id)
}
func WithEventID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxEventID, id)
}
