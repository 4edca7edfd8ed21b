// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the request-scoped logger injected by the request logger
// middleware, so every line from a handler carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_id", order.ID, "total", order.TotalAmount)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var L *slog.Logger

func init() {
	L = slog.New(newHandler(os.Stdout, os.Getenv("APP_ENV")))
	slog.SetDefault(L)
}

func newHandler(w io.Writer, env string) slog.Handler {
	switch strings.ToLower(env) {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Setup rebuilds the base logger for env. When mongoURI is set, records are
// also shipped to MongoDB; the returned func flushes and disconnects.
func Setup(env, mongoURI string) (func(), error) {
	handler := newHandler(os.Stdout, env)
	closer := func() {}

	if mongoURI != "" {
		mh, err := NewMongoHandler(mongoURI, "storefront", "logs")
		if err != nil {
			L = slog.New(handler)
			slog.SetDefault(L)
			return closer, err
		}
		handler = NewMultiHandler(handler, mh)
		closer = mh.Close
	}

	L = slog.New(handler)
	slog.SetDefault(L)
	return closer, nil
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
