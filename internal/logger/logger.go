// Package logger owns the process-wide zap logger: initialized once at
// application start, injected everywhere else, and flushed on shutdown.
package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/middleware"
)

var Logger *zap.Logger

func Init() error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}
	return nil
}

func GetLogger() *zap.Logger {
	if Logger == nil {
		Logger, _ = zap.NewProduction()
	}
	return Logger
}

func Sync() {
	if Logger != nil {
		Logger.Sync()
	}
}

// RequestIDField reads the request id the middleware stored in ctx and
// returns it as a zap field, so any log call downstream of the edge can
// correlate without threading the id explicitly.
func RequestIDField(ctx context.Context) zap.Field {
	return zap.String("request_id", middleware.RequestID(ctx))
}
