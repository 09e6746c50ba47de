package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/pulse/config"
)

// InitSentry enables error reporting when a DSN is configured. The returned
// flush should run during shutdown.
func InitSentry(cfg config.SentryConfig, environment string) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: environment,
	})
	if err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}
