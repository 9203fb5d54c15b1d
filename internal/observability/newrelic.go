package observability

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/heartrisk/heartrisk/internal/config"
)

// NewApplication starts the New Relic agent, or returns nil when no license
// key is configured.
func NewApplication(cfg *config.ObservabilityConfig, log zerolog.Logger) (*newrelic.Application, error) {
	if !cfg.NewRelicEnabled() {
		log.Info().Msg("new relic disabled: no license key")
		return nil, nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.ServiceName+"-"+cfg.Environment),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("new relic: %w", err)
	}
	log.Info().Str("app", cfg.ServiceName).Msg("new relic enabled")
	return app, nil
}

// Middleware records one web transaction per request. With a nil app it
// passes requests through untouched.
func Middleware(app *newrelic.Application) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if app == nil {
			return next
		}
		return func(c echo.Context) error {
			req := c.Request()
			txn := app.StartTransaction(req.Method + " " + c.Path())
			defer txn.End()

			txn.SetWebRequestHTTP(req)
			c.Response().Writer = txn.SetWebResponse(c.Response().Writer)
			c.SetRequest(newrelic.RequestWithTransactionContext(req, txn))

			err := next(c)
			if err != nil {
				txn.NoticeError(err)
			} else if status := c.Response().Status; status >= 500 {
				txn.NoticeError(fmt.Errorf("%s responded %d", c.Path(), status))
			}
			return err
		}
	}
}

// Shutdown flushes pending data, waiting at most timeout.
func Shutdown(app *newrelic.Application, timeout time.Duration) {
	if app != nil {
		app.Shutdown(timeout)
	}
}
