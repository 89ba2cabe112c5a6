package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/k-shtanenko/weather-stream/internal/logger"
)

// Check is one dependency probe: the upstream API or the broker.
type Check struct {
	Name    string
	Timeout time.Duration
	Probe   func(ctx context.Context) error
}

// HealthChecker runs startup probes with bounded retries so the service does
// not come up against a dead upstream or broker.
type HealthChecker struct {
	checks        []Check
	retryInterval time.Duration
	maxRetries    int
	logger        logger.Logger
}

func NewHealthChecker(retryInterval time.Duration, maxRetries int, checks ...Check) *HealthChecker {
	return &HealthChecker{
		checks:        checks,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
		logger:        logger.New("info", "development").WithField("component", "health_checker"),
	}
}

func (h *HealthChecker) CheckAll(ctx context.Context) error {
	h.logger.Info("Starting health checks for all dependencies")

	for _, check := range h.checks {
		if err := h.checkWithRetry(ctx, check); err != nil {
			return fmt.Errorf("%s health check failed: %w", check.Name, err)
		}
	}

	h.logger.Info("All health checks passed successfully")
	return nil
}

func (h *HealthChecker) checkWithRetry(ctx context.Context, check Check) error {
	var lastErr error

	for i := 0; i < h.maxRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.logger.Debugf("Checking %s (attempt %d/%d)", check.Name, i+1, h.maxRetries)

			checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
			err := check.Probe(checkCtx)
			cancel()

			if err == nil {
				h.logger.Infof("%s health check passed", check.Name)
				return nil
			}

			lastErr = err
			h.logger.Warnf("%s health check failed (attempt %d/%d): %v", check.Name, i+1, h.maxRetries, err)

			if i < h.maxRetries-1 {
				time.Sleep(h.retryInterval)
			}
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", h.maxRetries, lastErr)
}
