package monitoring

import (
	"context"
	"log/slog"
	"time"
)

const HEALTHCHECK_TIMEOUT = 15 * time.Second

// Check probes one dependency. Probe returns nil when it is healthy.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Result struct {
	Name    string
	Healthy bool
	Elapsed time.Duration
	Err     error
}

// Run executes checks in order, each under its own timeout.
func Run(ctx context.Context, checks []Check, timeout time.Duration) []Result {
	if timeout <= 0 {
		timeout = HEALTHCHECK_TIMEOUT
	}

	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		results = append(results, run(ctx, c, timeout))
	}
	return results
}

func run(ctx context.Context, c Check, timeout time.Duration) Result {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := c.Probe(checkCtx)
	res := Result{Name: c.Name, Healthy: err == nil, Elapsed: time.Since(start), Err: err}

	if err != nil {
		slog.Warn("[HealthCheck] Dependency is unhealthy",
			slog.String("check", c.Name),
			slog.String("error", err.Error()))
	} else {
		slog.Debug("[HealthCheck] Dependency is healthy",
			slog.String("check", c.Name),
			slog.Duration("elapsed", res.Elapsed))
	}
	return res
}

// Healthy reports whether every result passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}
