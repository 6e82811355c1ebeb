package apiserver

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker is a minimal contract for readiness checks.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// ReadyzHandler returns a simple HTTP handler that runs health checks.
// It iterates through provided checks and returns 503 on any failure.
// The response body is empty.
func ReadyzHandler(timeout time.Duration, checks ...HealthChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to := timeout
		if to <= 0 {
			to = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), to)
		defer cancel()

		for _, c := range checks {
			if c == nil {
				continue
			}
			if err := c.CheckHealth(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	})
}

// HealthzHandler returns a simple HTTP handler that always returns OK.
// This is for liveness checks that just need to know if the process is running.
// The response body is empty.
func HealthzHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

var ErrDraining = errors.New("server is shutting down")

// DrainCheck fails readiness once shutdown has started so load balancers
// stop routing new requests while in-flight ones complete.
type DrainCheck struct {
	draining atomic.Bool
}

func (d *DrainCheck) Drain() {
	d.draining.Store(true)
}

func (d *DrainCheck) CheckHealth(ctx context.Context) error {
	if d.draining.Load() {
		return ErrDraining
	}
	return ctx.Err()
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}
