// Package health runs named readiness checks for the server's dependencies.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultCheckTimeout = 2 * time.Second

// Status is the result of one check.
type Status struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Critical bool   `json:"critical"`
	Detail   string `json:"detail,omitempty"`
}

// Checker checks one dependency. A nil error means healthy.
type Checker func(ctx context.Context) error

type namedChecker struct {
	name     string
	critical bool
	check    Checker
}

// Registry holds checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
	timeout  time.Duration
}

// NewRegistry creates a registry. A non-positive timeout uses two seconds per check.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &Registry{timeout: timeout}
}

// Register adds a checker. Only critical checkers affect readiness.
func (r *Registry) Register(name string, critical bool, check Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, namedChecker{name: name, critical: critical, check: check})
	r.mu.Unlock()
}

// CheckAll runs every checker concurrently. ready is false when any critical
// checker fails. Statuses keep registration order.
func (r *Registry) CheckAll(ctx context.Context) (ready bool, statuses []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	statuses = make([]Status, len(checkers))

	var g errgroup.Group
	for i, nc := range checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			st := Status{Name: nc.name, Critical: nc.critical, Healthy: true}
			if err := nc.check(cctx); err != nil {
				st.Healthy = false
				st.Detail = err.Error()
			}
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	ready = true
	for _, st := range statuses {
		if st.Critical && !st.Healthy {
			ready = false
		}
	}
	return ready, statuses
}

// Healthy reports the status of a named check from a CheckAll result.
func Healthy(statuses []Status, name string) bool {
	for _, st := range statuses {
		if st.Name == name {
			return st.Healthy
		}
	}
	return false
}
