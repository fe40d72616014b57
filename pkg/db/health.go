package db

import (
	"context"
	"time"
)

// Pinger is anything whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionHealth is the result of probing one dependency.
type ConnectionHealth struct {
	Name         string        `json:"name"`
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time_ms"`
	Error        string        `json:"error,omitempty"`
}

// HealthChecker pings a set of named dependencies.
type HealthChecker struct {
	targets map[string]Pinger
	order   []string
	timeout time.Duration
}

// NewHealthChecker creates a checker that gives each ping timeout.
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{targets: make(map[string]Pinger), timeout: timeout}
}

// Register adds a dependency. Registering a name twice replaces it.
func (h *HealthChecker) Register(name string, p Pinger) {
	if _, ok := h.targets[name]; !ok {
		h.order = append(h.order, name)
	}
	h.targets[name] = p
}

// Check pings every registered dependency in registration order. healthy
// is false if any ping failed.
func (h *HealthChecker) Check(ctx context.Context) (healthy bool, results []ConnectionHealth) {
	healthy = true
	results = make([]ConnectionHealth, 0, len(h.order))
	for _, name := range h.order {
		r := h.ping(ctx, name, h.targets[name])
		if !r.Healthy {
			healthy = false
		}
		results = append(results, r)
	}
	return healthy, results
}

func (h *HealthChecker) ping(ctx context.Context, name string, p Pinger) ConnectionHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	r := ConnectionHealth{Name: name, Healthy: err == nil, ResponseTime: time.Since(start)}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
