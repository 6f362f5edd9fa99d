package health

import (
	"context"
	"sync"
	"time"
)

// Status classifies a probe outcome.
type Status string

const (
	// StatusOK means the component answered its check.
	StatusOK Status = "ok"

	// StatusReady means every registered check passed.
	StatusReady Status = "ready"

	// StatusDegraded means at least one check failed.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means a single component failed its check.
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Result is the outcome of a single component check.
type Result struct {
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// Snapshot is the aggregated outcome of a probe.
type Snapshot struct {
	Status    Status            `json:"status"`
	Checks    map[string]Result `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 5 * time.Second

// Checker runs named component checks for the daemon's probe endpoints.
// Liveness answers "is the process running"; Readiness runs every
// registered check concurrently and degrades when any fails.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// New creates a checker. A zero timeout means DefaultCheckTimeout per
// component check.
func New(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = DefaultCheckTimeout
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register adds a named component check, replacing any existing check
// with the same name.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered check names.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	return names
}

// Liveness reports that the process is up. It runs no component checks.
func (c *Checker) Liveness(ctx context.Context) Snapshot {
	return Snapshot{Status: StatusOK, Timestamp: time.Now()}
}

// Readiness runs every registered check concurrently and aggregates the
// results. With no checks registered the daemon is trivially ready.
func (c *Checker) Readiness(ctx context.Context) Snapshot {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]Result, len(checks))
	if len(checks) == 0 {
		return Snapshot{Status: StatusReady, Checks: results, Timestamp: time.Now()}
	}

	var (
		wg sync.WaitGroup
		rm sync.Mutex
	)
	for name, check := range checks {
		name, check := name, check
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := c.run(ctx, check)
			rm.Lock()
			results[name] = result
			rm.Unlock()
		}()
	}
	wg.Wait()

	status := StatusReady
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}
	return Snapshot{Status: status, Checks: results, Timestamp: time.Now()}
}

func (c *Checker) run(ctx context.Context, check CheckFunc) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			return Result{Status: StatusUnhealthy, Message: err.Error(), Duration: time.Since(start)}
		}
		return Result{Status: StatusOK, Duration: time.Since(start)}
	case <-ctx.Done():
		return Result{Status: StatusUnhealthy, Message: "check timed out", Duration: time.Since(start)}
	}
}
