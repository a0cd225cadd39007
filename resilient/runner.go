// Package resilient wraps the subprocess package's Run entry point with a
// circuit breaker, for callers that invoke the same external command
// repeatedly and want to stop hammering it once it is reliably failing
// (e.g. a missing binary, a crash loop, a dependency that is down) —
// grounded on the teacher corpus's CircuitBreakerProvider pattern for
// wrapping a flaky remote call.
package resilient

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/duskline/subprocess"
)

// Default breaker settings, mirroring the teacher corpus's LLM circuit
// breaker defaults (5 consecutive failures, 30s open, 60s closed-state
// reset window), scaled down for subprocess spawn latencies rather than
// network round trips.
const (
	defaultMaxFailures uint32        = 5
	defaultOpenTimeout time.Duration = 10 * time.Second
	defaultResetWindow time.Duration = 30 * time.Second
)

// Config configures Runner's circuit breaker.
type Config struct {
	// Name identifies this breaker in logs and the gobreaker state.
	Name string
	// MaxFailures is the number of consecutive spawn/wait failures
	// before the breaker opens. Zero uses the package default.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before allowing one
	// probe call through (half-open). Zero uses the package default.
	OpenTimeout time.Duration
	// ResetWindow is the closed-state interval after which the failure
	// count resets to zero. Zero uses the package default.
	ResetWindow time.Duration
}

// Runner runs CommandExpr values through a gobreaker circuit breaker,
// short-circuiting with gobreaker.ErrOpenState once the wrapped command has failed
// (spawn error or non-zero/signaled exit) MaxFailures times in a row.
type Runner struct {
	breaker *gobreaker.CircuitBreaker[*subprocess.ProcessChain]
}

// NewRunner builds a Runner from cfg, filling zero fields with defaults.
func NewRunner(cfg Config) *Runner {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout == 0 {
		openTimeout = defaultOpenTimeout
	}
	resetWindow := cfg.ResetWindow
	if resetWindow == 0 {
		resetWindow = defaultResetWindow
	}

	cb := gobreaker.NewCircuitBreaker[*subprocess.ProcessChain](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    resetWindow,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &Runner{breaker: cb}
}

// Run executes expr through subprocess.Run(expr, true, stdio...), routed
// through the circuit breaker. Returns the breaker's own ErrOpenState /
// ErrTooManyRequests, wrapped with the breaker's name, when the circuit
// is not letting calls through.
func (r *Runner) Run(expr subprocess.CommandExpr, stdio ...subprocess.Redirectable) (*subprocess.ProcessChain, error) {
	chain, err := r.breaker.Execute(func() (*subprocess.ProcessChain, error) {
		return subprocess.Run(expr, true, stdio...)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("subprocess circuit %q open: %w", r.breaker.Name(), err)
		}
		return nil, err
	}
	return chain, nil
}

// State returns the breaker's current state, for monitoring.
func (r *Runner) State() gobreaker.State { return r.breaker.State() }

// Counts returns the breaker's current failure/success counters.
func (r *Runner) Counts() gobreaker.Counts { return r.breaker.Counts() }
