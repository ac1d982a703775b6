// Package lifecycle waits for a module to reach a lifecycle state.
//
// Module state changes happen asynchronously relative to the commands that
// trigger them, and the container runtime offers no notification when they
// complete. Wait polls instead, with a fixed delay and a fixed attempt
// budget so a stuck module fails the session rather than hanging it.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// Defaults for Policy: 20 polls 100ms apart, roughly two seconds.
const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultMaxAttempts = 20
)

// Policy bounds a wait.
type Policy struct {
	// Interval is the delay between two polls. Default: 100ms.
	Interval time.Duration
	// MaxAttempts is the total number of polls. Default: 20.
	MaxAttempts int
	// Logger overrides the default slog logger.
	Logger *slog.Logger
	// Sleep overrides the delay between polls. Tests use it to avoid real
	// sleeps; it must honor ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the 100ms x 20 policy.
func DefaultPolicy() Policy {
	return Policy{Interval: DefaultInterval, MaxAttempts: DefaultMaxAttempts}
}

func (p *Policy) defaults() {
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
}

// StateQuery reports a module's current state.
type StateQuery func(ctx context.Context) (ir.ModuleState, error)

// Wait polls query until it reports target.
//
// It returns nil on the first poll that observes target. After exactly
// MaxAttempts polls without it, Wait returns a LIFECYCLE_FAILURE naming step
// and carrying reason. A query error counts as a non-matching poll; the last
// one is chained as the failure's cause.
func Wait(ctx context.Context, policy Policy, step string, query StateQuery, target ir.ModuleState, reason string) error {
	policy.defaults()

	var (
		last    ir.ModuleState
		lastErr error
	)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		state, err := query(ctx)
		if err == nil && state == target {
			policy.Logger.Debug("module reached state",
				"step", step, "state", target, "attempt", attempt)
			return nil
		}
		last, lastErr = state, err

		if attempt == policy.MaxAttempts {
			break
		}
		if err := policy.Sleep(ctx, policy.Interval); err != nil {
			return ir.NewLifecycleError(step, reason, fmt.Errorf("wait interrupted: %w", err))
		}
	}

	policy.Logger.Debug("module did not reach state",
		"step", step, "want", target, "last", last, "attempts", policy.MaxAttempts)
	if lastErr != nil {
		return ir.NewLifecycleError(step, reason, lastErr)
	}
	return ir.NewLifecycleError(step, reason,
		fmt.Errorf("state %s after %d attempts, want %s", last, policy.MaxAttempts, target))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
