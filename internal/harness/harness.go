package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Lambeaux/steadfast/internal/engine"
	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/placeholder"
	"github.com/Lambeaux/steadfast/internal/simulator"
	"github.com/Lambeaux/steadfast/internal/store"
	"github.com/Lambeaux/steadfast/internal/testutil"
)

// Harness is one scenario's execution environment.
type Harness struct {
	runtime *simulator.Runtime
	logger  *slog.Logger

	// chunks[i] holds the runtime commands issued before install attempt i.
	chunks [][]string
	seen   int
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh workspace and in-memory history database.
// Execution flow:
//  1. Build the simulated container and installer from the scenario
//  2. Run one resolve session, recording it to the history store
//  3. Read the session back and interleave attempts with runtime commands
//  4. Check expectations and assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	root, err := os.MkdirTemp("", "tryinstall-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(root)

	// Suppress logs in scenario runs
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rt := simulator.NewRuntime(simulator.Options{
		Lag:   scenario.Runtime.Lag,
		Stall: scenario.stallStates(),
	})

	wait := testutil.FastWait()
	if scenario.Wait.MaxAttempts > 0 {
		wait.MaxAttempts = scenario.Wait.MaxAttempts
	}
	mgr, err := placeholder.New(placeholder.Options{
		Dir:     filepath.Join(root, placeholder.DirName),
		Clock:   testutil.NewDeterministicClock(time.Millisecond),
		Runtime: rt,
		Wait:    wait,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	h := &Harness{runtime: rt, logger: logger}

	var installer engine.Installer
	if len(scenario.Features) > 0 {
		installer = simulator.NewInstaller(rt, scenario.Features...)
	} else {
		installer = simulator.NewScriptedInstaller(scenario.Messages...)
	}

	var ids *testutil.FixedSessionIDs
	if scenario.SessionID != "" {
		ids = testutil.NewFixedSessionIDs(scenario.SessionID)
	} else {
		ids = testutil.NewFixedSessionIDs()
	}

	eng := engine.New(&tracingInstaller{next: installer, h: h}, mgr,
		engine.WithRecorder(st),
		engine.WithSessionIDs(ids),
		engine.WithClock(testutil.NewFrozenClock()),
		engine.WithLogger(logger),
	)

	session, runErr := eng.Run(ctx, scenario.Feature)

	stored, err := st.ReadSession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	result := NewResult()
	result.Session = stored
	result.Err = runErr
	result.Outcome = outcomeOf(runErr)
	h.buildTrace(result, stored.Attempts)

	checkExpect(result, scenario.Expect, runErr)
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

// tracingInstaller notes which runtime commands preceded each attempt.
type tracingInstaller struct {
	next engine.Installer
	h    *Harness
}

func (t *tracingInstaller) InstallFeature(ctx context.Context, id string) ir.InstallOutcome {
	t.h.chunks = append(t.h.chunks, t.h.newCommands())
	return t.next.InstallFeature(ctx, id)
}

func (h *Harness) newCommands() []string {
	all := h.runtime.Commands()
	fresh := all[h.seen:]
	h.seen = len(all)
	return fresh
}

func (h *Harness) buildTrace(result *Result, attempts []ir.Attempt) {
	for i, a := range attempts {
		if i < len(h.chunks) {
			result.AddCommandTrace(h.chunks[i]...)
		}
		result.AddAttemptTrace(a)
	}
	result.AddCommandTrace(h.newCommands()...)
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

func checkExpect(result *Result, expect Expect, runErr error) {
	if result.Outcome != expect.Outcome {
		msg := fmt.Sprintf("outcome: expected %s, got %s", expect.Outcome, result.Outcome)
		if runErr != nil {
			msg += " (" + runErr.Error() + ")"
		}
		result.AddError(msg)
	}

	if expect.Step != "" {
		step := ""
		var e *ir.Error
		if errors.As(runErr, &e) {
			step = e.Step
		}
		if step != expect.Step {
			result.AddError(fmt.Sprintf("step: expected %s, got %q", expect.Step, step))
		}
	}

	if expect.Attempts > 0 && len(result.Session.Attempts) != expect.Attempts {
		result.AddError(fmt.Sprintf("attempts: expected %d, got %d", expect.Attempts, len(result.Session.Attempts)))
	}

	if expect.Exports != nil {
		got := make([]string, len(result.Session.Exports))
		for i, c := range result.Session.Exports {
			got[i] = c.String()
		}
		if fmt.Sprint(got) != fmt.Sprint(expect.Exports) {
			result.AddError(fmt.Sprintf("exports: expected %v, got %v", expect.Exports, got))
		}
	}
}
