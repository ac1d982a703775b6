package harness

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// TraceSnapshot captures what a golden file compares: the session's outcome,
// final exports and trace.
type TraceSnapshot struct {
	ScenarioName string
	SessionID    string
	Outcome      string
	Step         string
	Exports      []string
	Trace        []TraceEvent
}

// NewTraceSnapshot builds the snapshot for a scenario result.
func NewTraceSnapshot(name string, result *Result) *TraceSnapshot {
	s := &TraceSnapshot{
		ScenarioName: name,
		Outcome:      result.Outcome,
		Exports:      []string{},
		Trace:        result.Trace,
	}
	if result.Session != nil {
		s.SessionID = result.Session.ID
		for _, c := range result.Session.Exports {
			s.Exports = append(s.Exports, c.String())
		}
	}
	var e *ir.Error
	if errors.As(result.Err, &e) {
		s.Step = e.Step
	}
	return s
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{"type": event.Type}
		switch event.Type {
		case EventAttempt:
			eventMap["seq"] = event.Seq
			eventMap["result"] = event.Result
			if event.Capability != "" {
				eventMap["capability"] = event.Capability
			}
		case EventCommand:
			eventMap["command"] = event.Command
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"session_id":    s.SessionID,
		"outcome":       s.Outcome,
		"exports":       s.Exports,
		"trace":         traceList,
	}
	if s.Step != "" {
		result["step"] = s.Step
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass as well.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := NewTraceSnapshot(name, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)

	return nil
}
