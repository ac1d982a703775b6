package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		switch event.Type {
		case EventCommand:
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event.Command)
		case EventAttempt:
			fmt.Fprintf(&buf, "  [%d] attempt %d %s %s\n", i+1, event.Seq, event.Result, event.Capability)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceContains checks the trace holds the command.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	if countCommand(trace, a.Command) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("command %q", a.Command),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks the commands appear in order. Intervening
// commands are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Commands) && event.Type == EventCommand && event.Command == a.Commands[next] {
			next++
		}
	}
	if next == len(a.Commands) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("commands in order %v", a.Commands),
		Actual:   fmt.Sprintf("only the first %d found in order", next),
		Trace:    trace,
	}
}

// assertTraceCount checks the command appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := countCommand(trace, a.Command)
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("command %q %d times", a.Command, a.Count),
		Actual:   fmt.Sprintf("%d times", n),
		Trace:    trace,
	}
}

func countCommand(trace []TraceEvent, command string) int {
	n := 0
	for _, event := range trace {
		if event.Type == EventCommand && event.Command == command {
			n++
		}
	}
	return n
}
