package harness

import "github.com/Lambeaux/steadfast/internal/ir"

// Trace event types.
const (
	EventAttempt = "attempt"
	EventCommand = "command"
)

// TraceEvent is an install attempt or a runtime command, in the order they
// happened.
type TraceEvent struct {
	Type string `json:"type"`

	// Attempt fields.
	Seq        int64  `json:"seq,omitempty"`
	Result     string `json:"result,omitempty"`
	Capability string `json:"capability,omitempty"`

	// Command is the runtime command, e.g. "stop 1".
	Command string `json:"command,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the session matched every expectation and assertion.
	Pass bool `json:"pass"`

	// Outcome is "success", the session's error code, or "error" for an
	// error without a code.
	Outcome string `json:"outcome"`

	// Trace interleaves attempts and runtime commands.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Session is the session as read back from the history store.
	Session *ir.Session `json:"session"`

	// Err is the session's terminal error, if any.
	Err error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddAttemptTrace adds an install attempt to the trace.
func (r *Result) AddAttemptTrace(a ir.Attempt) {
	ev := TraceEvent{Type: EventAttempt, Seq: a.Seq, Result: a.Result}
	if a.Capability != nil {
		ev.Capability = a.Capability.String()
	}
	r.Trace = append(r.Trace, ev)
}

// AddCommandTrace adds runtime commands to the trace.
func (r *Result) AddCommandTrace(commands ...string) {
	for _, c := range commands {
		r.Trace = append(r.Trace, TraceEvent{Type: EventCommand, Command: c})
	}
}

// Commands returns the runtime commands in the trace.
func (r *Result) Commands() []string {
	var out []string
	for _, ev := range r.Trace {
		if ev.Type == EventCommand {
			out = append(out, ev.Command)
		}
	}
	return out
}
