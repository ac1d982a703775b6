package ir

import "time"

// SessionState is a state of the resolve loop.
type SessionState string

const (
	SessionAttempting SessionState = "ATTEMPTING"
	SessionDiagnosing SessionState = "DIAGNOSING"
	SessionPatching   SessionState = "PATCHING"
	SessionDone       SessionState = "DONE"
)

// Attempt results.
const (
	ResultSucceeded = "succeeded"
	ResultPatched   = "patched"
	ResultFailed    = "failed"
)

// Attempt is one install call and what the loop did about it.
type Attempt struct {
	Seq int64 `json:"seq"`
	// Result is ResultSucceeded, ResultPatched (a capability was added and
	// the loop retried) or ResultFailed (the session ended here).
	Result string `json:"result"`
	// Message is the installer's failure text. Empty on success.
	Message string `json:"message,omitempty"`
	// Capability is the missing package extracted from Message, if any.
	Capability *Capability `json:"capability,omitempty"`
}

// Session is one resolve run from initialization to a terminal state.
type Session struct {
	ID         string       `json:"id"`
	Feature    string       `json:"feature"`
	Workspace  string       `json:"workspace,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Attempts   []Attempt    `json:"attempts"`
	Exports    []Capability `json:"exports"`
	// Fingerprint is ExportsFingerprint(Exports), filled in by the history store.
	Fingerprint string `json:"fingerprint,omitempty"`
	// Succeeded is true when the last install attempt succeeded.
	Succeeded bool `json:"succeeded"`
	// ErrorCode and Error describe the terminal failure, if any.
	ErrorCode ErrorCode `json:"error_code,omitempty"`
	Error     string    `json:"error,omitempty"`
}
