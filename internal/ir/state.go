package ir

import "strings"

// ModuleState is the lifecycle state of a module as reported by the
// container runtime.
type ModuleState string

const (
	StateUnknown     ModuleState = "UNKNOWN"
	StateUninstalled ModuleState = "UNINSTALLED"
	StateInstalled   ModuleState = "INSTALLED"
	StateResolved    ModuleState = "RESOLVED"
	StateStarting    ModuleState = "STARTING"
	StateStopping    ModuleState = "STOPPING"
	StateActive      ModuleState = "ACTIVE"
)

// ParseModuleState maps a runtime's state label (any case) to a ModuleState.
// Unrecognized labels map to StateUnknown.
func ParseModuleState(label string) ModuleState {
	switch s := ModuleState(strings.ToUpper(strings.TrimSpace(label))); s {
	case StateUninstalled, StateInstalled, StateResolved, StateStarting, StateStopping, StateActive:
		return s
	default:
		return StateUnknown
	}
}

// IsTransient reports whether the state is one a module passes through on
// its own (STARTING, STOPPING). Waits never target transient states.
func (s ModuleState) IsTransient() bool {
	return s == StateStarting || s == StateStopping
}

// InstallOutcome is the result of one install attempt: either success or a
// failure carrying the installer's raw diagnostic text.
type InstallOutcome struct {
	ok      bool
	message string
}

// Succeeded returns the successful outcome.
func Succeeded() InstallOutcome {
	return InstallOutcome{ok: true}
}

// Failed returns a failed outcome with the installer's message.
func Failed(message string) InstallOutcome {
	return InstallOutcome{message: message}
}

// OK reports whether the install succeeded.
func (o InstallOutcome) OK() bool {
	return o.ok
}

// Message returns the raw failure text. Empty for successes.
func (o InstallOutcome) Message() string {
	return o.message
}
