package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/simulator"
)

// OutcomeSuccess is the expected outcome of a session that installs the
// feature. Failed sessions are expected by error code.
const OutcomeSuccess = "success"

// Scenario is one resolve session against the simulated container.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Feature is the feature id passed to the resolve loop.
	Feature string `yaml:"feature"`

	// Features is the simulated feature catalog.
	Features []simulator.Feature `yaml:"features,omitempty"`

	// Messages scripts the installer's outcomes instead of a catalog.
	Messages []string `yaml:"messages,omitempty"`

	Runtime RuntimeSpec `yaml:"runtime,omitempty"`
	Wait    WaitSpec    `yaml:"wait,omitempty"`

	Expect Expect `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`

	// SessionID is a fixed session id. Default: "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`
}

// RuntimeSpec tunes the simulated container.
type RuntimeSpec struct {
	Lag   int      `yaml:"lag,omitempty"`
	Stall []string `yaml:"stall,omitempty"`
}

// WaitSpec overrides the lifecycle wait budget.
type WaitSpec struct {
	MaxAttempts int `yaml:"max_attempts,omitempty"`
}

// Expect is the expected session result.
type Expect struct {
	// Outcome is "success" or an error code such as REPEAT_CAPABILITY.
	Outcome string `yaml:"outcome"`
	// Step is the stalled lifecycle step for LIFECYCLE_FAILURE.
	Step string `yaml:"step,omitempty"`
	// Attempts is the expected number of install attempts. 0 skips the check.
	Attempts int `yaml:"attempts,omitempty"`
	// Exports lists the final exports as package/version, in order. nil
	// skips the check.
	Exports []string `yaml:"exports,omitempty"`
}

// Assertion validates the runtime command trace.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count.
	Type string `yaml:"type"`

	// Command is a runtime command such as "update 1" (trace_contains,
	// trace_count).
	Command string `yaml:"command,omitempty"`

	// Commands is the expected order (trace_order).
	Commands []string `yaml:"commands,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

var outcomes = map[string]bool{
	OutcomeSuccess:                      true,
	string(ir.ErrCodeExtractionFailure): true,
	string(ir.ErrCodeRepeatCapability):  true,
	string(ir.ErrCodeWorkspaceFailure):  true,
	string(ir.ErrCodeManifestConflict):  true,
	string(ir.ErrCodeLifecycleFailure):  true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Feature == "" {
		return fmt.Errorf("feature is required")
	}

	if len(s.Features) > 0 && len(s.Messages) > 0 {
		return fmt.Errorf("features and messages are mutually exclusive")
	}

	for i, f := range s.Features {
		if f.Name == "" || f.Version == "" {
			return fmt.Errorf("features[%d]: name and version are required", i)
		}
		for j, req := range f.Requires {
			if req.Package == "" || req.Min == "" || req.Max == "" {
				return fmt.Errorf("features[%d].requires[%d]: package, min and max are required", i, j)
			}
		}
	}

	if s.Runtime.Lag < 0 {
		return fmt.Errorf("runtime.lag must be non-negative")
	}
	for i, label := range s.Runtime.Stall {
		state := ir.ParseModuleState(label)
		if state == ir.StateUnknown || state.IsTransient() {
			return fmt.Errorf("runtime.stall[%d]: %q is not a settled module state", i, label)
		}
	}

	if s.Wait.MaxAttempts < 0 {
		return fmt.Errorf("wait.max_attempts must be non-negative")
	}

	if !outcomes[s.Expect.Outcome] {
		return fmt.Errorf("expect.outcome %q is not success or a known error code", s.Expect.Outcome)
	}
	if s.Expect.Step != "" && s.Expect.Outcome != string(ir.ErrCodeLifecycleFailure) {
		return fmt.Errorf("expect.step is only valid with %s", ir.ErrCodeLifecycleFailure)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Commands) == 0 {
			return fmt.Errorf("assertions[%d]: commands list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func (s *Scenario) stallStates() []ir.ModuleState {
	states := make([]ir.ModuleState, len(s.Runtime.Stall))
	for i, label := range s.Runtime.Stall {
		states[i] = ir.ParseModuleState(label)
	}
	return states
}
