package simulator

import (
	"context"
	"strings"
	"sync"

	"github.com/Lambeaux/steadfast/internal/diagnostic"
	"github.com/Lambeaux/steadfast/internal/ir"
)

// Requirement is a package a feature's bundle imports in [Min, Max).
type Requirement struct {
	Package string `yaml:"package" json:"package"`
	Min     string `yaml:"min" json:"min"`
	Max     string `yaml:"max" json:"max"`
	// Unsatisfiable requirements stay missing whatever is exported, like an
	// import whose version range no textual export can meet.
	Unsatisfiable bool `yaml:"unsatisfiable,omitempty" json:"unsatisfiable,omitempty"`
}

// Feature is an installable feature with one bundle.
type Feature struct {
	Name     string        `yaml:"name" json:"name"`
	Version  string        `yaml:"version" json:"version"`
	Bundle   string        `yaml:"bundle" json:"bundle"`
	Requires []Requirement `yaml:"requires" json:"requires"`
}

// ID returns name/version.
func (f Feature) ID() string {
	return f.Name + "/" + f.Version
}

// Installer installs features against a simulated runtime. An install fails
// with a nested resolution diagnostic naming the first requirement no ACTIVE
// module exports.
type Installer struct {
	mu        sync.Mutex
	runtime   *Runtime
	features  map[string]Feature
	installed []string
	attempts  int
}

// NewInstaller creates an installer that knows features.
func NewInstaller(rt *Runtime, features ...Feature) *Installer {
	in := &Installer{runtime: rt, features: make(map[string]Feature)}
	for _, f := range features {
		in.features[f.Name] = f
		in.features[f.ID()] = f
	}
	return in
}

// InstallFeature resolves id against the runtime's active exports.
func (in *Installer) InstallFeature(_ context.Context, id string) ir.InstallOutcome {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.attempts++

	f, ok := in.features[id]
	if !ok {
		name, version, _ := strings.Cut(id, "/")
		if version == "" {
			version = "0.0.0"
		}
		return ir.Failed(diagnostic.NewChain("root").Feature(name, version).String())
	}

	exported := ir.NewExportSet()
	for _, c := range in.runtime.ActiveExports() {
		if !exported.Contains(c) {
			exported.Append(c)
		}
	}
	for _, req := range f.Requires {
		if req.Unsatisfiable || !exported.Contains(ir.Capability{Package: req.Package, MinVersion: req.Min}) {
			return ir.Failed(diagnostic.NewChain("root").
				Feature(f.Name, f.Version).
				Bundle(f.Bundle, f.Version).
				Package(req.Package, req.Min, req.Max).
				String())
		}
	}

	in.installed = append(in.installed, f.ID())
	return ir.Succeeded()
}

// Attempts returns the number of InstallFeature calls.
func (in *Installer) Attempts() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.attempts
}

// Installed returns the ids of successfully installed features.
func (in *Installer) Installed() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string{}, in.installed...)
}

// ScriptedInstaller replays fixed outcomes: each entry is a failure message,
// and an empty entry is a success. After the script runs out every install
// succeeds.
type ScriptedInstaller struct {
	mu       sync.Mutex
	script   []string
	attempts int
}

// NewScriptedInstaller creates an installer replaying messages.
func NewScriptedInstaller(messages ...string) *ScriptedInstaller {
	return &ScriptedInstaller{script: messages}
}

// InstallFeature returns the next scripted outcome.
func (s *ScriptedInstaller) InstallFeature(context.Context, string) ir.InstallOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.attempts
	s.attempts++
	if i >= len(s.script) || s.script[i] == "" {
		return ir.Succeeded()
	}
	return ir.Failed(s.script[i])
}

// Attempts returns the number of InstallFeature calls.
func (s *ScriptedInstaller) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
