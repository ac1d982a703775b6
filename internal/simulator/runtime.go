// Package simulator is an in-memory module container. It backs scenario
// runs and tests with the same asynchronous lifecycle a real container has:
// commands are accepted at once and their state change lands a configurable
// number of polls later.
package simulator

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/Lambeaux/steadfast/internal/container"
	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/placeholder"
)

// Options tunes the simulated runtime.
type Options struct {
	// Lag is the number of polls a state change stays in its transient
	// state before settling. 0 settles immediately.
	Lag int
	// Stall lists target states modules never settle into. A module told to
	// reach one stays in the transient state forever.
	Stall []ir.ModuleState
}

// Runtime is a simulated container. It is safe for concurrent use.
type Runtime struct {
	mu      sync.Mutex
	opts    Options
	nextID  int64
	modules map[string]*module
	log     []string
}

var _ container.Runtime = (*Runtime)(nil)

// NewRuntime creates an empty simulated container.
func NewRuntime(opts Options) *Runtime {
	return &Runtime{opts: opts, modules: make(map[string]*module)}
}

type pending struct {
	transient ir.ModuleState
	final     ir.ModuleState
	remaining int
	stalled   bool
}

type module struct {
	rt       *Runtime
	id       int64
	location string
	state    ir.ModuleState
	pending  *pending
	exports  []ir.Capability
}

// Install loads the archive at location and returns an INSTALLED module.
// Installing the same location twice is an error, as in a real container.
func (r *Runtime) Install(_ context.Context, location string) (container.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[location]; ok {
		return nil, fmt.Errorf("module already installed from %s", location)
	}
	exports, err := readExports(location)
	if err != nil {
		return nil, err
	}
	r.nextID++
	m := &module{rt: r, id: r.nextID, location: location, state: ir.StateInstalled, exports: exports}
	r.modules[location] = m
	r.record("install %d", m.id)
	return m, nil
}

// Lookup finds the module installed from location.
func (r *Runtime) Lookup(_ context.Context, location string) (container.Handle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modules[location]
	if !ok {
		return nil, false, nil
	}
	return m, true, nil
}

// ActiveExports returns the packages exported by ACTIVE modules, ordered by
// module id then declaration order.
func (r *Runtime) ActiveExports() []ir.Capability {
	r.mu.Lock()
	defer r.mu.Unlock()

	mods := make([]*module, 0, len(r.modules))
	for _, m := range r.modules {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].id < mods[j].id })

	var caps []ir.Capability
	for _, m := range mods {
		if m.pending == nil && m.state == ir.StateActive {
			caps = append(caps, m.exports...)
		}
	}
	return caps
}

// Commands returns every command the runtime accepted, in order, e.g.
// "install 1", "start 1", "stop 1", "update 1".
func (r *Runtime) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.log...)
}

func (r *Runtime) record(format string, args ...any) {
	r.log = append(r.log, fmt.Sprintf(format, args...))
}

func (r *Runtime) stalls(s ir.ModuleState) bool {
	for _, st := range r.opts.Stall {
		if st == s {
			return true
		}
	}
	return false
}

func (m *module) ID() int64        { return m.id }
func (m *module) Location() string { return m.location }

// State reports the current state, advancing any pending change by one poll.
func (m *module) State(context.Context) (ir.ModuleState, error) {
	m.rt.mu.Lock()
	defer m.rt.mu.Unlock()

	p := m.pending
	if p == nil {
		return m.state, nil
	}
	if p.stalled || p.remaining > 0 {
		if p.remaining > 0 {
			p.remaining--
		}
		return p.transient, nil
	}
	m.state = p.final
	m.pending = nil
	return m.state, nil
}

// Start moves an INSTALLED or RESOLVED module to ACTIVE through STARTING.
// Starting an ACTIVE module is a no-op.
func (m *module) Start(context.Context) error {
	m.rt.mu.Lock()
	defer m.rt.mu.Unlock()

	m.settle()
	switch m.state {
	case ir.StateActive:
		return nil
	case ir.StateInstalled, ir.StateResolved:
		m.rt.record("start %d", m.id)
		m.begin(ir.StateStarting, ir.StateActive)
		return nil
	default:
		return fmt.Errorf("cannot start module %d in state %s", m.id, m.state)
	}
}

// Stop moves an ACTIVE module to RESOLVED through STOPPING. Stopping a
// module that is not ACTIVE is a no-op.
func (m *module) Stop(context.Context) error {
	m.rt.mu.Lock()
	defer m.rt.mu.Unlock()

	m.settle()
	if m.state != ir.StateActive {
		return nil
	}
	m.rt.record("stop %d", m.id)
	m.begin(ir.StateStopping, ir.StateResolved)
	return nil
}

// Update re-reads the archive and leaves the module INSTALLED.
func (m *module) Update(context.Context) error {
	m.rt.mu.Lock()
	defer m.rt.mu.Unlock()

	m.settle()
	if m.state == ir.StateActive {
		return fmt.Errorf("cannot update module %d while ACTIVE", m.id)
	}
	exports, err := readExports(m.location)
	if err != nil {
		return err
	}
	m.exports = exports
	m.rt.record("update %d", m.id)
	m.begin(m.state, ir.StateInstalled)
	return nil
}

func (m *module) begin(transient, final ir.ModuleState) {
	stalled := m.rt.stalls(final)
	if m.rt.opts.Lag == 0 && !stalled {
		m.state = final
		m.pending = nil
		return
	}
	m.pending = &pending{
		transient: transient,
		final:     final,
		remaining: m.rt.opts.Lag,
		stalled:   stalled,
	}
}

// settle lands a pending change before a new command, as a real container
// finishes one transition before accepting the next.
func (m *module) settle() {
	if m.pending != nil && !m.pending.stalled {
		m.state = m.pending.final
		m.pending = nil
	}
}

// readExports reads the Export-Package header of the archive at location.
func readExports(location string) ([]ir.Capability, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse location %q: %w", location, err)
	}
	attrs, err := placeholder.ReadManifest(u.Path)
	if err != nil {
		return nil, err
	}
	value, _ := attrs.Get(placeholder.ExportPackageKey)
	return placeholder.ParseExports(value)
}
