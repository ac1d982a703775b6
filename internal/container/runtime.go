// Package container defines the module container operations a resolve
// session drives: installing a module from a location, finding it again, and
// moving it through its lifecycle.
//
// Implementations: karaf.Client (a running container, through its client
// script) and simulator.Runtime (in memory, for tests and scenarios).
package container

import (
	"context"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// Runtime installs and looks up modules by location URI.
type Runtime interface {
	// Install installs the module archive at location and returns its handle.
	// The module starts in INSTALLED.
	Install(ctx context.Context, location string) (Handle, error)

	// Lookup finds the module installed from location. found is false when no
	// module has that location.
	Lookup(ctx context.Context, location string) (h Handle, found bool, err error)
}

// Handle is a live module owned by the runtime.
//
// Commands return once the runtime has accepted them; the resulting state
// change may land later, so callers poll State.
type Handle interface {
	ID() int64
	Location() string
	State(ctx context.Context) (ir.ModuleState, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Update reloads the module from its location.
	Update(ctx context.Context) error
}
