// Package placeholder manages the placeholder module: a payload-free archive
// whose manifest claims to export packages it does not contain, and the live
// module the container runtime loads from it.
//
// The archive is always fully rewritten from a fixed base attribute set plus
// the current export set, never patched in place. After every successful
// rewrite the live module is reloaded and left ACTIVE.
package placeholder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/Lambeaux/steadfast/internal/container"
	"github.com/Lambeaux/steadfast/internal/ir"
	"github.com/Lambeaux/steadfast/internal/lifecycle"
)

const (
	// DirName is the workspace directory under the runtime's temp root.
	DirName = "tryinstall"

	// JarName is the placeholder archive's file name.
	JarName = "mock.jar"
)

// Lifecycle step names reported in LIFECYCLE_FAILURE errors.
const (
	StepInstall = "install"
	StepLookup  = "lookup"
	StepResolve = "resolve"
	StepUpdate  = "update"
	StepStart   = "start"
)

// Options configures a Manager.
type Options struct {
	// Dir is the workspace directory. It is wiped by Initialize.
	Dir string
	// Base is the fixed attribute set. Default: DefaultBase(DefaultBaseOptions()).
	Base Attributes
	// Clock stamps Fti-LastModified and the archive entry. Default: ir.SystemClock.
	Clock ir.Clock
	// Runtime hosts the placeholder module. Required.
	Runtime container.Runtime
	// Wait bounds every lifecycle wait.
	Wait lifecycle.Policy
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

// Manager owns the placeholder archive and its export set for one session.
// It is not safe for concurrent use, and two Managers must not share a Dir.
type Manager struct {
	opts     Options
	jarPath  string
	location string
	exports  *ir.ExportSet
}

// New creates a Manager. Nothing touches disk or the runtime until Initialize.
func New(opts Options) (*Manager, error) {
	if opts.Dir == "" {
		return nil, errors.New("placeholder: workspace dir is required")
	}
	if opts.Runtime == nil {
		return nil, errors.New("placeholder: container runtime is required")
	}
	if opts.Base == nil {
		opts.Base = DefaultBase(DefaultBaseOptions())
	}
	if opts.Clock == nil {
		opts.Clock = ir.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Wait.Logger == nil {
		opts.Wait.Logger = opts.Logger
	}

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("placeholder: resolve workspace dir: %w", err)
	}
	opts.Dir = dir
	jarPath := filepath.Join(dir, JarName)

	return &Manager{
		opts:     opts,
		jarPath:  jarPath,
		location: FileURI(jarPath),
		exports:  &ir.ExportSet{},
	}, nil
}

// FileURI returns the file: URI the runtime uses as the module location.
func FileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// JarPath returns the archive's absolute path.
func (m *Manager) JarPath() string {
	return m.jarPath
}

// Location returns the archive's location URI.
func (m *Manager) Location() string {
	return m.location
}

// Exports returns the declared capabilities in declaration order.
func (m *Manager) Exports() []ir.Capability {
	return m.exports.Capabilities()
}

// Initialize wipes the workspace, writes an archive with no exports, and
// brings the placeholder module to ACTIVE.
//
// A module already installed from the archive's location (left over from an
// earlier session) is reloaded instead of installed again.
func (m *Manager) Initialize(ctx context.Context) error {
	log := m.opts.Logger
	log.Debug("clearing workspace", "dir", m.opts.Dir)
	if err := ResetDir(m.opts.Dir); err != nil {
		return ir.NewWorkspaceError(m.opts.Dir, err)
	}

	m.exports = &ir.ExportSet{}
	if err := m.write(m.exports); err != nil {
		return err
	}

	h, found, err := m.opts.Runtime.Lookup(ctx, m.location)
	if err != nil {
		return ir.NewLifecycleError(StepLookup, "cannot look up the placeholder module", err)
	}
	if found {
		log.Debug("placeholder module already exists, reloading", "location", m.location, "id", h.ID())
		return m.reload(ctx, h)
	}

	log.Debug("placeholder module does not exist, installing", "location", m.location)
	h, err = m.opts.Runtime.Install(ctx, m.location)
	if err != nil {
		return ir.NewLifecycleError(StepInstall, "cannot install the placeholder module", err)
	}
	if err := h.Start(ctx); err != nil {
		return ir.NewLifecycleError(StepInstall, "cannot start the placeholder module", err)
	}
	return m.wait(ctx, StepInstall, h, ir.StateActive,
		"cannot run tryinstall if the placeholder module is not active")
}

// AddCapabilityAndReload declares c, rewrites the archive, and reloads the
// live module. The caller has already checked c is new.
//
// If the rewrite fails the export set is left unchanged. A failed reload is
// not retried; the session must end.
func (m *Manager) AddCapabilityAndReload(ctx context.Context, c ir.Capability) error {
	if m.exports.Contains(c) {
		return ir.NewRepeatError(c, nil)
	}

	next := ir.NewExportSet(append(m.exports.Capabilities(), c)...)
	if err := m.write(next); err != nil {
		return err
	}
	m.exports = next
	m.opts.Logger.Debug("providing package", "package", c.Package, "version", c.MinVersion, "exports", next.Len())

	h, found, err := m.opts.Runtime.Lookup(ctx, m.location)
	if err != nil {
		return ir.NewLifecycleError(StepLookup, "cannot look up the placeholder module", err)
	}
	if !found {
		return ir.NewLifecycleError(StepLookup, "cannot reload a placeholder module that was never installed", nil)
	}
	return m.reload(ctx, h)
}

// Rewrite writes the archive again for the current exports without touching
// the live module.
func (m *Manager) Rewrite() error {
	return m.write(m.exports)
}

func (m *Manager) write(exports *ir.ExportSet) error {
	now := m.opts.Clock.Now()
	attrs, err := ComposeManifest(m.opts.Base, ExportAttributes(exports), now)
	if err != nil {
		return err
	}
	m.opts.Logger.Debug("writing jar", "path", m.jarPath)
	if err := WriteJar(m.jarPath, attrs.Marshal(), now); err != nil {
		return ir.NewWorkspaceError(m.opts.Dir, err)
	}
	return nil
}

// reload walks the module through stop, update and start, waiting for each
// state change to land.
func (m *Manager) reload(ctx context.Context, h container.Handle) error {
	if err := h.Stop(ctx); err != nil {
		return ir.NewLifecycleError(StepResolve, "cannot stop the placeholder module", err)
	}
	if err := m.wait(ctx, StepResolve, h, ir.StateResolved,
		"during a refresh attempt, the module was not stopped fast enough"); err != nil {
		return err
	}

	if err := h.Update(ctx); err != nil {
		return ir.NewLifecycleError(StepUpdate, "cannot update the placeholder module", err)
	}
	if err := m.wait(ctx, StepUpdate, h, ir.StateInstalled,
		"during a refresh attempt, the module was not updated fast enough"); err != nil {
		return err
	}

	if err := h.Start(ctx); err != nil {
		return ir.NewLifecycleError(StepStart, "cannot start the placeholder module", err)
	}
	return m.wait(ctx, StepStart, h, ir.StateActive,
		"during a refresh attempt, the module was not started fast enough")
}

func (m *Manager) wait(ctx context.Context, step string, h container.Handle, target ir.ModuleState, reason string) error {
	return lifecycle.Wait(ctx, m.opts.Wait, step, h.State, target, reason)
}
