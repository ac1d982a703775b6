package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lambeaux/steadfast/internal/diagnostic"
	"github.com/Lambeaux/steadfast/internal/ir"
)

// Installer attempts to install a feature by identifier.
//
// Failures come back as an outcome, not an error: the failure text is the
// input the loop diagnoses.
type Installer interface {
	InstallFeature(ctx context.Context, id string) ir.InstallOutcome
}

// Patcher owns the placeholder module. Implemented by *placeholder.Manager.
type Patcher interface {
	Initialize(ctx context.Context) error
	Exports() []ir.Capability
	AddCapabilityAndReload(ctx context.Context, c ir.Capability) error
}

// Recorder persists session history. Implemented by *store.Store.
//
// Recording is best effort: a Recorder error is logged and the session
// carries on.
type Recorder interface {
	BeginSession(ctx context.Context, s *ir.Session) error
	RecordAttempt(ctx context.Context, sessionID string, a ir.Attempt) error
	EndSession(ctx context.Context, s *ir.Session) error
}

// Engine runs resolve sessions.
type Engine struct {
	installer Installer
	patcher   Patcher
	recorder  Recorder
	ids       SessionIDGenerator
	clock     ir.Clock
	logger    *slog.Logger
	workspace string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder records every session and attempt to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithSessionIDs overrides the UUIDv7 session id generator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock overrides the wall clock used for session timestamps.
func WithClock(c ir.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWorkspace labels recorded sessions with the placeholder workspace.
func WithWorkspace(dir string) Option {
	return func(e *Engine) {
		e.workspace = dir
	}
}

// New creates an Engine over installer and patcher.
func New(installer Installer, patcher Patcher, opts ...Option) *Engine {
	e := &Engine{
		installer: installer,
		patcher:   patcher,
		ids:       UUIDv7Generator{},
		clock:     ir.SystemClock{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run installs feature, patching the placeholder module with each missing
// package the installer reports until the install succeeds or the session
// hits a terminal failure.
//
// The returned session is never nil and describes every attempt. The error
// is nil on success and an *ir.Error otherwise, except for a bare context
// error when ctx ends before the first attempt.
func (e *Engine) Run(ctx context.Context, feature string) (*ir.Session, error) {
	s := &ir.Session{
		ID:        e.ids.Generate(),
		Feature:   feature,
		Workspace: e.workspace,
		StartedAt: e.clock.Now().UTC(),
		Attempts:  []ir.Attempt{},
		Exports:   []ir.Capability{},
	}
	log := e.logger.With("session", s.ID, "feature", feature)
	e.record(log, "begin session", func() error { return e.recorder.BeginSession(ctx, s) })

	log.Debug("initializing placeholder module")
	if err := e.patcher.Initialize(ctx); err != nil {
		return e.finish(ctx, log, s, err)
	}

	run := &session{
		engine:  e,
		log:     log,
		state:   ir.SessionAttempting,
		exports: ir.NewExportSet(e.patcher.Exports()...),
		clock:   NewClock(),
		s:       s,
	}
	err := run.loop(ctx)
	return e.finish(ctx, log, s, err)
}

// session is the mutable state of one Run.
type session struct {
	engine  *Engine
	log     *slog.Logger
	state   ir.SessionState
	exports *ir.ExportSet
	clock   *Clock
	s       *ir.Session

	attempt ir.Attempt
	outcome ir.InstallOutcome
	next    ir.Capability
}

func (r *session) loop(ctx context.Context) error {
	for {
		switch r.state {
		case ir.SessionAttempting:
			if err := ctx.Err(); err != nil {
				return err
			}
			r.attempt = ir.Attempt{Seq: r.clock.Next()}
			r.log.Info("installing feature", "attempt", r.attempt.Seq, "exports", r.exports.Len())
			r.outcome = r.engine.installer.InstallFeature(ctx, r.s.Feature)
			if r.outcome.OK() {
				r.attempt.Result = ir.ResultSucceeded
				r.commit(ctx)
				r.transition(ir.SessionDone)
				return nil
			}
			r.attempt.Message = r.outcome.Message()
			r.transition(ir.SessionDiagnosing)

		case ir.SessionDiagnosing:
			c, err := diagnostic.Extract(r.outcome.Message())
			if err != nil {
				r.fail(ctx)
				return err
			}
			r.attempt.Capability = &c
			if r.exports.Contains(c) {
				r.fail(ctx)
				return ir.NewRepeatError(c, ir.FailureMessage(r.outcome.Message()))
			}
			r.next = c
			r.transition(ir.SessionPatching)

		case ir.SessionPatching:
			r.log.Info("providing missing package", "package", r.next.Package, "version", r.next.MinVersion)
			if err := r.engine.patcher.AddCapabilityAndReload(ctx, r.next); err != nil {
				r.fail(ctx)
				return err
			}
			r.exports.Append(r.next)
			r.attempt.Result = ir.ResultPatched
			r.commit(ctx)
			r.transition(ir.SessionAttempting)

		default:
			return fmt.Errorf("engine: unexpected state %s", r.state)
		}
	}
}

func (r *session) transition(to ir.SessionState) {
	r.log.Debug("state transition", "from", r.state, "to", to)
	r.state = to
}

func (r *session) fail(ctx context.Context) {
	r.attempt.Result = ir.ResultFailed
	r.commit(ctx)
}

func (r *session) commit(ctx context.Context) {
	a := r.attempt
	r.s.Attempts = append(r.s.Attempts, a)
	r.engine.record(r.log, "record attempt", func() error {
		return r.engine.recorder.RecordAttempt(ctx, r.s.ID, a)
	})
}

// finish stamps the session with its terminal result.
func (e *Engine) finish(ctx context.Context, log *slog.Logger, s *ir.Session, err error) (*ir.Session, error) {
	s.FinishedAt = e.clock.Now().UTC()
	s.Exports = e.patcher.Exports()
	if err == nil {
		s.Succeeded = true
		log.Info("feature installed", "attempts", len(s.Attempts), "exports", len(s.Exports))
	} else {
		s.ErrorCode = ir.CodeOf(err)
		s.Error = err.Error()
		log.Error("resolve session failed", "code", s.ErrorCode, "error", err)
	}
	// History must survive a cancelled run.
	e.record(log, "end session", func() error {
		return e.recorder.EndSession(context.WithoutCancel(ctx), s)
	})
	return s, err
}

func (e *Engine) record(log *slog.Logger, what string, fn func() error) {
	if e.recorder == nil {
		return
	}
	if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("history write failed", "op", what, "error", err)
	}
}
