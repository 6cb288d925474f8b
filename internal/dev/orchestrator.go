package dev

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/router"
)

// State is the orchestrator's position in a compile pass.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateCompiling
	StateEmitting
	StateError
)

var stateNames = [...]string{"idle", "scanning", "compiling", "emitting", "error"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Notifier is told about the outcome of each pass. *ReloadServer
// implements it.
type Notifier interface {
	NotifyReload(pass string, routes int)
	NotifyError(msg string)
	ClearError()
}

// Options configures an Orchestrator.
type Options struct {
	// Compiler configures the pipeline. Its Progress hook is set by the
	// orchestrator.
	Compiler router.Options

	Emitter emit.Emitter

	// Target is used to build the manifest served in dev mode.
	Target emit.Target

	// Sink receives every artifact that compiles. Nil keeps artifacts in
	// memory only.
	Sink emit.Sink

	// Callback, if set, also receives every artifact.
	Callback func(ctx context.Context, a emit.Artifact) error

	// Debounce collapses bursts of triggers into one pass.
	Debounce time.Duration

	Notifier Notifier
	Metrics  *Metrics
	Logger   *slog.Logger
}

// Result is the output of a successful pass.
type Result struct {
	Pass     string
	Table    *router.Table
	Artifact emit.Artifact
	Manifest *emit.Manifest
	Changed  bool
	Duration time.Duration
	At       time.Time
}

// Status is a snapshot of the orchestrator.
type Status struct {
	State     State     `json:"state"`
	Routes    int       `json:"routes"`
	Pass      string    `json:"pass,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// Orchestrator runs compile passes on demand. Passes never overlap:
// triggers that arrive while a pass runs are folded into a single
// follow-up pass. The last good result stays available while later passes
// fail.
type Orchestrator struct {
	opts     Options
	compiler *router.Compiler
	sinks    emit.MultiSink
	log      *slog.Logger

	state   atomic.Int32
	last    atomic.Pointer[Result]
	lastErr atomic.Pointer[error]

	// wake holds at most one pending pass.
	wake chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewOrchestrator creates an orchestrator. Configuration errors of the
// compiler are reported here.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Emitter == nil {
		return nil, stderrors.New("dev: orchestrator needs an emitter")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	o := &Orchestrator{
		opts: opts,
		log:  log,
		wake: make(chan struct{}, 1),
	}

	copts := opts.Compiler
	if copts.Logger == nil {
		copts.Logger = log
	}
	copts.Progress = o.progress
	c, err := router.NewCompiler(copts)
	if err != nil {
		return nil, err
	}
	o.compiler = c

	if opts.Sink != nil {
		o.sinks = append(o.sinks, opts.Sink)
	}
	if opts.Callback != nil {
		o.sinks = append(o.sinks, emit.CallbackSink(opts.Callback))
	}
	return o, nil
}

func (o *Orchestrator) progress(s router.Stage) {
	switch s {
	case router.StageScan:
		o.setState(StateScanning)
	case router.StageCompile:
		o.setState(StateCompiling)
	}
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Latest returns the last good result, or nil before the first success.
func (o *Orchestrator) Latest() *Result {
	return o.last.Load()
}

// LastError returns the error of the last pass, or nil if it succeeded.
func (o *Orchestrator) LastError() error {
	if p := o.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Status returns a snapshot for display.
func (o *Orchestrator) Status() Status {
	st := Status{State: o.State()}
	if r := o.Latest(); r != nil {
		st.Routes = r.Table.Len()
		st.Pass = r.Pass
		st.UpdatedAt = r.At
	}
	if err := o.LastError(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Trigger schedules a pass and returns immediately. Triggers within the
// debounce window share one pass.
func (o *Orchestrator) Trigger() {
	if o.opts.Debounce <= 0 {
		o.fire()
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil && o.timer.Stop() {
		o.opts.Metrics.coalesce()
	}
	o.timer = time.AfterFunc(o.opts.Debounce, o.fire)
}

func (o *Orchestrator) fire() {
	select {
	case o.wake <- struct{}{}:
	default:
		// A pass is already pending.
		o.opts.Metrics.coalesce()
	}
}

// Run performs an initial pass and then one pass per wake-up until ctx is
// done. Compile errors never stop Run.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer func() {
		o.mu.Lock()
		if o.timer != nil {
			o.timer.Stop()
		}
		o.mu.Unlock()
	}()

	o.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-o.wake:
			o.RunOnce(ctx)
		}
	}
}

// RunOnce performs one pass synchronously. It must not be called while Run
// is active.
func (o *Orchestrator) RunOnce(ctx context.Context) (*Result, error) {
	pass := uuid.NewString()
	start := time.Now()
	log := o.log.With("pass", pass)

	res, err := o.pass(ctx, pass)
	elapsed := time.Since(start)

	if err != nil {
		o.setState(StateError)
		o.lastErr.Store(&err)
		o.opts.Metrics.pass(false, elapsed.Seconds(), 0)
		log.Error("route compile failed", "error", err)
		if o.opts.Notifier != nil {
			o.opts.Notifier.NotifyError(formatError(err))
		}
		return nil, err
	}

	res.Duration = elapsed
	hadErr := o.LastError() != nil
	o.last.Store(res)
	o.lastErr.Store(nil)
	o.setState(StateIdle)
	o.opts.Metrics.pass(true, elapsed.Seconds(), res.Table.Len())
	log.Info("routes compiled", "routes", res.Table.Len(), "changed", res.Changed, "duration", elapsed.Round(time.Millisecond))

	if n := o.opts.Notifier; n != nil {
		if hadErr {
			n.ClearError()
		}
		if res.Changed || hadErr {
			n.NotifyReload(pass, res.Table.Len())
		}
	}
	return res, nil
}

func (o *Orchestrator) pass(ctx context.Context, pass string) (*Result, error) {
	table, err := o.compiler.Compile(ctx)
	if err != nil {
		return nil, err
	}

	o.setState(StateEmitting)
	ctx, span := otel.Tracer("routec").Start(ctx, "routec.emit")
	defer span.End()
	span.SetAttributes(
		attribute.String("routec.pass", pass),
		attribute.String("routec.mode", string(o.opts.Emitter.Mode())),
	)

	a, err := o.opts.Emitter.Emit(table)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	manifest := a.Manifest
	if manifest == nil {
		manifest = emit.BuildManifest(table, o.opts.Target)
	}

	changed := true
	if prev := o.Latest(); prev != nil {
		changed = string(prev.Artifact.Content) != string(a.Content)
	}
	if len(o.sinks) > 0 {
		wrote, err := o.sinks.Write(ctx, a)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		changed = changed || wrote
	}

	return &Result{
		Pass:     pass,
		Table:    table,
		Artifact: a,
		Manifest: manifest,
		Changed:  changed,
		At:       time.Now(),
	}, nil
}

// formatError renders err for clients, without terminal colors, one line
// per coded error.
func formatError(err error) string {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, e := range multi.Unwrap() {
			lines = append(lines, formatError(e))
		}
		return strings.Join(lines, "\n")
	}
	var re *routecerrors.Error
	if stderrors.As(err, &re) {
		msg := re.FormatCompact()
		if len(re.Files) > 0 && re.Location == nil {
			msg += " (" + strings.Join(re.Files, ", ") + ")"
		}
		return msg
	}
	return err.Error()
}
