package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
)

// ErrStoreRequired is returned by New when no progress store is supplied.
var ErrStoreRequired = errors.New("engine: progress store is required")

// Engine owns one form instance. All methods are safe for concurrent use;
// events and Surface callbacks are delivered without the engine lock held.
type Engine struct {
	mu      sync.Mutex
	form    *model.Form
	current int
	pending *transition

	store     *progress.Store
	emitter   events.Emitter
	surface   Surface
	scheduler Scheduler
	delay     time.Duration
	source    string
	logger    zerolog.Logger
}

// New constructs an engine holding an empty schema.
func New(store *progress.Store, options ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	e := &Engine{
		store:     store,
		emitter:   events.Discard,
		surface:   NopSurface{},
		scheduler: TimerScheduler,
		delay:     DefaultTransitionDelay,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	e.form = model.NewForm(model.WithLogger(e.logger))
	return e, nil
}

// Attach loads the payload, if any, and then restores saved progress, which
// takes precedence over the payload.
func (e *Engine) Attach(ctx context.Context, payload []byte) {
	if len(payload) > 0 {
		e.Load(ctx, payload)
	}
	e.Restore(ctx)
}

// Detach completes any pending page transition.
func (e *Engine) Detach() {
	e.Flush()
}

// Load replaces the schema wholesale. A malformed payload is logged and the
// current schema is kept. The page index is kept when it still fits. A
// pending transition is completed against the old schema first.
func (e *Engine) Load(_ context.Context, payload []byte) bool {
	e.Flush()

	e.mu.Lock()
	if !e.form.Load(payload) {
		e.mu.Unlock()
		return false
	}
	if e.current >= e.form.PageCount() {
		e.current = 0
	}
	e.mu.Unlock()

	e.surface.Invalidate()
	return true
}

// Restore installs the saved snapshot for this session. It reports false when
// nothing usable is stored. A pending transition is completed, and so saved,
// before the snapshot is read.
func (e *Engine) Restore(ctx context.Context) bool {
	e.Flush()

	snapshot, ok := e.store.Load(ctx)
	if !ok {
		return false
	}

	e.mu.Lock()
	e.form.Replace(snapshot.FormData)
	e.current = snapshot.CurrentPageIndex
	e.mu.Unlock()

	e.surface.Invalidate()
	return true
}

// GoTo activates the page at index. Out-of-range requests are ignored.
func (e *Engine) GoTo(ctx context.Context, index int) bool {
	return e.navigate(ctx, func(_, _ int) int { return index })
}

// Next moves forward one page unless the last page is active.
func (e *Engine) Next(ctx context.Context) bool {
	return e.navigate(ctx, func(current, _ int) int { return current + 1 })
}

// Previous moves back one page unless the first page is active.
func (e *Engine) Previous(ctx context.Context) bool {
	return e.navigate(ctx, func(current, _ int) int { return current - 1 })
}

// First activates page zero.
func (e *Engine) First(ctx context.Context) bool {
	return e.navigate(ctx, func(_, _ int) int { return 0 })
}

// Last activates the final page.
func (e *Engine) Last(ctx context.Context) bool {
	return e.navigate(ctx, func(_, pages int) int { return pages - 1 })
}

func (e *Engine) navigate(ctx context.Context, target func(current, pages int) int) bool {
	e.mu.Lock()
	pages := e.form.PageCount()
	to := target(e.current, pages)
	if pages == 0 || to < 0 || to >= pages {
		e.mu.Unlock()
		return false
	}

	from := e.current
	e.current = to
	e.pending.cancel()
	tr := &transition{ctx: context.WithoutCancel(ctx), from: from, to: to}
	e.pending = tr
	e.mu.Unlock()

	e.surface.PageLeaving(from)

	if e.delay <= 0 {
		e.complete(tr)
		return true
	}

	stop := e.scheduler.Schedule(e.delay, func() { e.complete(tr) })
	e.mu.Lock()
	if e.pending == tr {
		tr.stop = stop
	} else {
		stop()
	}
	e.mu.Unlock()
	return true
}

// complete runs the entered step of tr and persists, unless tr was
// superseded or already completed.
func (e *Engine) complete(tr *transition) {
	e.mu.Lock()
	if e.pending != tr {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	e.mu.Unlock()

	e.surface.PageEntered(tr.to)

	e.mu.Lock()
	e.persistLocked(tr.ctx)
	e.mu.Unlock()
}

// Flush completes a pending transition now.
func (e *Engine) Flush() {
	e.mu.Lock()
	tr := e.pending
	tr.cancel()
	e.mu.Unlock()

	if tr != nil {
		e.complete(tr)
	}
}

// Transitioning reports whether a page change is waiting for its entered step.
func (e *Engine) Transitioning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// CanSubmit reports whether the last page is active.
func (e *Engine) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canSubmitLocked()
}

func (e *Engine) canSubmitLocked() bool {
	pages := e.form.PageCount()
	return pages > 0 && e.current == pages-1
}

// Submit emits form-submit with every field in page then field order. It is a
// no-op unless the last page is active. Navigation state and saved progress
// are left as they are.
func (e *Engine) Submit(_ context.Context) bool {
	e.mu.Lock()
	if !e.canSubmitLocked() {
		e.mu.Unlock()
		e.logger.Debug().Str("session", e.store.Key()).Msg("submit ignored before last page")
		return false
	}
	fields := e.form.AllFields()
	e.mu.Unlock()

	e.emitter.Emit(events.New(events.FormSubmit, e.source, events.SubmitDetail{Fields: fields}))
	return true
}

// HandleFieldChange stores value on the field with id. On success it asks
// for a redraw, emits field-change and persists, in that order. Unknown ids
// and values of the wrong kind are dropped.
func (e *Engine) HandleFieldChange(ctx context.Context, id string, value model.Value) bool {
	e.mu.Lock()
	if !e.form.SetFieldValue(id, value) {
		e.mu.Unlock()
		e.logger.Debug().Str("field", id).Msg("field change dropped")
		return false
	}
	e.mu.Unlock()

	e.surface.Invalidate()
	e.emitter.Emit(events.New(events.FieldChange, e.source, events.FieldChangeDetail{FieldID: id, Value: value.Clone()}))

	e.mu.Lock()
	e.persistLocked(ctx)
	e.mu.Unlock()
	return true
}

// SetFieldText coerces raw into the field's value kind and applies it with
// HandleFieldChange semantics.
func (e *Engine) SetFieldText(ctx context.Context, id, raw string) bool {
	e.mu.Lock()
	field, ok := e.form.Field(id)
	e.mu.Unlock()
	if !ok {
		e.logger.Debug().Str("field", id).Msg("field set dropped: unknown id")
		return false
	}

	value, err := field.ParseValue(raw)
	if err != nil {
		e.logger.Warn().Err(err).Str("field", id).Msg("field set dropped")
		return false
	}
	return e.HandleFieldChange(ctx, id, value)
}

// Field returns a copy of the field with id.
func (e *Engine) Field(id string) (model.Field, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Field(id)
}

// AllFields flattens the schema in page then field order.
func (e *Engine) AllFields() []model.Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.AllFields()
}

// State returns a consistent copy of the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newState(e.current, e.form.Schema(), e.pending != nil)
}

// SessionKey returns the key progress is saved under.
func (e *Engine) SessionKey() string {
	return e.store.Key()
}

// persistLocked saves the page a transition is leaving until its entered step
// has run, so a reload never lands on a page that was not entered.
func (e *Engine) persistLocked(ctx context.Context) {
	index := e.current
	if e.pending != nil {
		index = e.pending.from
	}
	snapshot := progress.Snapshot{
		CurrentPageIndex: index,
		FormData:         e.form.Schema(),
	}
	if err := e.store.Save(ctx, snapshot); err != nil {
		e.logger.Warn().Err(err).Str("session", e.store.Key()).Msg("progress not saved")
	}
}
