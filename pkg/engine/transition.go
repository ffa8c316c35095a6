package engine

import (
	"context"
	"time"
)

// DefaultTransitionDelay separates the leaving and entered steps.
const DefaultTransitionDelay = 50 * time.Millisecond

// Surface receives presentation callbacks. Implementations must not block.
type Surface interface {
	// PageLeaving is called when the page at index is deactivated.
	PageLeaving(index int)
	// PageEntered is called once the delay elapsed and index is active.
	PageEntered(index int)
	// Invalidate asks for a redraw after a field edit or schema change.
	Invalidate()
}

// NopSurface ignores every callback.
type NopSurface struct{}

func (NopSurface) PageLeaving(int) {}
func (NopSurface) PageEntered(int) {}
func (NopSurface) Invalidate()     {}

// Scheduler runs fn once after delay. Schedule must not call fn before it
// returns. The returned function cancels the call and reports whether it was
// still pending.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) (cancel func() bool)
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(delay time.Duration, fn func()) func() bool

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(delay time.Duration, fn func()) func() bool {
	return f(delay, fn)
}

// TimerScheduler schedules on the runtime timer.
var TimerScheduler Scheduler = SchedulerFunc(func(delay time.Duration, fn func()) func() bool {
	return time.AfterFunc(delay, fn).Stop
})

type transition struct {
	ctx  context.Context
	from int
	to   int
	stop func() bool
}

func (t *transition) cancel() {
	if t != nil && t.stop != nil {
		t.stop()
	}
}
