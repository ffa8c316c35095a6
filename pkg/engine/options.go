package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/events"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for dropped operations and storage failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEmitter sets where field-change and form-submit events go.
func WithEmitter(emitter events.Emitter) Option {
	return func(e *Engine) {
		if emitter != nil {
			e.emitter = emitter
		}
	}
}

// WithSurface sets the presentation callbacks.
func WithSurface(surface Surface) Option {
	return func(e *Engine) {
		if surface != nil {
			e.surface = surface
		}
	}
}

// WithScheduler replaces the timer used for page transitions.
func WithScheduler(scheduler Scheduler) Option {
	return func(e *Engine) {
		if scheduler != nil {
			e.scheduler = scheduler
		}
	}
}

// WithTransitionDelay sets the pause between leaving and entered. Zero or
// negative completes transitions inline.
func WithTransitionDelay(delay time.Duration) Option {
	return func(e *Engine) {
		e.delay = delay
	}
}

// WithSource tags emitted events, typically with a session id.
func WithSource(source string) Option {
	return func(e *Engine) {
		e.source = source
	}
}
