package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrEmptyForm is returned by Session.Run when no pages are loaded.
	ErrEmptyForm = errors.New("tui: form has no pages")
	// ErrEngineRequired is returned by NewSession without an engine.
	ErrEngineRequired = errors.New("tui: engine is required")
)
