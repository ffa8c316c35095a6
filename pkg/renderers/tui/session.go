package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/render"
)

// Engine is what a session drives.
type Engine interface {
	dispatch.Target
	State() engine.State
	Flush()
}

// Outcome reports how a session ended.
type Outcome int

const (
	// OutcomeQuit means the user left with progress saved.
	OutcomeQuit Outcome = iota
	// OutcomeSubmitted means the form-submit event fired.
	OutcomeSubmitted
)

func (o Outcome) String() string {
	if o == OutcomeSubmitted {
		return "submitted"
	}
	return "quit"
}

const (
	menuGoTo = "Go to page..."
	menuQuit = "Save and quit"
)

// Session fills a form page by page: each field of the active page is
// prompted, then a navigation menu picks the next step.
type Session struct {
	engine     Engine
	dispatcher *dispatch.Dispatcher
	renderer   *Renderer
	driver     PromptDriver
	out        io.Writer
	renderOpts render.RenderOptions
	logger     zerolog.Logger
}

// NewSession binds a session to eng.
func NewSession(eng Engine, options ...Option) (*Session, error) {
	if eng == nil {
		return nil, ErrEngineRequired
	}
	cfg := newConfig(options)
	d, err := dispatch.New(eng,
		dispatch.WithLogger(cfg.logger),
		dispatch.WithFieldPrefix(cfg.renderOpts.FieldPrefix),
	)
	if err != nil {
		return nil, err
	}
	return &Session{
		engine:     eng,
		dispatcher: d,
		renderer:   New(options...),
		driver:     cfg.driver,
		out:        cfg.out,
		renderOpts: cfg.renderOpts,
		logger:     cfg.logger,
	}, nil
}

// Run loops until the form is submitted, the user quits, or ctx ends.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return OutcomeQuit, err
		}
		s.engine.Flush()
		state := s.engine.State()
		if state.PageCount == 0 {
			return OutcomeQuit, ErrEmptyForm
		}

		view := render.NewView(state, s.renderOpts)
		if _, err := io.WriteString(s.out, s.renderer.RenderView(view)); err != nil {
			return OutcomeQuit, fmt.Errorf("tui: write page: %w", err)
		}

		for _, control := range view.Controls {
			if err := s.promptControl(ctx, control); err != nil {
				return OutcomeQuit, err
			}
		}

		done, outcome, err := s.navigate(ctx)
		if err != nil || done {
			return outcome, err
		}
	}
}

func (s *Session) promptControl(ctx context.Context, c render.Control) error {
	label := s.renderer.text(c.Label)
	switch c.Kind {
	case render.ControlInput:
		for {
			value, err := s.driver.Input(ctx, InputConfig{Message: label, Default: c.Value})
			if err != nil {
				return err
			}
			if problem := checkInput(c, value); problem != "" {
				_ = s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", c.FieldID, problem))
				continue
			}
			s.apply(ctx, dispatch.Set(c.FieldID, model.StringValue(value)))
			return nil
		}
	case render.ControlTextArea:
		for {
			value, err := s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: c.Value})
			if err != nil {
				return err
			}
			if problem := checkInput(c, value); problem != "" {
				_ = s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", c.FieldID, problem))
				continue
			}
			s.apply(ctx, dispatch.Set(c.FieldID, model.StringValue(value)))
			return nil
		}
	case render.ControlSelect, render.ControlRadioGroup:
		if len(c.Choices) == 0 {
			return nil
		}
		options := make([]string, len(c.Choices))
		selected := 0
		for i, choice := range c.Choices {
			options[i] = s.renderer.text(choice.Label)
			if choice.Selected {
				selected = i
			}
		}
		idx, err := s.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: selected})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(c.Choices) {
			return nil
		}
		s.apply(ctx, dispatch.Set(c.FieldID, model.StringValue(c.Choices[idx].Value)))
		return nil
	case render.ControlCheckbox:
		checked, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: c.Checked})
		if err != nil {
			return err
		}
		s.apply(ctx, dispatch.Set(c.FieldID, model.BoolValue(checked)))
		return nil
	default:
		return s.driver.Info(ctx, c.Message)
	}
}

// checkInput enforces required-ness and numeric syntax for prompted text.
func checkInput(c render.Control, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if c.Required {
			return "required"
		}
		return ""
	}
	if c.Type == model.FieldTypeNumber {
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return "not a number"
		}
	}
	return ""
}

func (s *Session) navigate(ctx context.Context) (bool, Outcome, error) {
	view := render.NewView(s.engine.State(), s.renderOpts)

	var (
		options []string
		actions []dispatch.Action
	)
	for _, b := range view.Buttons {
		if b.Enabled {
			options = append(options, b.Label)
			actions = append(actions, b.Action)
		}
	}
	if view.PageCount > 1 {
		options = append(options, menuGoTo)
	}
	options = append(options, menuQuit)

	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Next step", Options: options})
	if err != nil {
		return true, OutcomeQuit, err
	}
	if idx < 0 || idx >= len(options) {
		return false, OutcomeQuit, nil
	}

	if idx < len(actions) {
		applied := s.apply(ctx, dispatch.Do(actions[idx]))
		if actions[idx] == dispatch.ActionSubmit && applied {
			return true, OutcomeSubmitted, nil
		}
		return false, OutcomeQuit, nil
	}

	switch options[idx] {
	case menuGoTo:
		raw, err := s.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("Page (1-%d)", view.PageCount),
			Default: strconv.Itoa(view.PageNumber),
		})
		if err != nil {
			return true, OutcomeQuit, err
		}
		number, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr != nil || !s.apply(ctx, dispatch.GoTo(number-1)) {
			_ = s.driver.Info(ctx, fmt.Sprintf("No page %q", raw))
		}
		return false, OutcomeQuit, nil
	default:
		return true, OutcomeQuit, nil
	}
}

func (s *Session) apply(ctx context.Context, cmd dispatch.Command) bool {
	applied := s.dispatcher.Dispatch(ctx, cmd)
	s.engine.Flush()
	return applied
}
