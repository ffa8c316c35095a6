// Package tui renders forms in a terminal and runs interactive fill sessions
// on top of survey prompts.
package tui

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/render"
)

// Name is the registry name of this renderer.
const Name = "tui"

const defaultProgressWidth = 20

// Renderer draws the active page as styled text.
type Renderer struct {
	theme Theme
	width int
	strip *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a terminal renderer.
func New(options ...Option) *Renderer {
	cfg := newConfig(options)
	return &Renderer{
		theme: cfg.theme,
		width: cfg.width,
		strip: bluemonday.StrictPolicy(),
	}
}

func newConfig(options []Option) config {
	cfg := config{
		out:    os.Stdout,
		theme:  DefaultTheme(),
		width:  defaultProgressWidth,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.driver == nil {
		cfg.driver = NewSurveyDriver(cfg.out)
	}
	return cfg
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports plain text output.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render prints the progress bar, the fields of the active page and the
// navigation strip.
func (r *Renderer) Render(ctx context.Context, state engine.State, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(r.RenderView(render.NewView(state, opts))), nil
}

// RenderView prints an already projected view.
func (r *Renderer) RenderView(view render.View) string {
	t := r.theme
	var lines []string
	if view.Title != "" {
		lines = append(lines, t.paint(t.Title, view.Title))
	}

	if view.Empty {
		lines = append(lines, t.paint(t.Muted, view.Labels.Empty), "", r.buttons(view))
		return r.box(lines)
	}

	lines = append(lines,
		t.paint(t.Header, fmt.Sprintf("%s %d of %d", view.Labels.Page, view.PageNumber, view.PageCount)),
		t.paint(t.Bar, r.bar(view.Progress))+" "+view.ProgressLabel,
		"",
	)
	for _, control := range view.Controls {
		lines = append(lines, r.control(control))
	}
	lines = append(lines, "", r.buttons(view), r.pages(view))
	return r.box(lines)
}

func (r *Renderer) box(lines []string) string {
	body := strings.Join(lines, "\n")
	if r.theme.Plain {
		return body + "\n"
	}
	return r.theme.Box.Render(body) + "\n"
}

func (r *Renderer) bar(progress float64) string {
	width := r.width
	if width <= 0 {
		width = defaultProgressWidth
	}
	filled := int(math.Round(progress / 100 * float64(width)))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func (r *Renderer) control(c render.Control) string {
	t := r.theme
	marker := "  "
	if c.Required {
		marker = t.paint(t.Required, "*") + " "
	}
	label := t.paint(t.Label, r.text(c.Label))

	switch c.Kind {
	case render.ControlInput:
		return fmt.Sprintf("%s%s: %s", marker, label, c.Value)
	case render.ControlTextArea:
		return fmt.Sprintf("%s%s: %s", marker, label, strings.ReplaceAll(c.Value, "\n", "\n    "))
	case render.ControlSelect, render.ControlRadioGroup:
		selected := ""
		names := make([]string, 0, len(c.Choices))
		for _, choice := range c.Choices {
			name := r.text(choice.Label)
			if choice.Selected {
				selected = name
			}
			names = append(names, name)
		}
		return fmt.Sprintf("%s%s: %s %s", marker, label, selected,
			t.paint(t.Muted, "("+strings.Join(names, " / ")+")"))
	case render.ControlCheckbox:
		box := "[ ]"
		if c.Checked {
			box = "[x]"
		}
		return fmt.Sprintf("%s%s %s", marker, box, label)
	default:
		return "  " + t.paint(t.Warning, "! "+c.Message)
	}
}

func (r *Renderer) buttons(view render.View) string {
	t := r.theme
	parts := make([]string, 0, len(view.Buttons))
	for _, b := range view.Buttons {
		if b.Enabled {
			parts = append(parts, t.paint(t.Active, "["+b.Label+"]"))
			continue
		}
		parts = append(parts, t.paint(t.Muted, "("+b.Label+")"))
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) pages(view render.View) string {
	t := r.theme
	parts := make([]string, 0, len(view.Pages))
	for _, p := range view.Pages {
		if p.Active {
			parts = append(parts, t.paint(t.Active, fmt.Sprintf("[%d]", p.Number)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d", p.Number))
	}
	return strings.Join(parts, " ")
}

// text strips markup from labels.
func (r *Renderer) text(s string) string {
	return html.UnescapeString(r.strip.Sanitize(s))
}
