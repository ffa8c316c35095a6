package render

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/model"
)

// ControlKind names the input control drawn for a field.
type ControlKind string

const (
	ControlInput       ControlKind = "input"
	ControlTextArea    ControlKind = "textarea"
	ControlSelect      ControlKind = "select"
	ControlRadioGroup  ControlKind = "radio"
	ControlCheckbox    ControlKind = "checkbox"
	ControlUnsupported ControlKind = "unsupported"
)

// Choice is a select or radio entry.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Control describes how one field is drawn and which attribute name its
// changes are reported under.
type Control struct {
	FieldID   string          `json:"field_id"`
	Name      string          `json:"name"`
	Label     string          `json:"label"`
	Type      model.FieldType `json:"type"`
	Kind      ControlKind     `json:"kind"`
	InputType string          `json:"input_type,omitempty"`
	Value     string          `json:"value"`
	Checked   bool            `json:"checked"`
	Required  bool            `json:"required"`
	Choices   []Choice        `json:"choices,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Interactive reports whether the control captures changes.
func (c Control) Interactive() bool {
	return c.Kind != ControlUnsupported
}

// NavButton is one navigation or submit control.
type NavButton struct {
	Action  dispatch.Action `json:"action"`
	Label   string          `json:"label"`
	Enabled bool            `json:"enabled"`
	Primary bool            `json:"primary"`
}

// PageLink is an entry of the page-number strip.
type PageLink struct {
	Index  int  `json:"index"`
	Number int  `json:"number"`
	Active bool `json:"active"`
}

// View is the render-ready projection of an engine state.
type View struct {
	Title         string        `json:"title"`
	Endpoint      string        `json:"endpoint"`
	FieldPrefix   string        `json:"field_prefix"`
	Empty         bool          `json:"empty"`
	PageIndex     int           `json:"page_index"`
	PageNumber    int           `json:"page_number"`
	PageCount     int           `json:"page_count"`
	Progress      float64       `json:"progress"`
	ProgressLabel string        `json:"progress_label"`
	Transitioning bool          `json:"transitioning"`
	Controls      []Control     `json:"controls"`
	Buttons       []NavButton   `json:"buttons"`
	Pages         []PageLink    `json:"pages"`
	Hidden        []HiddenField `json:"hidden"`
	Labels        Labels        `json:"labels"`
}

// NewView projects state into controls and navigation chrome.
func NewView(state engine.State, opts RenderOptions) View {
	prefix := opts.FieldPrefix
	if prefix == "" {
		prefix = dispatch.DefaultFieldPrefix
	}
	labels := ResolveLabels(opts)

	view := View{
		Title:         strings.TrimSpace(opts.Title),
		Endpoint:      strings.TrimRight(opts.Endpoint, "/"),
		FieldPrefix:   prefix,
		Empty:         state.PageCount == 0,
		PageIndex:     state.CurrentPageIndex,
		PageCount:     state.PageCount,
		Progress:      state.Progress,
		ProgressLabel: fmt.Sprintf("%.0f%%", state.Progress),
		Transitioning: state.Transitioning,
		Hidden:        SortedHiddenFields(opts.Hidden),
		Labels:        labels,
		Controls:      []Control{},
	}
	if view.Empty {
		view.Buttons = navButtons(state, labels)
		return view
	}

	view.PageNumber = state.CurrentPageIndex + 1
	if page, ok := state.CurrentPage(); ok {
		for _, field := range page.Fields {
			view.Controls = append(view.Controls, NewControl(field, prefix, labels))
		}
	}
	view.Buttons = navButtons(state, labels)
	view.Pages = make([]PageLink, state.PageCount)
	for i := range view.Pages {
		view.Pages[i] = PageLink{Index: i, Number: i + 1, Active: i == state.CurrentPageIndex}
	}
	return view
}

// NewControl maps a field to its control. Unknown kinds become a visible
// placeholder that captures nothing.
func NewControl(field model.Field, prefix string, labels Labels) Control {
	control := Control{
		FieldID:  field.ID,
		Name:     prefix + field.ID,
		Label:    field.Label,
		Type:     field.Type,
		Required: field.Required,
	}
	if control.Label == "" {
		control.Label = field.ID
	}

	switch field.Type {
	case model.FieldTypeText, model.FieldTypeEmail, model.FieldTypeNumber:
		control.Kind = ControlInput
		control.InputType = string(field.Type)
		control.Value = textValue(field.Value)
	case model.FieldTypeTextarea:
		control.Kind = ControlTextArea
		control.Value = textValue(field.Value)
	case model.FieldTypeSelect:
		control.Kind = ControlSelect
		control.Value = textValue(field.Value)
		control.Choices = choices(field)
	case model.FieldTypeRadio:
		control.Kind = ControlRadioGroup
		control.Value = textValue(field.Value)
		control.Choices = choices(field)
	case model.FieldTypeCheckbox:
		control.Kind = ControlCheckbox
		control.Checked, _ = field.Value.Bool()
	default:
		control.Kind = ControlUnsupported
		control.Value = field.Value.String()
		control.Message = fmt.Sprintf("%s: %s", labels.Unsupported, field.Type)
	}
	return control
}

func textValue(v model.Value) string {
	s, _ := v.Str()
	return s
}

func choices(field model.Field) []Choice {
	current := textValue(field.Value)
	out := make([]Choice, 0, len(field.Options))
	for _, opt := range field.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		out = append(out, Choice{
			Value:    opt.Value,
			Label:    label,
			Selected: field.Value.IsSet() && opt.Value == current,
		})
	}
	return out
}

func navButtons(state engine.State, labels Labels) []NavButton {
	hasPages := state.PageCount > 0
	return []NavButton{
		{Action: dispatch.ActionFirst, Label: labels.First, Enabled: hasPages && !state.IsFirst()},
		{Action: dispatch.ActionPrevious, Label: labels.Previous, Enabled: hasPages && !state.IsFirst()},
		{Action: dispatch.ActionNext, Label: labels.Next, Enabled: hasPages && !state.IsLast()},
		{Action: dispatch.ActionLast, Label: labels.Last, Enabled: hasPages && !state.IsLast()},
		{Action: dispatch.ActionSubmit, Label: labels.Submit, Enabled: state.CanSubmit, Primary: true},
	}
}
