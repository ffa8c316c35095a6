package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/render"
)

const mixedPayload = `{"pages":[
 {"fields":[
  {"id":"name","label":"Name","type":"text","value":"Ada","required":true},
  {"id":"mail","label":"Email","type":"email"},
  {"id":"age","label":"Age","type":"number"},
  {"id":"bio","label":"Bio","type":"textarea","value":"hi"},
  {"id":"color","label":"Color","type":"select","value":"b","options":[{"value":"r","label":"Red"},{"value":"b","label":"Blue"}]},
  {"id":"size","label":"Size","type":"radio","options":[{"value":"s","label":""},{"value":"m","label":"Medium"}]},
  {"id":"agree","label":"Agree","type":"checkbox","value":true},
  {"id":"when","label":"When","type":"date","value":"2024-01-01"}
 ]},
 {"fields":[{"id":"notes","label":"","type":"textarea"}]}
]}`

func newState(t *testing.T, payload string, page int) engine.State {
	t.Helper()
	store, err := progress.NewStore(progress.NewMemory(), "")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	eng, err := engine.New(store, engine.WithTransitionDelay(0))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if !eng.Load(context.Background(), []byte(payload)) {
		t.Fatal("load failed")
	}
	eng.GoTo(context.Background(), page)
	return eng.State()
}

func TestNewControl_PerKind(t *testing.T) {
	view := render.NewView(newState(t, mixedPayload, 0), render.RenderOptions{})

	want := []render.Control{
		{FieldID: "name", Name: "set:name", Label: "Name", Type: "text", Kind: render.ControlInput, InputType: "text", Value: "Ada", Required: true},
		{FieldID: "mail", Name: "set:mail", Label: "Email", Type: "email", Kind: render.ControlInput, InputType: "email"},
		{FieldID: "age", Name: "set:age", Label: "Age", Type: "number", Kind: render.ControlInput, InputType: "number"},
		{FieldID: "bio", Name: "set:bio", Label: "Bio", Type: "textarea", Kind: render.ControlTextArea, Value: "hi"},
		{FieldID: "color", Name: "set:color", Label: "Color", Type: "select", Kind: render.ControlSelect, Value: "b", Choices: []render.Choice{
			{Value: "r", Label: "Red"},
			{Value: "b", Label: "Blue", Selected: true},
		}},
		{FieldID: "size", Name: "set:size", Label: "Size", Type: "radio", Kind: render.ControlRadioGroup, Choices: []render.Choice{
			{Value: "s", Label: "s"},
			{Value: "m", Label: "Medium"},
		}},
		{FieldID: "agree", Name: "set:agree", Label: "Agree", Type: "checkbox", Kind: render.ControlCheckbox, Checked: true},
		{FieldID: "when", Name: "set:when", Label: "When", Type: "date", Kind: render.ControlUnsupported, Value: "2024-01-01", Message: "Unsupported field type: date"},
	}
	if diff := cmp.Diff(want, view.Controls); diff != "" {
		t.Fatalf("controls mismatch (-want +got):\n%s", diff)
	}
	if view.Controls[7].Interactive() {
		t.Fatal("unsupported control should not capture changes")
	}
}

func TestNewView_ButtonGating(t *testing.T) {
	first := render.NewView(newState(t, mixedPayload, 0), render.RenderOptions{})
	last := render.NewView(newState(t, mixedPayload, 1), render.RenderOptions{})

	enabled := func(v render.View) map[dispatch.Action]bool {
		out := map[dispatch.Action]bool{}
		for _, b := range v.Buttons {
			out[b.Action] = b.Enabled
		}
		return out
	}

	wantFirst := map[dispatch.Action]bool{"first": false, "previous": false, "next": true, "last": true, "submit": false}
	if diff := cmp.Diff(wantFirst, enabled(first)); diff != "" {
		t.Fatalf("first page buttons (-want +got):\n%s", diff)
	}
	wantLast := map[dispatch.Action]bool{"first": true, "previous": true, "next": false, "last": false, "submit": true}
	if diff := cmp.Diff(wantLast, enabled(last)); diff != "" {
		t.Fatalf("last page buttons (-want +got):\n%s", diff)
	}

	wantPages := []render.PageLink{{Index: 0, Number: 1}, {Index: 1, Number: 2, Active: true}}
	if diff := cmp.Diff(wantPages, last.Pages); diff != "" {
		t.Fatalf("page strip (-want +got):\n%s", diff)
	}
	if last.ProgressLabel != "100%" || first.ProgressLabel != "50%" {
		t.Fatalf("progress labels = %q, %q", first.ProgressLabel, last.ProgressLabel)
	}
	if last.Controls[0].Label != "notes" {
		t.Fatalf("empty label should fall back to id, got %q", last.Controls[0].Label)
	}
}

func TestNewView_Empty(t *testing.T) {
	view := render.NewView(engine.State{Schema: model.Empty()}, render.RenderOptions{})
	if !view.Empty || len(view.Controls) != 0 || len(view.Pages) != 0 {
		t.Fatalf("unexpected empty view: %+v", view)
	}
	for _, b := range view.Buttons {
		if b.Enabled {
			t.Fatalf("button %s enabled on empty form", b.Action)
		}
	}
}

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestNewView_OptionsAndLabels(t *testing.T) {
	view := render.NewView(newState(t, mixedPayload, 0), render.RenderOptions{
		Endpoint:    "/sessions/abc/",
		FieldPrefix: "data-",
		Locale:      "es",
		Translator:  stubTranslator{render.LabelKeyNext: "Siguiente", render.LabelKeyUnsupported: "Tipo no soportado"},
		Hidden:      render.MergeHiddenFields(nil, render.SessionField("abc")),
	})

	if view.Endpoint != "/sessions/abc" {
		t.Fatalf("endpoint = %q", view.Endpoint)
	}
	if view.Controls[0].Name != "data-name" {
		t.Fatalf("control name = %q", view.Controls[0].Name)
	}
	if view.Labels.Next != "Siguiente" || view.Labels.Previous != "Previous" {
		t.Fatalf("labels = %+v", view.Labels)
	}
	if view.Controls[7].Message != "Tipo no soportado: date" {
		t.Fatalf("unsupported message = %q", view.Controls[7].Message)
	}
	if diff := cmp.Diff([]render.HiddenField{{Name: "session", Value: "abc"}}, view.Hidden); diff != "" {
		t.Fatalf("hidden (-want +got):\n%s", diff)
	}
}

func TestResolveLabels_OnMissing(t *testing.T) {
	var misses []string
	labels := render.ResolveLabels(render.RenderOptions{
		OnMissing: func(_, key, fallback string, err error) string {
			if errors.Is(err, render.ErrMissingTranslator) {
				misses = append(misses, key)
			}
			return "[" + fallback + "]"
		},
	})
	if labels.Submit != "[Submit]" {
		t.Fatalf("submit label = %q", labels.Submit)
	}
	if len(misses) != 8 {
		t.Fatalf("expected 8 missing keys, got %v", misses)
	}
}
