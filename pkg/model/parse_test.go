package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reform/pkg/model"
)

const twoPagePayload = `{
  "pages": [
    {"fields": [{"id": "name", "label": "Name", "type": "text", "required": true}]},
    {"fields": [{"id": "age", "label": "Age", "type": "number", "required": true}]}
  ]
}`

func TestParse_TwoPages(t *testing.T) {
	schema, err := model.Parse([]byte(twoPagePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := model.FormSchema{Pages: []model.Page{
		{Fields: []model.Field{{ID: "name", Label: "Name", Type: model.FieldTypeText, Required: true}}},
		{Fields: []model.Field{{ID: "age", Label: "Age", Type: model.FieldTypeNumber, Required: true}}},
	}}
	if diff := cmp.Diff(want, schema); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{name: "empty", payload: "  ", want: model.ErrEmptyPayload},
		{name: "not json", payload: "{pages:", want: model.ErrMalformed},
		{name: "pages missing", payload: `{"steps": []}`, want: model.ErrMalformed},
		{name: "field without type", payload: `{"pages":[{"fields":[{"id":"a"}]}]}`, want: model.ErrMalformed},
		{
			name:    "duplicate across pages",
			payload: `{"pages":[{"fields":[{"id":"a","type":"text"}]},{"fields":[{"id":"a","type":"email"}]}]}`,
			want:    model.ErrDuplicateID,
		},
		{
			name:    "select without options",
			payload: `{"pages":[{"fields":[{"id":"c","type":"select"}]}]}`,
			want:    model.ErrOptionsRequired,
		},
		{
			name:    "text with options",
			payload: `{"pages":[{"fields":[{"id":"t","type":"text","options":[{"value":"x","label":"X"}]}]}]}`,
			want:    model.ErrUnexpectedOptions,
		},
		{
			name:    "checkbox holding text",
			payload: `{"pages":[{"fields":[{"id":"ok","type":"checkbox","value":"yes"}]}]}`,
			want:    model.ErrValueKind,
		},
		{
			name:    "text holding bool",
			payload: `{"pages":[{"fields":[{"id":"t","type":"text","value":true}]}]}`,
			want:    model.ErrValueKind,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := model.Parse([]byte(tc.payload))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParse_KeepsUnsupportedKinds(t *testing.T) {
	payload := `{"pages":[{"fields":[
		{"id":"when","label":"When","type":"date","value":{"y":2024}},
		{"id":"agree","label":"Agree","type":"checkbox","value":true}
	]}]}`

	schema, err := model.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fields := schema.AllFields()
	if fields[0].Type.Known() {
		t.Fatalf("expected date to be reported as unsupported")
	}
	if got := fields[0].Value.String(); got != `{"y":2024}` {
		t.Fatalf("expected raw value kept verbatim, got %s", got)
	}
	if v, ok := fields[1].Value.Bool(); !ok || !v {
		t.Fatalf("expected checkbox to hold true, got %v", fields[1].Value)
	}
}

func TestParse_EmptyOptionsOnTextAreDropped(t *testing.T) {
	schema, err := model.Parse([]byte(`{"pages":[{"fields":[{"id":"t","type":"text","options":[]}]}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if schema.Pages[0].Fields[0].Options != nil {
		t.Fatalf("expected empty options to normalise to nil")
	}
}

func TestParseYAML(t *testing.T) {
	raw := []byte(`
pages:
  - fields:
      - id: colour
        label: Favourite colour
        type: radio
        required: false
        options:
          - {value: red, label: Red}
          - {value: blue, label: Blue}
`)
	schema, err := model.ParseYAML(raw)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	field, ok := schema.Field("colour")
	if !ok {
		t.Fatalf("expected colour field")
	}
	want := []model.Option{{Value: "red", Label: "Red"}, {Value: "blue", Label: "Blue"}}
	if diff := cmp.Diff(want, field.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
