package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/validation"
)

const samplePayload = `{
  "pages": [
    {"fields": [
      {"id": "name", "label": "Name", "type": "text", "value": ""},
      {"id": "agree", "label": "Agree", "type": "checkbox", "value": false}
    ]},
    {"fields": [
      {"id": "plan", "label": "Plan", "type": "select", "value": "",
       "options": [{"value": "free", "label": "Free"}, {"value": "pro", "label": "Pro"}]}
    ]}
  ]
}`

const sampleYAML = `pages:
  - fields:
      - id: city
        label: City
        type: text
        value: Lyon
`

func newTestServer(t *testing.T, options ...Option) *Server {
	t.Helper()
	s, err := New(context.Background(), options...)
	require.NoError(t, err)
	return s
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
		if text, ok := content.(*mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func decodeState(t *testing.T, result *mcp.CallToolResult) engine.State {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError, extractTextFromResult(result))
	var state engine.State
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &state))
	return state
}

func load(t *testing.T, s *Server) {
	t.Helper()
	result, err := s.handleLoad(context.Background(), call(map[string]any{"payload": samplePayload}))
	require.NoError(t, err)
	state := decodeState(t, result)
	require.Equal(t, 2, state.PageCount)
}

func TestServer_LoadPayload(t *testing.T) {
	s := newTestServer(t)
	load(t, s)

	result, err := s.handleState(context.Background(), call(nil))
	require.NoError(t, err)
	state := decodeState(t, result)
	assert.Equal(t, 0, state.CurrentPageIndex)
	assert.Equal(t, float64(50), state.Progress)
	assert.False(t, state.CanSubmit)
}

func TestServer_LoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	s := newTestServer(t)
	result, err := s.handleLoad(context.Background(), call(map[string]any{"path": path}))
	require.NoError(t, err)
	state := decodeState(t, result)
	assert.Equal(t, 1, state.PageCount)

	field, ok := s.Engine().Field("city")
	require.True(t, ok)
	assert.Equal(t, model.StringValue("Lyon"), field.Value)
}

func TestServer_LoadErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "missing arguments", args: map[string]any{}},
		{name: "malformed payload", args: map[string]any{"payload": `{"pages": 3}`}},
		{name: "missing file", args: map[string]any{"path": filepath.Join(t.TempDir(), "nope.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleLoad(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestServer_SetField(t *testing.T) {
	var changes []events.FieldChangeDetail
	s := newTestServer(t, WithEventHandler(func(e events.Event) {
		if detail, ok := e.Detail.(events.FieldChangeDetail); ok {
			changes = append(changes, detail)
		}
	}))
	load(t, s)

	result, err := s.handleSetField(context.Background(), call(map[string]any{"field": "agree", "value": "true"}))
	require.NoError(t, err)
	decodeState(t, result)

	field, ok := s.Engine().Field("agree")
	require.True(t, ok)
	assert.Equal(t, model.BoolValue(true), field.Value)
	require.Len(t, changes, 1)
	assert.Equal(t, "agree", changes[0].FieldID)

	result, err = s.handleSetField(context.Background(), call(map[string]any{"field": "ghost", "value": "x"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleSetField(context.Background(), call(map[string]any{"field": "name"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_ActionsAndSubmit(t *testing.T) {
	var submits int
	s := newTestServer(t, WithEventHandler(func(e events.Event) {
		if e.Name == events.FormSubmit {
			submits++
		}
	}))
	load(t, s)

	result, err := s.handleSubmit(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "page 1 of 2")

	result, err = s.handleAction(context.Background(), call(map[string]any{"action": "next"}))
	require.NoError(t, err)
	state := decodeState(t, result)
	assert.Equal(t, 1, state.CurrentPageIndex)
	assert.True(t, state.CanSubmit)

	result, err = s.handleAction(context.Background(), call(map[string]any{"action": "next"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	_, err = s.handleSetField(context.Background(), call(map[string]any{"field": "plan", "value": "pro"}))
	require.NoError(t, err)

	result, err = s.handleAction(context.Background(), call(map[string]any{"action": "submit"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	var body struct {
		Fields  []model.Field      `json:"fields"`
		Missing []validation.Issue `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &body))
	require.Len(t, body.Fields, 3)
	assert.Equal(t, "plan", body.Fields[2].ID)
	assert.Equal(t, model.StringValue("pro"), body.Fields[2].Value)
	assert.Empty(t, body.Missing)
	assert.Equal(t, 1, submits)
}

func TestServer_UnknownAction(t *testing.T) {
	s := newTestServer(t)
	load(t, s)

	result, err := s.handleAction(context.Background(), call(map[string]any{"action": "jump"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_RestoresProgress(t *testing.T) {
	storage := progress.NewMemory()
	first := newTestServer(t, WithStorage(storage), WithSessionKey("agent"))
	load(t, first)
	_, err := first.handleAction(context.Background(), call(map[string]any{"action": "last"}))
	require.NoError(t, err)

	second := newTestServer(t, WithStorage(storage), WithSessionKey("agent"))
	state := second.Engine().State()
	assert.Equal(t, 1, state.CurrentPageIndex)
	assert.Equal(t, 2, state.PageCount)
}
