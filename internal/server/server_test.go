package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/validation"
)

const samplePayload = `{
  "pages": [
    {"fields": [
      {"id": "name", "label": "Name", "type": "text", "value": "", "required": true},
      {"id": "agree", "label": "Agree", "type": "checkbox", "value": false}
    ]},
    {"fields": [
      {"id": "plan", "label": "Plan", "type": "select", "value": "",
       "options": [{"value": "free", "label": "Free"}, {"value": "pro", "label": "Pro"}]}
    ]}
  ]
}`

type harness struct {
	t       *testing.T
	server  *Server
	handler http.Handler
}

func newHarness(t *testing.T, options ...Option) *harness {
	t.Helper()
	options = append([]Option{WithTransitionDelay(0)}, options...)
	srv, err := New(options...)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return &harness{t: t, server: srv, handler: srv.Handler()}
}

func (h *harness) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) create(payload string) SessionResponse {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/sessions", "application/json", payload)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp SessionResponse
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(h.t, resp.ID)
	return resp
}

func (h *harness) command(id, body string) CommandResponse {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/json", body)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CommandResponse
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func fieldValue(t *testing.T, schema model.FormSchema, id string) model.Value {
	t.Helper()
	field, ok := schema.Field(id)
	require.True(t, ok, "field %s", id)
	return field.Value
}

func TestCreateSession(t *testing.T) {
	h := newHarness(t)
	resp := h.create(samplePayload)

	assert.Equal(t, 0, resp.State.CurrentPageIndex)
	assert.Equal(t, 2, resp.State.PageCount)
	assert.InDelta(t, 50.0, resp.State.Progress, 0.001)
	assert.False(t, resp.State.CanSubmit)
	assert.Equal(t, 1, h.server.Len())

	rec := h.do(http.MethodGet, "/sessions/"+resp.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSession_YAMLAndEmpty(t *testing.T) {
	h := newHarness(t)

	yamlPayload := "pages:\n  - fields:\n      - id: city\n        label: City\n        type: text\n"
	rec := h.do(http.MethodPost, "/sessions", "application/yaml", yamlPayload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.State.PageCount)

	empty := h.create("")
	assert.Equal(t, 0, empty.State.PageCount)
	assert.Equal(t, 0.0, empty.State.Progress)
}

func TestCreateSession_RejectsInvalidPayload(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/sessions", "application/json", `{"pages":[{"fields":[{"id":"a","type":"select"}]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, h.server.Len())
}

func TestCommands(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	resp := h.command(id, `{"attribute":"set:name","value":"Ada"}`)
	assert.True(t, resp.Applied)
	assert.Equal(t, model.StringValue("Ada"), fieldValue(t, resp.State.Schema, "name"))

	resp = h.command(id, `{"kind":"set","field":"agree","value":true}`)
	assert.True(t, resp.Applied)
	assert.Equal(t, model.BoolValue(true), fieldValue(t, resp.State.Schema, "agree"))

	resp = h.command(id, `{"kind":"action","action":"submit"}`)
	assert.False(t, resp.Applied, "submit before the last page is ignored")

	resp = h.command(id, `{"kind":"action","action":"next"}`)
	assert.True(t, resp.Applied)
	assert.Equal(t, 1, resp.State.CurrentPageIndex)
	assert.True(t, resp.State.CanSubmit)
	assert.False(t, resp.State.Transitioning)

	resp = h.command(id, `{"kind":"action","action":"teleport"}`)
	assert.False(t, resp.Applied)
	assert.Equal(t, 1, resp.State.CurrentPageIndex)

	resp = h.command(id, `{"kind":"goto","page":0}`)
	assert.True(t, resp.Applied)
	assert.Equal(t, 0, resp.State.CurrentPageIndex)

	resp = h.command(id, `{"attribute":"action:last"}`)
	assert.True(t, resp.Applied)
	assert.Equal(t, 1, resp.State.CurrentPageIndex)

	rec := h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/json", `{"kind":"fly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/json", `{"attribute":"color","value":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommands_SubmitEmitsEvent(t *testing.T) {
	var submitted []events.Event
	h := newHarness(t, WithEventHandler(func(e events.Event) {
		if e.Name == events.FormSubmit {
			submitted = append(submitted, e)
		}
	}))
	id := h.create(samplePayload).ID

	h.command(id, `{"kind":"action","action":"last"}`)
	resp := h.command(id, `{"kind":"action","action":"submit"}`)
	assert.True(t, resp.Applied)
	require.Len(t, submitted, 1)
	detail, ok := submitted[0].Detail.(events.SubmitDetail)
	require.True(t, ok)
	assert.Len(t, detail.Fields, 3)
	assert.Equal(t, id, submitted[0].Source)
}

func TestFormPost(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	form := url.Values{}
	form.Set("session", id)
	form.Set("set:name", "Grace")
	form.Add("set:agree", "false")
	form.Add("set:agree", "true")
	form.Set("action:next", "")

	rec := h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sessions/"+id+"/page", rec.Header().Get("Location"))

	var resp SessionResponse
	rec = h.do(http.MethodGet, "/sessions/"+id, "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.State.CurrentPageIndex)
	assert.Equal(t, model.StringValue("Grace"), fieldValue(t, resp.State.Schema, "name"))
	assert.Equal(t, model.BoolValue(true), fieldValue(t, resp.State.Schema, "agree"))

	form = url.Values{}
	form.Set("goto", "0")
	rec = h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = h.do(http.MethodGet, "/sessions/"+id, "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.State.CurrentPageIndex)
}

func TestFormPost_SkipsUnchangedFields(t *testing.T) {
	var changed []string
	h := newHarness(t, WithEventHandler(func(e events.Event) {
		if e.Name == events.FieldChange {
			changed = append(changed, e.Detail.(events.FieldChangeDetail).FieldID)
		}
	}))
	id := h.create(samplePayload).ID

	form := url.Values{}
	form.Set("set:name", "")
	form.Set("set:agree", "false")
	form.Set("action:next", "")
	rec := h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, changed)

	form = url.Values{}
	form.Set("set:name", "Grace")
	form.Set("set:agree", "false")
	form.Set("action:previous", "")
	rec = h.do(http.MethodPost, "/sessions/"+id+"/commands", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []string{"name"}, changed)

	var resp SessionResponse
	rec = h.do(http.MethodGet, "/sessions/"+id, "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.State.CurrentPageIndex)
	assert.Equal(t, model.StringValue("Grace"), fieldValue(t, resp.State.Schema, "name"))
}

func TestFieldEndpoint(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	rec := h.do(http.MethodPost, "/sessions/"+id+"/fields/name", "application/json", `{"value":"Linus"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CommandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)

	rec = h.do(http.MethodPost, "/sessions/"+id+"/fields/agree", "text/plain", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)
	assert.Equal(t, model.BoolValue(true), fieldValue(t, resp.State.Schema, "agree"))

	rec = h.do(http.MethodPost, "/sessions/"+id+"/fields/agree", "application/json", `{"value":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Applied, "string value on a checkbox is rejected")

	rec = h.do(http.MethodPost, "/sessions/"+id+"/fields/missing", "text/plain", "x")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Applied)
}

func TestPage(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	rec := h.do(http.MethodGet, "/sessions/"+id+"/page?title=Signup", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `data-page="0"`)
	assert.Contains(t, body, `data-endpoint="/sessions/`+id+`"`)
	assert.Contains(t, body, `name="session" value="`+id+`"`)
	assert.Contains(t, body, "Signup")

	rec = h.do(http.MethodGet, "/sessions/"+id+"/page?renderer=tui", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "Page 1 of 2")

	rec = h.do(http.MethodGet, "/sessions/"+id+"/page?renderer=pdf", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "have tui, vanilla")
}

func TestValidation(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	decode := func(rec *httptest.ResponseRecorder) validation.Result {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result validation.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		return result
	}

	result := decode(h.do(http.MethodGet, "/sessions/"+id+"/validation", "", ""))
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "name", result.Issues[0].Field)

	result = decode(h.do(http.MethodGet, "/sessions/"+id+"/validation?page=1", "", ""))
	assert.True(t, result.Valid)

	rec := h.do(http.MethodGet, "/sessions/"+id+"/validation?page=two", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.command(id, `{"kind":"set","field":"name","text":"Ada"}`)
	result = decode(h.do(http.MethodGet, "/sessions/"+id+"/validation", "", ""))
	assert.True(t, result.Valid)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	rec := h.do(http.MethodGet, "/sessions/"+id+"/export.xlsx", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestDeleteSession(t *testing.T) {
	storage := progress.NewMemory()
	h := newHarness(t, WithStorage(storage))
	id := h.create(samplePayload).ID
	h.command(id, `{"kind":"action","action":"next"}`)
	require.Equal(t, 1, storage.Len())

	rec := h.do(http.MethodDelete, "/sessions/"+id, "", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, storage.Len())
	assert.Equal(t, 0, h.server.Len())

	rec = h.do(http.MethodGet, "/sessions/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodDelete, "/sessions/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionRevivedFromStorage(t *testing.T) {
	storage := progress.NewMemory()
	first := newHarness(t, WithStorage(storage))
	id := first.create(samplePayload).ID
	first.command(id, `{"attribute":"set:name","value":"Ada"}`)
	first.command(id, `{"kind":"action","action":"next"}`)

	second := newHarness(t, WithStorage(storage))
	rec := second.do(http.MethodGet, "/sessions/"+id, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.State.CurrentPageIndex)
	assert.Equal(t, model.StringValue("Ada"), fieldValue(t, resp.State.Schema, "name"))

	rec = second.do(http.MethodGet, "/sessions/not-a-uuid", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssetsAndHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/assets/reform.js", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data-endpoint")
}

func TestEventStream(t *testing.T) {
	h := newHarness(t)
	id := h.create(samplePayload).ID

	ts := httptest.NewServer(h.handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	post, err := ts.Client().Post(ts.URL+"/sessions/"+id+"/fields/name", "text/plain", strings.NewReader("Ada"))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, post.Body)
	post.Body.Close()

	var eventLine, dataLine string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			eventLine = strings.TrimSpace(line)
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}
	assert.Equal(t, "event: field-change", eventLine)

	var ev struct {
		Name   string `json:"name"`
		Detail struct {
			FieldID string `json:"fieldId"`
			Value   string `json:"value"`
		} `json:"detail"`
	}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &ev))
	assert.Equal(t, "field-change", ev.Name)
	assert.Equal(t, "name", ev.Detail.FieldID)
	assert.Equal(t, "Ada", ev.Detail.Value)
}

func TestFormCommandsOrdering(t *testing.T) {
	values := url.Values{
		"action:submit": {""},
		"goto":          {"1"},
		"set:b":         {"2"},
		"set:a":         {"1"},
		"session":       {"x"},
	}
	cmds := formCommands(values, "set:")
	require.Len(t, cmds, 4)
	assert.Equal(t, "a", cmds[0].FieldID)
	assert.Equal(t, "b", cmds[1].FieldID)
	assert.Equal(t, 1, cmds[2].Page)
	assert.Equal(t, "submit", string(cmds[3].Action))
}
