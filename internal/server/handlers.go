package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/export"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/render"
	"github.com/goliatone/go-reform/pkg/validation"
)

// SessionResponse describes a session and its current state.
type SessionResponse struct {
	ID    string       `json:"id"`
	State engine.State `json:"state"`
}

// CommandResponse reports the outcome of a command.
type CommandResponse struct {
	Applied bool         `json:"applied"`
	State   engine.State `json:"state"`
}

// AttributeRequest is the attribute-style command body.
type AttributeRequest struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// FieldRequest is the body of a field set.
type FieldRequest struct {
	Value model.Value `json:"value"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	var payload []byte
	if len(bytes.TrimSpace(raw)) > 0 {
		schema, err := parsePayload(contentType(r), raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form payload", err.Error())
			return
		}
		if payload, err = json.Marshal(schema); err != nil {
			writeError(w, http.StatusInternalServerError, "encode payload", err.Error())
			return
		}
	}

	sess, err := s.create(r.Context(), payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("create session failed")
		writeError(w, http.StatusInternalServerError, "create session", err.Error())
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.id)
	writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.id, State: sess.engine.State()})
}

func parsePayload(mediaType string, raw []byte) (model.FormSchema, error) {
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return model.ParseYAML(raw)
	default:
		return model.Parse(raw)
	}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.id, State: sess.engine.State()})
}

// validateSession lists empty required fields, for the whole form or for the
// page given by ?page=.
func (s *Server) validateSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	schema := sess.engine.State().Schema
	raw := r.URL.Query().Get("page")
	if raw == "" {
		writeJSON(w, http.StatusOK, validation.Required(schema))
		return
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page", raw)
		return
	}
	writeJSON(w, http.StatusOK, validation.RequiredOnPage(schema, page))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.remove(r.Context(), id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found", id)
			return
		}
		writeError(w, http.StatusInternalServerError, "delete session", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	renderer, err := s.renderers.Resolve(r.URL.Query().Get("renderer"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown renderer", err.Error())
		return
	}
	name := renderer.Name()

	opts := render.RenderOptions{
		Title:       r.URL.Query().Get("title"),
		Endpoint:    "/sessions/" + sess.id,
		FieldPrefix: s.fieldPrefix,
		Hidden:      render.MergeHiddenFields(nil, render.SessionField(sess.id)),
		Locale:      r.URL.Query().Get("locale"),
	}
	out, err := renderer.Render(r.Context(), sess.engine.State(), opts)
	if err != nil {
		s.logger.Error().Err(err).Str("session", sess.id).Str("renderer", name).Msg("render failed")
		writeError(w, http.StatusInternalServerError, "render failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if contentType(r) == "application/x-www-form-urlencoded" {
		s.postForm(w, r, sess)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}
	cmd, err := decodeCommand(raw, s.fieldPrefix)
	if err != nil && !errors.Is(err, dispatch.ErrUnknownAction) {
		writeError(w, http.StatusBadRequest, "invalid command", err.Error())
		return
	}

	applied, err := sess.apply(r.Context(), cmd)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "command not applied", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Applied: applied, State: sess.engine.State()})
}

// decodeCommand accepts a typed command or an attribute request. Unknown
// action names come back with dispatch.ErrUnknownAction so the caller can
// still route them to the logged no-op path.
func decodeCommand(raw []byte, prefix string) (dispatch.Command, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return dispatch.Command{}, fmt.Errorf("decode command: %w", err)
	}
	if attr, ok := probe["attribute"]; ok {
		var name string
		if err := json.Unmarshal(attr, &name); err != nil {
			return dispatch.Command{}, fmt.Errorf("decode attribute: %w", err)
		}
		return dispatch.ParseAttribute(name, attributeValue(probe["value"]), prefix)
	}

	var cmd dispatch.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return dispatch.Command{}, fmt.Errorf("decode command: %w", err)
	}
	return cmd, cmd.Validate()
}

// attributeValue renders a JSON value as attribute text: strings unquoted,
// other literals verbatim, absent or null as empty.
func attributeValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// postForm handles a plain HTML form post: field sets first, then a page
// jump, then the pressed navigation button, and redirects back to the page.
// The post replays every input on the page, so sets that would not change a
// field are skipped and field-change fires only for edited values.
func (s *Server) postForm(w http.ResponseWriter, r *http.Request, sess *session) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form", err.Error())
		return
	}
	for _, cmd := range formCommands(r.PostForm, s.fieldPrefix) {
		if unchangedSet(sess.engine, cmd) {
			continue
		}
		if _, err := sess.apply(r.Context(), cmd); err != nil {
			writeError(w, http.StatusServiceUnavailable, "command not applied", err.Error())
			return
		}
	}
	http.Redirect(w, r, "/sessions/"+sess.id+"/page", http.StatusSeeOther)
}

// unchangedSet reports whether a textual set would leave its field as is. An
// empty string over an unset text value counts as unchanged.
func unchangedSet(eng *engine.Engine, cmd dispatch.Command) bool {
	if cmd.Kind != dispatch.KindFieldSet || cmd.Text == nil {
		return false
	}
	field, ok := eng.Field(cmd.FieldID)
	if !ok {
		return false
	}
	if !field.Value.IsSet() {
		return *cmd.Text == "" && field.Type.ValueKind() == model.ValueString
	}
	value, err := field.ParseValue(*cmd.Text)
	return err == nil && value.Equal(field.Value)
}

// formCommands orders form values into commands. The last value of a
// repeated key wins, which lets a checked box override its hidden "false".
func formCommands(values url.Values, prefix string) []dispatch.Command {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sets, jumps, actions []dispatch.Command
	for _, key := range keys {
		vs := values[key]
		if len(vs) == 0 {
			continue
		}
		value := vs[len(vs)-1]
		if key == "goto" {
			if page, err := strconv.Atoi(value); err == nil {
				jumps = append(jumps, dispatch.GoTo(page))
			}
			continue
		}
		cmd, err := dispatch.ParseAttribute(key, value, prefix)
		switch {
		case err == nil && cmd.Kind == dispatch.KindFieldSet:
			sets = append(sets, cmd)
		case err == nil, errors.Is(err, dispatch.ErrUnknownAction):
			actions = append(actions, cmd)
		}
	}
	out := append(sets, jumps...)
	return append(out, actions...)
}

func (s *Server) postField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	fieldID := chi.URLParam(r, "fieldID")
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	var cmd dispatch.Command
	if strings.HasPrefix(contentType(r), "text/") {
		cmd = dispatch.SetText(fieldID, string(raw))
	} else {
		var body FieldRequest
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid field value", err.Error())
			return
		}
		cmd = dispatch.Set(fieldID, body.Value)
	}

	applied, err := sess.apply(r.Context(), cmd)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "command not applied", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Applied: applied, State: sess.engine.State()})
}

func (s *Server) exportSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := export.Workbook(sess.engine.AllFields())
	if err != nil {
		s.logger.Error().Err(err).Str("session", sess.id).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "reform-"+sess.id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found", id)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "load session", err.Error())
		return nil, false
	}
	return sess, true
}

func contentType(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
