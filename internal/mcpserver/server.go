// Package mcpserver exposes one form session as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/validation"
)

const (
	DefaultName    = "reform"
	DefaultVersion = "0.1.0"
)

var ErrPayloadRequired = errors.New("mcpserver: payload or path is required")

// Server wraps an MCP server around a single engine.
type Server struct {
	name       string
	version    string
	storage    progress.Storage
	sessionKey string
	prefix     string
	handlers   []events.Handler
	logger     zerolog.Logger

	bus        *events.Bus
	engine     *engine.Engine
	dispatcher *dispatch.Dispatcher
	mcpServer  *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStorage sets the progress backend. Defaults to in-memory storage.
func WithStorage(storage progress.Storage) Option {
	return func(s *Server) {
		if storage != nil {
			s.storage = storage
		}
	}
}

func WithSessionKey(key string) Option {
	return func(s *Server) {
		if key != "" {
			s.sessionKey = key
		}
	}
}

func WithFieldPrefix(prefix string) Option {
	return func(s *Server) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithEventHandler subscribes fn to every engine event.
func WithEventHandler(fn events.Handler) Option {
	return func(s *Server) {
		if fn != nil {
			s.handlers = append(s.handlers, fn)
		}
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// New builds the engine and registers the form tools. Saved progress under
// the session key is restored.
func New(ctx context.Context, options ...Option) (*Server, error) {
	s := &Server{
		name:       DefaultName,
		version:    DefaultVersion,
		storage:    progress.NewMemory(),
		sessionKey: progress.DefaultSessionKey,
		prefix:     dispatch.DefaultFieldPrefix,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	store, err := progress.NewStore(s.storage, s.sessionKey, progress.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	s.bus = events.NewBus(events.WithLogger(s.logger))
	for _, fn := range s.handlers {
		s.bus.Subscribe(fn)
	}

	s.engine, err = engine.New(store,
		engine.WithLogger(s.logger),
		engine.WithEmitter(s.bus),
		engine.WithTransitionDelay(0),
		engine.WithSource(DefaultName),
	)
	if err != nil {
		return nil, err
	}
	s.engine.Attach(ctx, nil)

	s.dispatcher, err = dispatch.New(s.engine,
		dispatch.WithLogger(s.logger),
		dispatch.WithFieldPrefix(s.prefix),
	)
	if err != nil {
		return nil, err
	}

	s.mcpServer = server.NewMCPServer(s.name, s.version, server.WithToolCapabilities(false))
	s.registerTools()
	return s, nil
}

// Engine returns the engine behind the tools.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"form_load",
		mcp.WithDescription("Replace the form with a JSON payload or a JSON/YAML schema file"),
		mcp.WithString("payload", mcp.Description("Form payload JSON: {\"pages\":[{\"fields\":[...]}]}")),
		mcp.WithString("path", mcp.Description("Path to a .json, .yaml or .yml schema file")),
	), s.handleLoad)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_state",
		mcp.WithDescription("Return the current page, progress and field values"),
	), s.handleState)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_set_field",
		mcp.WithDescription("Set a field value from text; checkboxes accept true/false"),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value as text")),
	), s.handleSetField)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_action",
		mcp.WithDescription("Navigate the form: next, previous, first, last or submit"),
		mcp.WithString("action", mcp.Required(),
			mcp.Description("Action name"),
			mcp.Enum("next", "previous", "first", "last", "submit"),
		),
	), s.handleAction)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_submit",
		mcp.WithDescription("Submit the form from the last page; returns every field and any empty required fields"),
	), s.handleSubmit)
}

func (s *Server) handleLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	payload, _ := args["payload"].(string)
	path, _ := args["path"].(string)

	data, err := loadPayload(payload, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.engine.Load(ctx, data) {
		msg := "form payload rejected"
		for _, issue := range validation.Payload(data).Issues {
			msg += "\n" + strings.TrimSpace(issue.Path+" "+issue.Message)
		}
		return mcp.NewToolResultError(msg), nil
	}
	s.engine.First(ctx)
	s.engine.Flush()
	return s.stateResult()
}

func (s *Server) handleState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.stateResult()
}

func (s *Server) handleSetField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.dispatcher.Dispatch(ctx, dispatch.SetText(field, value)) {
		return mcp.NewToolResultError(fmt.Sprintf("field %q not updated", field)), nil
	}
	return s.stateResult()
}

func (s *Server) handleAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := dispatch.ParseAction(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if action == dispatch.ActionSubmit {
		return s.handleSubmit(ctx, request)
	}

	applied := s.dispatcher.Dispatch(ctx, dispatch.Do(action))
	s.engine.Flush()
	if !applied {
		return mcp.NewToolResultError(fmt.Sprintf("action %q not applied", action)), nil
	}
	return s.stateResult()
}

func (s *Server) handleSubmit(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var submitted []model.Field
	unsubscribe := s.captureSubmit(&submitted)
	applied := s.dispatcher.Dispatch(ctx, dispatch.Do(dispatch.ActionSubmit))
	unsubscribe()

	if !applied {
		state := s.engine.State()
		return mcp.NewToolResultError(fmt.Sprintf(
			"submit is only available on the last page (page %d of %d)",
			state.CurrentPageIndex+1, state.PageCount,
		)), nil
	}
	if submitted == nil {
		submitted = s.engine.AllFields()
	}
	return jsonResult(map[string]any{
		"fields":  submitted,
		"missing": validation.Required(s.engine.State().Schema).Issues,
	})
}

// captureSubmit records the fields carried by the next form-submit event.
func (s *Server) captureSubmit(dst *[]model.Field) func() {
	var captured bool
	return s.bus.Subscribe(func(e events.Event) {
		if captured || e.Name != events.FormSubmit {
			return
		}
		if detail, ok := e.Detail.(events.SubmitDetail); ok {
			*dst = detail.Fields
			captured = true
		}
	})
}

func (s *Server) stateResult() (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.State())
}

// Serve blocks serving the tools over stdio.
func (s *Server) Serve() error {
	s.logger.Info().Str("session", s.sessionKey).Msg("serving form tools on stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("mcpserver: serve stdio: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// loadPayload returns JSON form data from an inline payload or a schema file.
func loadPayload(payload, path string) ([]byte, error) {
	if strings.TrimSpace(payload) != "" {
		return []byte(payload), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, ErrPayloadRequired
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: read schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		schema, err := model.ParseYAML(raw)
		if err != nil {
			return nil, err
		}
		return json.Marshal(schema)
	default:
		return raw, nil
	}
}
