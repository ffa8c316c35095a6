// Package server exposes form sessions over HTTP: create a session from a
// schema payload, drive it with commands, render its active page, stream its
// events and export its answers.
package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/render"
	"github.com/goliatone/go-reform/pkg/renderers/tui"
	"github.com/goliatone/go-reform/pkg/renderers/vanilla"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultQueueSize      = 16
	maxPayloadBytes       = 1 << 20
)

// ErrSessionNotFound is returned for unknown or deleted session ids.
var ErrSessionNotFound = errors.New("server: session not found")

// Server owns the live sessions and their HTTP surface.
type Server struct {
	mu       sync.RWMutex
	sessions map[string]*session

	storage        progress.Storage
	sessionKey     string
	fieldPrefix    string
	delay          time.Duration
	requestTimeout time.Duration
	renderers      *render.Registry
	handlers       []events.Handler
	logger         zerolog.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStorage selects the progress backend shared by all sessions.
func WithStorage(storage progress.Storage) Option {
	return func(s *Server) {
		if storage != nil {
			s.storage = storage
		}
	}
}

// WithSessionKey sets the storage key prefix; each session appends its id.
func WithSessionKey(key string) Option {
	return func(s *Server) {
		if key != "" {
			s.sessionKey = key
		}
	}
}

// WithFieldPrefix sets the attribute prefix for field sets.
func WithFieldPrefix(prefix string) Option {
	return func(s *Server) {
		if prefix != "" {
			s.fieldPrefix = prefix
		}
	}
}

// WithTransitionDelay sets the page transition delay of each engine.
func WithTransitionDelay(delay time.Duration) Option {
	return func(s *Server) {
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// WithRequestTimeout bounds non-streaming requests.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

// WithRenderer registers an additional page renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			_ = s.renderers.Register(renderer)
		}
	}
}

// WithEventHandler subscribes fn to the events of every session, for
// example a RedisForwarder handler.
func WithEventHandler(fn events.Handler) Option {
	return func(s *Server) {
		if fn != nil {
			s.handlers = append(s.handlers, fn)
		}
	}
}

// New builds a server with an in-memory store and the HTML and text
// renderers registered.
func New(options ...Option) (*Server, error) {
	html, err := vanilla.New()
	if err != nil {
		return nil, err
	}
	s := &Server{
		sessions:       make(map[string]*session),
		storage:        progress.NewMemory(),
		sessionKey:     progress.DefaultSessionKey,
		fieldPrefix:    dispatch.DefaultFieldPrefix,
		delay:          engine.DefaultTransitionDelay,
		requestTimeout: defaultRequestTimeout,
		renderers:      render.NewRegistry(),
		logger:         zerolog.Nop(),
	}
	s.renderers.MustRegister(html)
	s.renderers.MustRegister(tui.New(tui.WithTheme(tui.PlainTheme())))
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(vanilla.AssetsFS()))))

	r.Route("/sessions", func(r chi.Router) {
		r.With(chimiddleware.Timeout(s.requestTimeout)).Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/events", s.streamEvents)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(s.requestTimeout))
				r.Get("/", s.getState)
				r.Delete("/", s.deleteSession)
				r.Get("/page", s.getPage)
				r.Get("/validation", s.validateSession)
				r.Post("/commands", s.postCommand)
				r.Post("/fields/{fieldID}", s.postField)
				r.Get("/export.xlsx", s.exportSession)
			})
		})
	})
	return r
}

// Close stops every session's command queue. Saved progress is kept.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.stop()
	}
}

// Len reports the number of live sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}

func (s *Server) storeKey(id string) string {
	return s.sessionKey + ":" + id
}
