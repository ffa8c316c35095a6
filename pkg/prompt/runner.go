package prompt

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/events"
)

// DefaultSource tags events emitted by a Runner.
const DefaultSource = "prompt"

// Runner sends prompts through a Client and reports each run as events:
// prompt-start, session-created, prompt-progress per streamed chunk, then
// prompt-response or prompt-error.
type Runner struct {
	client  Client
	emitter events.Emitter
	source  string
	stream  bool
	logger  zerolog.Logger
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithEmitter sets the event sink.
func WithEmitter(emitter events.Emitter) RunnerOption {
	return func(r *Runner) {
		if emitter != nil {
			r.emitter = emitter
		}
	}
}

// WithSource sets the source recorded on emitted events.
func WithSource(source string) RunnerOption {
	return func(r *Runner) {
		if source != "" {
			r.source = source
		}
	}
}

// WithStreaming switches runs to the streaming endpoint.
func WithStreaming(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.stream = enabled
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner binds a Runner to client.
func NewRunner(client Client, options ...RunnerOption) (*Runner, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	r := &Runner{
		client:  client,
		emitter: events.Discard,
		source:  DefaultSource,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Run sends text and returns the reply. Blank prompts are rejected before any
// event fires; every other failure is reported as prompt-error and returned.
func (r *Runner) Run(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}

	r.emit(events.PromptStart, events.PromptStartDetail{Prompt: text})

	session := uuid.NewString()
	r.emit(events.SessionCreated, events.SessionDetail{SessionID: session, Model: r.client.Model()})
	logger := r.logger.With().Str("session", session).Str("model", r.client.Model()).Logger()
	logger.Info().Bool("stream", r.stream).Int("prompt_chars", len(text)).Msg("prompt started")

	var (
		reply string
		err   error
	)
	if r.stream {
		reply, err = r.client.Stream(ctx, text, func(chunk string) error {
			r.emit(events.PromptProgress, events.ProgressDetail{Chunk: chunk})
			return nil
		})
	} else {
		reply, err = r.client.Generate(ctx, text)
	}
	if err != nil {
		logger.Error().Err(err).Msg("prompt failed")
		r.emit(events.PromptError, events.ErrorDetail{Error: err.Error()})
		return "", err
	}

	logger.Info().Int("reply_chars", len(reply)).Msg("prompt answered")
	r.emit(events.PromptResponse, events.ResponseDetail{Response: reply})
	return reply, nil
}

func (r *Runner) emit(name events.Name, detail any) {
	r.emitter.Emit(events.New(name, r.source, detail))
}
