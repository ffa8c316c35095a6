package prompt

import (
	"context"
	"errors"
)

var (
	// ErrEmptyPrompt is returned when there is no prompt text to send.
	ErrEmptyPrompt = errors.New("prompt: prompt text is empty")
	// ErrClientRequired is returned when a runner has no model client.
	ErrClientRequired = errors.New("prompt: client is required")
	// ErrAPIKeyRequired is returned when the model client has no credentials.
	ErrAPIKeyRequired = errors.New("prompt: api key is required")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("prompt: model returned no text")
)

// Client sends a prompt to a language model.
type Client interface {
	// Model names the model answering prompts.
	Model() string
	// Generate returns the complete reply.
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream calls onChunk for each partial reply and returns the full text.
	Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error)
}
