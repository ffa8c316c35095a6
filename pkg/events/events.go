// Package events carries the lifecycle notifications the form engine and the
// prompt runner emit to their hosts.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-reform/pkg/model"
)

// Name identifies an event in the fixed vocabulary.
type Name string

const (
	FieldChange    Name = "field-change"
	FormSubmit     Name = "form-submit"
	PromptStart    Name = "prompt-start"
	SessionCreated Name = "session-created"
	PromptProgress Name = "prompt-progress"
	PromptResponse Name = "prompt-response"
	PromptError    Name = "prompt-error"
)

// Names lists the vocabulary.
func Names() []Name {
	return []Name{FieldChange, FormSubmit, PromptStart, SessionCreated, PromptProgress, PromptResponse, PromptError}
}

// Known reports whether n belongs to the vocabulary.
func (n Name) Known() bool {
	for _, known := range Names() {
		if n == known {
			return true
		}
	}
	return false
}

// Event is a single notification. Detail holds one of the *Detail types below.
type Event struct {
	ID     string    `json:"id"`
	Name   Name      `json:"name"`
	Source string    `json:"source,omitempty"`
	At     time.Time `json:"at"`
	Detail any       `json:"detail"`
}

// New stamps an event with an id and time.
func New(name Name, source string, detail any) Event {
	return Event{
		ID:     uuid.NewString(),
		Name:   name,
		Source: source,
		At:     time.Now().UTC(),
		Detail: detail,
	}
}

// FieldChangeDetail accompanies field-change.
type FieldChangeDetail struct {
	FieldID string      `json:"fieldId"`
	Value   model.Value `json:"value"`
}

// SubmitDetail accompanies form-submit: every field, page then field order.
type SubmitDetail struct {
	Fields []model.Field `json:"fields"`
}

// PromptStartDetail accompanies prompt-start.
type PromptStartDetail struct {
	Prompt string `json:"prompt"`
}

// SessionDetail accompanies session-created.
type SessionDetail struct {
	SessionID string `json:"sessionId"`
	Model     string `json:"model,omitempty"`
}

// ProgressDetail accompanies prompt-progress.
type ProgressDetail struct {
	Chunk string `json:"chunk"`
}

// ResponseDetail accompanies prompt-response.
type ResponseDetail struct {
	Response string `json:"response"`
}

// ErrorDetail accompanies prompt-error.
type ErrorDetail struct {
	Error string `json:"error"`
}

// Emitter accepts events for delivery.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

// Emit implements Emitter.
func (f EmitterFunc) Emit(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})
