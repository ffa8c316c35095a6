// Package dispatch turns declarative commands into engine operations. Hosts
// send typed commands, or attribute-style name/value pairs that are parsed
// into commands first.
//
// action:submit only submits while the last page is active. Sent from any
// other page it is logged and dropped, so hosts that wire a submit button on
// every page should pair it with action:last.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-reform/pkg/model"
)

const (
	// ActionAttributePrefix marks navigation and submit attributes.
	ActionAttributePrefix = "action:"
	// DefaultFieldPrefix marks field set attributes.
	DefaultFieldPrefix = "set:"
)

var (
	// ErrUnknownAction is returned for action names outside the vocabulary.
	ErrUnknownAction = errors.New("dispatch: unknown action")
	// ErrUnknownKind is returned for commands that are neither actions nor sets.
	ErrUnknownKind = errors.New("dispatch: unknown command kind")
	// ErrMissingField is returned for a field set without a field id.
	ErrMissingField = errors.New("dispatch: field id is required")
	// ErrUnrecognizedAttribute is returned for names matching neither prefix.
	ErrUnrecognizedAttribute = errors.New("dispatch: unrecognized attribute")
)

// Kind tags a command.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindAction
	KindFieldSet
	KindGoTo
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindFieldSet:
		return "set"
	case KindGoTo:
		return "goto"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes "action" or "set".
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("dispatch: decode kind: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "action":
		*k = KindAction
	case "set":
		*k = KindFieldSet
	case "goto":
		*k = KindGoTo
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return nil
}

// Action names a navigation or submit operation.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionFirst    Action = "first"
	ActionLast     Action = "last"
)

// Actions lists the vocabulary.
func Actions() []Action {
	return []Action{ActionSubmit, ActionNext, ActionPrevious, ActionFirst, ActionLast}
}

// ParseAction validates name against the vocabulary.
func ParseAction(name string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(name)))
	switch action {
	case ActionSubmit, ActionNext, ActionPrevious, ActionFirst, ActionLast:
		return action, nil
	default:
		return action, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// Command is a single instruction for the engine. Field sets carry either a
// typed Value or, when Text is non-nil, raw text coerced to the field kind.
// Page is the zero-based target of a goto.
type Command struct {
	Kind    Kind        `json:"kind"`
	Action  Action      `json:"action,omitempty"`
	FieldID string      `json:"field,omitempty"`
	Value   model.Value `json:"value"`
	Text    *string     `json:"text,omitempty"`
	Page    int         `json:"page,omitempty"`
}

// Do builds an action command.
func Do(action Action) Command {
	return Command{Kind: KindAction, Action: action}
}

// GoTo builds a jump to a zero-based page index.
func GoTo(page int) Command {
	return Command{Kind: KindGoTo, Page: page}
}

// Set builds a typed field set.
func Set(fieldID string, value model.Value) Command {
	return Command{Kind: KindFieldSet, FieldID: fieldID, Value: value}
}

// SetText builds a field set from raw text.
func SetText(fieldID, text string) Command {
	return Command{Kind: KindFieldSet, FieldID: fieldID, Text: &text}
}

// Validate checks the command shape.
func (c Command) Validate() error {
	switch c.Kind {
	case KindAction:
		_, err := ParseAction(string(c.Action))
		return err
	case KindFieldSet:
		if strings.TrimSpace(c.FieldID) == "" {
			return ErrMissingField
		}
		return nil
	case KindGoTo:
		return nil
	default:
		return ErrUnknownKind
	}
}

// ParseAttribute maps an attribute name and value to a command.
// "action:<name>" becomes an action and "<prefix><field>" a text field set.
// An empty prefix uses DefaultFieldPrefix. Unknown action names return the
// parsed command together with ErrUnknownAction.
func ParseAttribute(name, value, prefix string) (Command, error) {
	if prefix == "" {
		prefix = DefaultFieldPrefix
	}
	name = strings.TrimSpace(name)

	if rest, ok := strings.CutPrefix(name, ActionAttributePrefix); ok {
		action, err := ParseAction(rest)
		return Do(action), err
	}
	if fieldID, ok := strings.CutPrefix(name, prefix); ok {
		if fieldID == "" {
			return Command{}, fmt.Errorf("%w: %q", ErrMissingField, name)
		}
		return SetText(fieldID, value), nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnrecognizedAttribute, name)
}
