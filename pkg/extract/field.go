package extract

import (
	"errors"
	"strings"
)

var (
	// ErrNoForm is returned when a document carries no interactive form.
	ErrNoForm = errors.New("extract: document has no form fields")
	// ErrOperationNotFound is returned when an OpenAPI operation id is unknown.
	ErrOperationNotFound = errors.New("extract: operation not found")
	// ErrNoRequestBody is returned when an operation has no object request body.
	ErrNoRequestBody = errors.New("extract: operation has no object request body")
)

// RawType is the document-level kind of an extracted field.
type RawType string

const (
	RawText      RawType = "text"
	RawMultiline RawType = "multiline"
	RawEmail     RawType = "email"
	RawNumber    RawType = "number"
	RawCheckbox  RawType = "checkbox"
	RawRadio     RawType = "radio"
	RawDropdown  RawType = "dropdown"
	RawListbox   RawType = "listbox"
	RawButton    RawType = "button"
	RawSignature RawType = "signature"
	RawUnknown   RawType = "unknown"
)

// RawField is one extracted input, in document order.
type RawField struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Type       RawType  `json:"type"`
	IsReadOnly bool     `json:"isReadOnly"`
	IsExported bool     `json:"isExported"`
	Required   bool     `json:"required,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// SanitizeID drops every character outside [A-Za-z0-9-] and lowercases the rest.
func SanitizeID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

func newRawField(name string, typ RawType) RawField {
	return RawField{
		ID:         SanitizeID(name),
		Name:       name,
		Type:       typ,
		IsExported: true,
	}
}
