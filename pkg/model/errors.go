package model

import "errors"

var (
	// ErrEmptyPayload is returned when a schema payload has no content.
	ErrEmptyPayload = errors.New("model: empty schema payload")
	// ErrMalformed wraps decode and structural validation failures.
	ErrMalformed = errors.New("model: malformed schema payload")
	// ErrMissingID flags a field without an id.
	ErrMissingID = errors.New("model: field id is required")
	// ErrDuplicateID flags two fields sharing an id anywhere in the schema.
	ErrDuplicateID = errors.New("model: duplicate field id")
	// ErrOptionsRequired flags a select or radio field without options.
	ErrOptionsRequired = errors.New("model: choice field requires options")
	// ErrUnexpectedOptions flags options on a non-choice field.
	ErrUnexpectedOptions = errors.New("model: options are only allowed on select and radio fields")
	// ErrValueKind flags a value whose kind does not match the field kind.
	ErrValueKind = errors.New("model: value kind does not match field type")
)
