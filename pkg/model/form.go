package model

import "github.com/rs/zerolog"

// Form owns a live schema and applies edits to it. Form is not safe for
// concurrent use; callers serialise access.
type Form struct {
	schema FormSchema
	logger zerolog.Logger
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithLogger sets the logger used to report discarded payloads.
func WithLogger(logger zerolog.Logger) FormOption {
	return func(f *Form) {
		f.logger = logger
	}
}

// NewForm returns a Form holding an empty schema.
func NewForm(options ...FormOption) *Form {
	f := &Form{
		schema: Empty(),
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Load replaces the schema with the decoded payload. A payload that fails to
// parse is logged and the current schema is left untouched.
func (f *Form) Load(raw []byte) bool {
	schema, err := Parse(raw)
	if err != nil {
		f.logger.Warn().Err(err).Msg("discarding schema payload")
		return false
	}
	f.schema = schema
	return true
}

// Replace installs an already validated schema.
func (f *Form) Replace(schema FormSchema) {
	schema = schema.Clone()
	schema.normalize()
	f.schema = schema
}

// SetFieldValue overwrites the value of the first field matching id, scanning
// pages in order. It reports false and changes nothing when no field matches
// or the value kind does not fit the field.
func (f *Form) SetFieldValue(id string, value Value) bool {
	for pi := range f.schema.Pages {
		fields := f.schema.Pages[pi].Fields
		for fi := range fields {
			if fields[fi].ID != id {
				continue
			}
			if !fields[fi].Type.Accepts(value) {
				f.logger.Debug().
					Str("field", id).
					Str("type", string(fields[fi].Type)).
					Stringer("kind", value.Kind()).
					Msg("rejecting value of the wrong kind")
				return false
			}
			fields[fi].Value = value.Clone()
			return true
		}
	}
	return false
}

// Field returns a copy of the field matching id.
func (f *Form) Field(id string) (Field, bool) {
	return f.schema.Field(id)
}

// AllFields flattens the schema in page then field order.
func (f *Form) AllFields() []Field {
	return f.schema.AllFields()
}

// Schema returns a deep copy of the current schema.
func (f *Form) Schema() FormSchema {
	return f.schema.Clone()
}

// PageCount returns the number of pages in the current schema.
func (f *Form) PageCount() int {
	return len(f.schema.Pages)
}
