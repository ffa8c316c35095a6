package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const payloadSchemaURL = "form.schema.json"

//go:embed payload.schema.json
var payloadSchemaJSON []byte

var (
	payloadSchemaOnce sync.Once
	payloadSchema     *jsonschema.Schema
	payloadSchemaErr  error
)

func compiledPayloadSchema() (*jsonschema.Schema, error) {
	payloadSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(payloadSchemaURL, bytes.NewReader(payloadSchemaJSON)); err != nil {
			payloadSchemaErr = fmt.Errorf("model: add payload schema: %w", err)
			return
		}
		payloadSchema, payloadSchemaErr = compiler.Compile(payloadSchemaURL)
		if payloadSchemaErr != nil {
			payloadSchemaErr = fmt.Errorf("model: compile payload schema: %w", payloadSchemaErr)
		}
	})
	return payloadSchema, payloadSchemaErr
}

// Parse decodes a serialized schema payload and enforces the model
// invariants. It never returns a partially decoded schema.
func Parse(raw []byte) (FormSchema, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return FormSchema{}, ErrEmptyPayload
	}

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return FormSchema{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	validator, err := compiledPayloadSchema()
	if err != nil {
		return FormSchema{}, err
	}
	if err := validator.Validate(doc); err != nil {
		return FormSchema{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var schema FormSchema
	if err := json.Unmarshal(trimmed, &schema); err != nil {
		return FormSchema{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	schema.normalize()

	if err := schema.Validate(); err != nil {
		return FormSchema{}, err
	}
	return schema, nil
}

// ParseYAML accepts the same document shape written as YAML.
func ParseYAML(raw []byte) (FormSchema, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return FormSchema{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return FormSchema{}, ErrEmptyPayload
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return FormSchema{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Parse(data)
}

// Validate checks the invariants that the payload schema cannot express.
func (s FormSchema) Validate() error {
	seen := make(map[string]struct{})
	for pi, page := range s.Pages {
		for fi, field := range page.Fields {
			if strings.TrimSpace(field.ID) == "" {
				return fmt.Errorf("%w: page %d field %d", ErrMissingID, pi, fi)
			}
			if _, dup := seen[field.ID]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateID, field.ID)
			}
			seen[field.ID] = struct{}{}

			if field.Type.Known() {
				hasOptions := len(field.Options) > 0
				if field.Type.HasOptions() && !hasOptions {
					return fmt.Errorf("%w: %q", ErrOptionsRequired, field.ID)
				}
				if !field.Type.HasOptions() && hasOptions {
					return fmt.Errorf("%w: %q", ErrUnexpectedOptions, field.ID)
				}
			}
			if !field.Type.Accepts(field.Value) {
				return fmt.Errorf("%w: %q holds %s", ErrValueKind, field.ID, field.Value.Kind())
			}
		}
	}
	return nil
}
