package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIFields reads the top-level properties of an operation's object
// request body. Properties come out in name order; readOnly properties are
// flagged, required ones marked.
func OpenAPIFields(ctx context.Context, doc []byte, operationID string) ([]RawField, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("extract: load openapi document: %w", err)
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(op.RequestBody)
	if schema == nil || len(schema.Properties) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRequestBody, operationID)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]RawField, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		if prop == nil || prop.Value == nil {
			continue
		}
		field := newRawField(name, propertyType(prop.Value))
		if field.Type == RawUnknown {
			continue
		}
		field.IsReadOnly = prop.Value.ReadOnly
		field.Required = required[name]
		for _, v := range prop.Value.Enum {
			field.Options = append(field.Options, fmt.Sprint(v))
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := body.Value.Content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func propertyType(s *openapi3.Schema) RawType {
	var typ string
	if s.Type != nil && len(s.Type.Slice()) > 0 {
		typ = s.Type.Slice()[0]
	}
	switch typ {
	case openapi3.TypeBoolean:
		return RawCheckbox
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return RawNumber
	case openapi3.TypeString:
		switch {
		case len(s.Enum) > 0:
			return RawDropdown
		case strings.EqualFold(s.Format, "email"):
			return RawEmail
		case s.MaxLength != nil && *s.MaxLength > 255:
			return RawMultiline
		default:
			return RawText
		}
	default:
		return RawUnknown
	}
}
