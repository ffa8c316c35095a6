// Package validation reports problems with a form payload and with required
// fields that are still empty. Reports never block navigation or submit.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-reform/pkg/model"
)

// Issue is one problem, located by a JSON pointer into the payload when known.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Result collects the issues of one check.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

func newResult(issues []Issue) Result {
	return Result{Valid: len(issues) == 0, Issues: issues}
}

// Payload parses raw and reports why it would be rejected by the engine.
func Payload(raw []byte) Result {
	if _, err := model.Parse(raw); err != nil {
		return newResult(issuesFromError(err))
	}
	return newResult(nil)
}

// Required lists required fields without a usable value: unset, blank text
// or an unchecked checkbox.
func Required(schema model.FormSchema) Result {
	var issues []Issue
	for pi := range schema.Pages {
		issues = append(issues, requiredOnPage(schema, pi)...)
	}
	return newResult(issues)
}

// RequiredOnPage is Required limited to the page at index. Out-of-range
// indexes report nothing.
func RequiredOnPage(schema model.FormSchema, index int) Result {
	if index < 0 || index >= len(schema.Pages) {
		return newResult(nil)
	}
	return newResult(requiredOnPage(schema, index))
}

func requiredOnPage(schema model.FormSchema, index int) []Issue {
	var issues []Issue
	for fi, field := range schema.Pages[index].Fields {
		if !field.Required || filled(field.Value) {
			continue
		}
		label := field.Label
		if label == "" {
			label = field.ID
		}
		issues = append(issues, Issue{
			Path:    fmt.Sprintf("/pages/%d/fields/%d/value", index, fi),
			Field:   field.ID,
			Message: fmt.Sprintf("%s is required", label),
		})
	}
	return issues
}

func filled(v model.Value) bool {
	if b, ok := v.Bool(); ok {
		return b
	}
	if s, ok := v.Str(); ok {
		return strings.TrimSpace(s) != ""
	}
	return v.IsSet()
}

func issuesFromError(err error) []Issue {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		var issues []Issue
		collectLeaves(ve, &issues)
		if len(issues) > 0 {
			return issues
		}
	}

	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "model: ")
	return []Issue{{Field: quotedID(msg), Message: msg}}
}

// collectLeaves keeps the innermost causes, which carry the specific keyword
// failures.
func collectLeaves(ve *jsonschema.ValidationError, out *[]Issue) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Issue{
			Path:    ve.InstanceLocation,
			Field:   fieldPathFromPointer(ve.InstanceLocation),
			Message: strings.TrimSpace(ve.Message),
		})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// quotedID returns the first Go-quoted string in msg, which model errors use
// for field ids.
func quotedID(msg string) string {
	start := strings.IndexByte(msg, '"')
	if start < 0 {
		return ""
	}
	id, err := strconv.QuotedPrefix(msg[start:])
	if err != nil {
		return ""
	}
	unquoted, err := strconv.Unquote(id)
	if err != nil {
		return ""
	}
	return unquoted
}

// fieldPathFromPointer turns "/pages/0/fields/1" into "pages.0.fields.1".
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	for i, segment := range parts {
		segment = strings.ReplaceAll(segment, "~1", "/")
		parts[i] = strings.ReplaceAll(segment, "~0", "~")
	}
	return strings.Join(parts, ".")
}
