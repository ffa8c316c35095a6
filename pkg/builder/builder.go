// Package builder turns extracted document fields into a paged form schema.
package builder

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-reform/pkg/extract"
	"github.com/goliatone/go-reform/pkg/model"
)

// DefaultPageSize is the number of fields placed on each generated page.
const DefaultPageSize = 5

// Options tunes Build.
type Options struct {
	// PageSize caps fields per page; values below 1 use DefaultPageSize.
	PageSize int
	// SkipReadOnly drops fields the document marks read-only.
	SkipReadOnly bool
	// SkipUnexported drops fields the document excludes from submission.
	SkipUnexported bool
}

// Build maps raw fields to schema fields in document order, drops buttons,
// signatures and unrecognised kinds, de-duplicates ids, and chunks the
// result into pages.
func Build(fields []extract.RawField, opts Options) model.FormSchema {
	size := opts.PageSize
	if size < 1 {
		size = DefaultPageSize
	}

	seen := make(map[string]int, len(fields))
	converted := make([]model.Field, 0, len(fields))
	for _, raw := range fields {
		if opts.SkipReadOnly && raw.IsReadOnly {
			continue
		}
		if opts.SkipUnexported && !raw.IsExported {
			continue
		}
		typ, ok := FieldType(raw.Type)
		if !ok {
			continue
		}
		field := model.Field{
			ID:       uniqueID(seen, raw),
			Label:    Label(raw.Name),
			Type:     typ,
			Required: raw.Required,
		}
		if typ.HasOptions() {
			field.Options = options(raw.Options)
			if len(field.Options) == 0 {
				// A choice field without choices cannot be answered.
				field.Type = model.FieldTypeText
			}
		}
		converted = append(converted, field)
	}

	schema := model.Empty()
	for start := 0; start < len(converted); start += size {
		end := start + size
		if end > len(converted) {
			end = len(converted)
		}
		page := model.Page{Fields: append([]model.Field(nil), converted[start:end]...)}
		schema.Pages = append(schema.Pages, page)
	}
	return schema
}

// FieldType maps an extracted kind onto a schema field kind. Buttons,
// signatures and unknown kinds report false.
func FieldType(t extract.RawType) (model.FieldType, bool) {
	switch t {
	case extract.RawText:
		return model.FieldTypeText, true
	case extract.RawMultiline:
		return model.FieldTypeTextarea, true
	case extract.RawEmail:
		return model.FieldTypeEmail, true
	case extract.RawNumber:
		return model.FieldTypeNumber, true
	case extract.RawCheckbox:
		return model.FieldTypeCheckbox, true
	case extract.RawRadio:
		return model.FieldTypeRadio, true
	case extract.RawDropdown, extract.RawListbox:
		return model.FieldTypeSelect, true
	default:
		return "", false
	}
}

// Label derives a readable label from a document field name: the last
// dotted segment, with separators turned into spaces.
func Label(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

func uniqueID(seen map[string]int, raw extract.RawField) string {
	base := raw.ID
	if base == "" {
		base = extract.SanitizeID(raw.Name)
	}
	if base == "" {
		base = "field"
	}
	id := base
	for seen[id] > 0 {
		seen[base]++
		id = base + "-" + strconv.Itoa(seen[base])
	}
	seen[id]++
	return id
}

func options(values []string) []model.Option {
	out := make([]model.Option, 0, len(values))
	dup := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || dup[v] {
			continue
		}
		dup[v] = true
		out = append(out, model.Option{Value: v, Label: v})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
