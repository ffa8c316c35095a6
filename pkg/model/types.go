package model

// FieldType names the input kind of a field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
)

// FieldTypes lists the supported kinds in display order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeEmail,
		FieldTypeNumber,
		FieldTypeTextarea,
		FieldTypeSelect,
		FieldTypeRadio,
		FieldTypeCheckbox,
	}
}

// Known reports whether t is one of the supported kinds.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeNumber, FieldTypeTextarea,
		FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	default:
		return false
	}
}

// HasOptions reports whether fields of this kind carry an option list.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldTypeSelect, FieldTypeRadio:
		return true
	default:
		return false
	}
}

// ValueKind reports the kind of value a field of this type holds. Unsupported
// kinds report ValueRaw, meaning any JSON value is kept as-is.
func (t FieldType) ValueKind() ValueKind {
	switch t {
	case FieldTypeCheckbox:
		return ValueBool
	case FieldTypeText, FieldTypeEmail, FieldTypeNumber, FieldTypeTextarea,
		FieldTypeSelect, FieldTypeRadio:
		return ValueString
	default:
		return ValueRaw
	}
}

// Accepts reports whether v may be stored on a field of this type. Unset is
// always accepted.
func (t FieldType) Accepts(v Value) bool {
	if !v.IsSet() {
		return true
	}
	want := t.ValueKind()
	if want == ValueRaw {
		return true
	}
	return v.Kind() == want
}

// Option is one entry of a select or radio field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is a single input. Options is only populated for select and radio.
type Field struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Value    Value     `json:"value"`
	Required bool      `json:"required"`
	Options  []Option  `json:"options,omitempty"`
}

// OptionLabel returns the label for value, falling back to the value itself.
func (f Field) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			if opt.Label == "" {
				return opt.Value
			}
			return opt.Label
		}
	}
	return value
}

// Page is an ordered group of fields shown together.
type Page struct {
	Fields []Field `json:"fields"`
}

// FormSchema is the root aggregate: pages in display order.
type FormSchema struct {
	Pages []Page `json:"pages"`
}

// Empty returns a schema with no pages.
func Empty() FormSchema {
	return FormSchema{Pages: []Page{}}
}

// PageCount returns the number of pages.
func (s FormSchema) PageCount() int {
	return len(s.Pages)
}

// AllFields flattens pages in page order, preserving field order.
func (s FormSchema) AllFields() []Field {
	var total int
	for _, page := range s.Pages {
		total += len(page.Fields)
	}
	out := make([]Field, 0, total)
	for _, page := range s.Pages {
		for _, field := range page.Fields {
			out = append(out, field.Clone())
		}
	}
	return out
}

// Field returns the first field matching id in page order.
func (s FormSchema) Field(id string) (Field, bool) {
	for _, page := range s.Pages {
		for _, field := range page.Fields {
			if field.ID == id {
				return field.Clone(), true
			}
		}
	}
	return Field{}, false
}

// Clone returns a deep copy of the schema.
func (s FormSchema) Clone() FormSchema {
	out := FormSchema{Pages: make([]Page, len(s.Pages))}
	for i, page := range s.Pages {
		fields := make([]Field, len(page.Fields))
		for j, field := range page.Fields {
			fields[j] = field.Clone()
		}
		out.Pages[i] = Page{Fields: fields}
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.Value = f.Value.Clone()
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	return out
}

func (s *FormSchema) normalize() {
	if s.Pages == nil {
		s.Pages = []Page{}
	}
	for i := range s.Pages {
		if s.Pages[i].Fields == nil {
			s.Pages[i].Fields = []Field{}
		}
		for j := range s.Pages[i].Fields {
			field := &s.Pages[i].Fields[j]
			if len(field.Options) == 0 {
				field.Options = nil
			}
		}
	}
}
