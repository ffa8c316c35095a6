package extract

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// AcroForm field flags (PDF 32000-1, 12.7.3.1 and 12.7.4).
const (
	flagReadOnly   = 1 << 0
	flagRequired   = 1 << 1
	flagNoExport   = 1 << 2
	flagMultiline  = 1 << 12
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
	flagCombo      = 1 << 17
)

// PDFFields reads the AcroForm fields of the PDF at path.
func PDFFields(path string) ([]RawField, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extract: open %s: %w", path, err)
	}
	defer file.Close()
	return PDFFieldsFromReader(file)
}

// PDFFieldsFromReader reads AcroForm fields from an in-memory or on-disk PDF.
// Hierarchical fields are flattened and named with their dotted full name.
func PDFFieldsFromReader(r io.ReadSeeker) ([]RawField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(r, conf)
	if err != nil {
		return nil, fmt.Errorf("extract: read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("extract: page count: %w", err)
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("extract: catalog: %w", err)
	}
	acroFormObj, found := root.Find("AcroForm")
	if !found {
		return nil, ErrNoForm
	}
	acroForm, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("extract: acroform: %w", err)
	}
	if acroForm == nil {
		return nil, ErrNoForm
	}
	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return nil, ErrNoForm
	}
	fieldRefs, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("extract: fields array: %w", err)
	}

	w := &fieldWalker{ctx: ctx}
	for i, ref := range fieldRefs {
		w.walk(ref, "", fmt.Sprintf("field_%d", i), inherited{}, 0)
	}
	if len(w.fields) == 0 {
		return nil, ErrNoForm
	}
	return w.fields, nil
}

type fieldWalker struct {
	ctx    *model.Context
	fields []RawField
}

// inherited carries the attributes a child field takes from its parent.
type inherited struct {
	ft    string
	flags int
}

func (w *fieldWalker) walk(obj types.Object, parentName, fallback string, parent inherited, depth int) {
	if depth > 32 {
		return
	}
	dict, err := w.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	partial := w.stringEntry(dict, "T")
	name := partial
	switch {
	case partial == "" && parentName == "":
		name = fallback
	case partial == "":
		name = parentName
	case parentName != "":
		name = parentName + "." + partial
	}

	attrs := parent
	if ft := w.nameEntry(dict, "FT"); ft != "" {
		attrs.ft = ft
	}
	if flags, ok := w.intEntry(dict, "Ff"); ok {
		attrs.flags = flags
	}

	if kids := w.namedKids(dict); len(kids) > 0 {
		for i, kid := range kids {
			w.walk(kid, name, fmt.Sprintf("%s_%d", name, i), attrs, depth+1)
		}
		return
	}

	field := newRawField(name, classify(attrs))
	field.IsReadOnly = attrs.flags&flagReadOnly != 0
	field.Required = attrs.flags&flagRequired != 0
	field.IsExported = attrs.flags&flagNoExport == 0
	switch field.Type {
	case RawDropdown, RawListbox:
		field.Options = w.options(dict)
	case RawRadio:
		field.Options = w.options(dict)
		if len(field.Options) == 0 {
			field.Options = w.appearanceStates(dict)
		}
	}
	w.fields = append(w.fields, field)
}

func classify(attrs inherited) RawType {
	switch attrs.ft {
	case "Btn":
		switch {
		case attrs.flags&flagRadio != 0:
			return RawRadio
		case attrs.flags&flagPushbutton != 0:
			return RawButton
		default:
			return RawCheckbox
		}
	case "Tx":
		if attrs.flags&flagMultiline != 0 {
			return RawMultiline
		}
		return RawText
	case "Ch":
		if attrs.flags&flagCombo != 0 {
			return RawDropdown
		}
		return RawListbox
	case "Sig":
		return RawSignature
	default:
		return RawUnknown
	}
}

// namedKids returns the Kids that are fields rather than bare widget
// annotations. Widgets carry no partial name.
func (w *fieldWalker) namedKids(dict types.Dict) []types.Object {
	kidsObj, found := dict.Find("Kids")
	if !found {
		return nil
	}
	kids, err := w.ctx.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}
	var out []types.Object
	for _, kid := range kids {
		kidDict, err := w.ctx.DereferenceDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		if _, ok := kidDict.Find("T"); ok {
			out = append(out, kid)
		}
	}
	return out
}

// options reads Opt entries: either a display string or an
// [export, display] pair.
func (w *fieldWalker) options(dict types.Dict) []string {
	optObj, found := dict.Find("Opt")
	if !found {
		return nil
	}
	entries, err := w.ctx.DereferenceArray(optObj)
	if err != nil {
		return nil
	}
	var out []string
	for _, entry := range entries {
		if s, err := w.ctx.DereferenceStringOrHexLiteral(entry, model.V10, nil); err == nil {
			out = append(out, s)
			continue
		}
		pair, err := w.ctx.DereferenceArray(entry)
		if err != nil || len(pair) < 2 {
			continue
		}
		if s, err := w.ctx.DereferenceStringOrHexLiteral(pair[1], model.V10, nil); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// appearanceStates collects the on-state names of radio widgets, which is
// where radio groups without Opt keep their choices.
func (w *fieldWalker) appearanceStates(dict types.Dict) []string {
	kidsObj, found := dict.Find("Kids")
	if !found {
		return nil
	}
	kids, err := w.ctx.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, kid := range kids {
		widget, err := w.ctx.DereferenceDict(kid)
		if err != nil || widget == nil {
			continue
		}
		apObj, ok := widget.Find("AP")
		if !ok {
			continue
		}
		ap, err := w.ctx.DereferenceDict(apObj)
		if err != nil || ap == nil {
			continue
		}
		nObj, ok := ap.Find("N")
		if !ok {
			continue
		}
		normal, err := w.ctx.DereferenceDict(nObj)
		if err != nil || normal == nil {
			continue
		}
		for state := range normal {
			if state == "Off" || seen[state] {
				continue
			}
			seen[state] = true
			out = append(out, state)
		}
	}
	sort.Strings(out)
	return out
}

func (w *fieldWalker) stringEntry(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

func (w *fieldWalker) nameEntry(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	name, err := w.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(name)
}

func (w *fieldWalker) intEntry(dict types.Dict, key string) (int, bool) {
	obj, found := dict.Find(key)
	if !found {
		return 0, false
	}
	value, err := w.ctx.DereferenceInteger(obj)
	if err != nil || value == nil {
		return 0, false
	}
	return int(*value), true
}
