package render

import (
	"errors"
	"strings"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when no
// Translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler picks the string used when a key cannot be
// translated.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

// Label keys looked up through the Translator.
const (
	LabelKeyFirst       = "nav.first"
	LabelKeyPrevious    = "nav.previous"
	LabelKeyNext        = "nav.next"
	LabelKeyLast        = "nav.last"
	LabelKeySubmit      = "nav.submit"
	LabelKeyPage        = "nav.page"
	LabelKeyEmpty       = "form.empty"
	LabelKeyUnsupported = "field.unsupported"
)

// Labels is the chrome text a renderer prints besides field labels.
type Labels struct {
	First       string `json:"first"`
	Previous    string `json:"previous"`
	Next        string `json:"next"`
	Last        string `json:"last"`
	Submit      string `json:"submit"`
	Page        string `json:"page"`
	Empty       string `json:"empty"`
	Unsupported string `json:"unsupported"`
}

// DefaultLabels returns the English chrome text.
func DefaultLabels() Labels {
	return Labels{
		First:       "First",
		Previous:    "Previous",
		Next:        "Next",
		Last:        "Last",
		Submit:      "Submit",
		Page:        "Page",
		Empty:       "No form loaded.",
		Unsupported: "Unsupported field type",
	}
}

// ResolveLabels translates every label, falling back to DefaultLabels.
func ResolveLabels(opts RenderOptions) Labels {
	defaults := DefaultLabels()
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, opts.OnMissing)
	}
	return Labels{
		First:       tr(LabelKeyFirst, defaults.First),
		Previous:    tr(LabelKeyPrevious, defaults.Previous),
		Next:        tr(LabelKeyNext, defaults.Next),
		Last:        tr(LabelKeyLast, defaults.Last),
		Submit:      tr(LabelKeySubmit, defaults.Submit),
		Page:        tr(LabelKeyPage, defaults.Page),
		Empty:       tr(LabelKeyEmpty, defaults.Empty),
		Unsupported: tr(LabelKeyUnsupported, defaults.Unsupported),
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, fallback, ErrMissingTranslator)
		}
		return fallback
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	if onMissing != nil {
		return onMissing(locale, key, fallback, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}
