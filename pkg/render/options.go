package render

// RenderOptions carry per-request data renderers use without touching the
// engine.
type RenderOptions struct {
	// Title is shown above the progress bar when set.
	Title string
	// Endpoint is the base URL commands are posted to, for example
	// "/sessions/7f3c". Renderers omit interactive hooks when it is empty.
	Endpoint string
	// FieldPrefix names controls as "<prefix><fieldId>" so submitted names
	// parse as field set attributes. Defaults to "set:".
	FieldPrefix string
	// Hidden fields are emitted alongside the visible controls.
	Hidden map[string]string
	// Locale and Translator resolve chrome labels such as button text.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}
