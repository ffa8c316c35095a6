package components

import (
	"bytes"
	"fmt"

	"github.com/goliatone/go-reform/pkg/render"
)

const templatePrefix = "templates/components/"

// NewDefaultRegistry returns a registry with a template-backed component for
// every control kind.
func NewDefaultRegistry() *Registry {
	registry := New()
	for _, name := range []string{NameInput, NameTextarea, NameSelect, NameRadio, NameCheckbox, NameUnsupported} {
		registry.MustRegister(name, Descriptor{
			Renderer: TemplateComponent(templatePrefix + name + ".tmpl"),
		})
	}
	return registry
}

// TemplateComponent renders a control through a named template. The template
// sees "control" and "endpoint".
func TemplateComponent(templateName string) Renderer {
	return func(buf *bytes.Buffer, control render.Control, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		rendered, err := data.Template.RenderTemplate(templateName, map[string]any{
			"control":  control,
			"endpoint": data.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}
