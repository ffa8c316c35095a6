// Package vanilla renders the active page of a form as server-side HTML.
package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/render"
	rendertemplate "github.com/goliatone/go-reform/pkg/render/template"
	"github.com/goliatone/go-reform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-reform/pkg/renderers/vanilla/components"
)

// Name is the registry name of this renderer.
const Name = "vanilla"

const formTemplate = "templates/form.tmpl"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	overrides        map[string]components.Descriptor
	policy           *bluemonday.Policy
	inlineStyles     bool
	inlineScript     bool
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithComponent overrides the component drawn for one control kind.
func WithComponent(kind render.ControlKind, renderer components.Renderer) Option {
	return func(cfg *config) {
		if renderer == nil {
			return
		}
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]components.Descriptor)
		}
		cfg.overrides[string(kind)] = components.Descriptor{Renderer: renderer}
	}
}

// WithLabelPolicy replaces the sanitizer applied to labels.
func WithLabelPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithInlineStyles toggles the embedded stylesheet in the output.
func WithInlineStyles(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyles = enabled
	}
}

// WithInlineScript toggles the embedded runtime script. It is only emitted
// when the render options carry an endpoint.
func WithInlineScript(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineScript = enabled
	}
}

// Renderer draws HTML through pongo2 templates.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	registry   *components.Registry
	policy     *bluemonday.Policy
	stylesheet string
	script     string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:   TemplatesFS(),
		inlineStyles: true,
		inlineScript: true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	registry := cfg.registry
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	if len(cfg.overrides) > 0 {
		registry = registry.Clone()
		for name, descriptor := range cfg.overrides {
			if err := registry.Register(name, descriptor); err != nil {
				return nil, fmt.Errorf("vanilla renderer: %w", err)
			}
		}
	}

	policy := cfg.policy
	if policy == nil {
		policy = LabelPolicy()
	}

	r := &Renderer{
		templates: templates,
		registry:  registry,
		policy:    policy,
	}
	if cfg.inlineStyles {
		r.stylesheet = readAsset(StylesheetName)
	}
	if cfg.inlineScript {
		r.script = readAsset(RuntimeScriptName)
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws the active page, the progress bar and the navigation chrome.
func (r *Renderer) Render(ctx context.Context, state engine.State, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	view := render.NewView(state, opts)
	data := components.ComponentData{Template: r.templates, Endpoint: view.Endpoint}

	var controls bytes.Buffer
	for i, control := range view.Controls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		control = sanitizeControl(control, r.policy)
		view.Controls[i] = control
		if err := r.registry.Render(&controls, control, data); err != nil {
			return nil, fmt.Errorf("vanilla renderer: %w", err)
		}
	}

	result, err := r.templates.RenderTemplate(formTemplate, map[string]any{
		"view":       view,
		"controls":   controls.String(),
		"stylesheet": r.stylesheet,
		"script":     r.script,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}
