// Package components maps control kinds to the HTML fragments the vanilla
// renderer draws for them.
package components

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-reform/pkg/render"
	rendertemplate "github.com/goliatone/go-reform/pkg/render/template"
)

// Renderer writes the HTML for one control into buf.
type Renderer func(buf *bytes.Buffer, control render.Control, data ComponentData) error

// ComponentData carries what a component needs besides the control.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	// Endpoint is empty when the page is rendered without live hooks.
	Endpoint string
}

// Descriptor names a component implementation.
type Descriptor struct {
	Name     string
	Renderer Renderer
}

// Registry tracks component descriptors keyed by name.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]Descriptor),
	}
}

// Clone returns a copy that can be mutated independently.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := New()
	for name, descriptor := range r.components {
		cloned.components[name] = descriptor
	}
	return cloned
}

// Register associates a descriptor with name, replacing any existing entry.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("components: component name is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor.Name = name
	r.components[name] = descriptor
	return nil
}

// MustRegister panics on error.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Descriptor fetches a descriptor by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.components[normalize(name)]
	return descriptor, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Render draws control with the component registered for its kind.
func (r *Registry) Render(buf *bytes.Buffer, control render.Control, data ComponentData) error {
	descriptor, ok := r.Descriptor(string(control.Kind))
	if !ok {
		return fmt.Errorf("components: no component for %q (field %q)", control.Kind, control.FieldID)
	}
	return descriptor.Renderer(buf, control, data)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
