package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrRendererNotFound is returned by Resolve for names nobody registered.
var ErrRendererNotFound = errors.New("render: renderer not found")

// Registry maps the names a client picks with ?renderer= or --renderer to page
// renderers. An empty name resolves to the fallback view, which is the first
// renderer registered until SetFallback names another.
type Registry struct {
	mu       sync.RWMutex
	views    map[string]Renderer
	fallback string
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string]Renderer)}
}

// Register adds renderer under its Name. Names are unique.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.views[name]; taken {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.views[name] = renderer
	if r.fallback == "" {
		r.fallback = name
	}
	return nil
}

func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// SetFallback picks the view served when a request names none.
func (r *Registry) SetFallback(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[name]; !ok {
		return fmt.Errorf("%w: %q", ErrRendererNotFound, name)
	}
	r.fallback = name
	return nil
}

// Resolve returns the renderer for name, or the fallback view when name is
// blank. The error for an unknown name lists what is available so HTTP and
// CLI callers can hand it straight back to the user.
func (r *Registry) Resolve(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = r.fallback
	}
	if renderer, ok := r.views[name]; ok {
		return renderer, nil
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrRendererNotFound, name, strings.Join(r.namesLocked(), ", "))
}

// Names lists the registered views in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.views))
	for name := range r.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
