// Package render defines the renderer contract and the view projection every
// renderer draws from.
package render

import (
	"context"

	"github.com/goliatone/go-reform/pkg/engine"
)

// Renderer converts an engine state into a byte representation (HTML, text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, state engine.State, options RenderOptions) ([]byte, error)
}
