// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
)

// MustLoadSchema parses a JSON or YAML schema fixture.
func MustLoadSchema(t *testing.T, path string) model.FormSchema {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	var schema model.FormSchema
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		schema, err = model.ParseYAML(data)
	default:
		schema, err = model.Parse(data)
	}
	if err != nil {
		t.Fatalf("parse schema %s: %v", path, err)
	}
	return schema
}

// NewEngine builds an engine over in-memory storage with inline transitions,
// loads payload and moves to page.
func NewEngine(t *testing.T, payload string, page int, options ...engine.Option) *engine.Engine {
	t.Helper()

	opts := append([]engine.Option{engine.WithTransitionDelay(0)}, options...)
	store, err := progress.NewStore(progress.NewMemory(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	eng, err := engine.New(store, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if payload != "" && !eng.Load(context.Background(), []byte(payload)) {
		t.Fatalf("load payload failed")
	}
	if page > 0 {
		eng.GoTo(context.Background(), page)
	}
	return eng
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file as a string.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set and
// reports whether it did.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	result, err := render(&buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return result, buf.String()
}
