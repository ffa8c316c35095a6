// Package template defines the template engine seam renderers draw through.
package template
