// Package model defines the form schema consumed by the engine and renderers:
// an ordered list of pages, each an ordered list of typed fields. Field ids
// are unique across the whole schema so values can be addressed by id alone.
//
// Payloads are checked structurally against an embedded JSON Schema and then
// against the model invariants (unique ids, options only on choice kinds,
// value kind matching the field kind). Field kinds outside the supported set
// are kept verbatim so they survive submission even though renderers show
// them as unsupported.
package model
