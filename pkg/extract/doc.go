// Package extract reads the input fields of fillable documents into an
// ordered list of RawField records. PDF AcroForms and OpenAPI request bodies
// are supported; pkg/builder turns the records into a form schema.
package extract
