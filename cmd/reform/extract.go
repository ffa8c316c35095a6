package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/pkg/extract"
)

var (
	extractOperation string
	extractText      bool
	extractOutput    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <document>",
	Short: "List the fillable fields of a PDF or OpenAPI document",
	Long: `List the fillable fields of a document as JSON.

PDF files are read through their AcroForm; --text prints the page text
instead. OpenAPI documents (.json, .yaml, .yml) need --operation and yield
the properties of that operation's request body.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractOperation, "operation", "", "OpenAPI operationId to read the request body of")
	extractCmd.Flags().BoolVar(&extractText, "text", false, "print the plain text of a PDF")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (stdout if empty)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	if extractText {
		text, err := extract.PDFText(path)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), extractOutput, []byte(text+"\n"))
	}

	fields, err := extractFields(cmd, path)
	if err != nil {
		return err
	}
	logger.Debug().Str("path", path).Int("fields", len(fields)).Msg("fields extracted")
	return writeJSON(cmd.OutOrStdout(), extractOutput, fields)
}

// extractFields picks the extractor by file extension.
func extractFields(cmd *cobra.Command, path string) ([]extract.RawField, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		if extractOperation == "" {
			return nil, fmt.Errorf("--operation is required for OpenAPI document %s", path)
		}
		doc, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return extract.OpenAPIFields(cmd.Context(), doc, extractOperation)
	default:
		return extract.PDFFields(path)
	}
}
