package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/validation"
)

var validateStrict bool

var errInvalidSchema = errors.New("schema has issues")

var validateCmd = &cobra.Command{
	Use:   "validate <schema>",
	Short: "Check a form schema and list empty required fields",
	Long: `Check that a form schema would be accepted and list required fields
that hold no value. Empty required fields only fail the command with --strict.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail when required fields are empty")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		schema, err := model.ParseYAML(raw)
		if err != nil {
			result := validation.Result{Issues: []validation.Issue{{Message: err.Error()}}}
			_ = writeJSON(cmd.OutOrStdout(), "", result)
			return errInvalidSchema
		}
		return reportRequired(cmd, schema)
	}

	result := validation.Payload(raw)
	if !result.Valid {
		_ = writeJSON(cmd.OutOrStdout(), "", result)
		return errInvalidSchema
	}
	schema, err := model.Parse(raw)
	if err != nil {
		return err
	}
	return reportRequired(cmd, schema)
}

func reportRequired(cmd *cobra.Command, schema model.FormSchema) error {
	result := validation.Required(schema)
	if err := writeJSON(cmd.OutOrStdout(), "", result); err != nil {
		return err
	}
	if validateStrict && !result.Valid {
		return errInvalidSchema
	}
	return nil
}
