package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/pkg/builder"
	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/prompt"
)

var (
	buildPrompt         bool
	buildStream         bool
	buildSkipReadOnly   bool
	buildKeepUnexported bool
	buildOutput         string
)

var buildCmd = &cobra.Command{
	Use:   "build <document>",
	Short: "Generate a form schema from a PDF or OpenAPI document",
	Long: `Generate a paged form schema from the fields of a document, --page-size
fields per page. With --prompt the field list is sent to Gemini and the
reply, one question per paragraph, replaces the field labels in order.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&extractOperation, "operation", "", "OpenAPI operationId to read the request body of")
	buildCmd.Flags().BoolVar(&buildPrompt, "prompt", false, "rewrite labels as questions with Gemini")
	buildCmd.Flags().BoolVar(&buildStream, "stream", false, "stream the Gemini reply")
	buildCmd.Flags().BoolVar(&buildSkipReadOnly, "skip-readonly", false, "drop read-only fields")
	buildCmd.Flags().BoolVar(&buildKeepUnexported, "keep-unexported", false, "keep fields excluded from submission")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (stdout if empty)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	fields, err := extractFields(cmd, args[0])
	if err != nil {
		return err
	}

	schema := builder.Build(fields, builder.Options{
		PageSize:       cfg.PageSize,
		SkipReadOnly:   buildSkipReadOnly,
		SkipUnexported: !buildKeepUnexported,
	})
	logger.Info().Int("fields", len(schema.AllFields())).Int("pages", schema.PageCount()).Msg("schema built")

	if buildPrompt {
		if cfg.GeminiAPIKey == "" {
			return errors.New("--prompt needs --gemini-api-key or REFORM_GEMINI_API_KEY")
		}
		client, err := prompt.NewGemini(cfg.GeminiAPIKey,
			prompt.WithModel(cfg.GeminiModel),
			prompt.WithMaxOutputTokens(cfg.GeminiMaxTokens),
			prompt.WithClientLogger(logger),
		)
		if err != nil {
			return err
		}

		spin := newSpinner("Writing questions with " + client.Model())
		runner, err := prompt.NewRunner(client,
			prompt.WithLogger(logger),
			prompt.WithStreaming(buildStream),
			prompt.WithEmitter(events.EmitterFunc(func(e events.Event) {
				if e.Name == events.PromptProgress {
					spin.Lock()
					spin.Suffix = " Receiving questions..."
					spin.Unlock()
				}
			})),
		)
		if err != nil {
			return err
		}

		text, err := prompt.QuizPrompt(fields)
		if err != nil {
			return err
		}
		spin.Start()
		reply, err := runner.Run(cmd.Context(), text)
		spin.Stop()
		if err != nil {
			return err
		}

		var applied int
		schema, applied = prompt.ApplyQuestions(schema, reply)
		logger.Info().Int("questions", applied).Msg("labels replaced")
	}

	return writeJSON(cmd.OutOrStdout(), buildOutput, schema)
}
