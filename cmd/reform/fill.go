package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/export"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/render"
	"github.com/goliatone/go-reform/pkg/renderers/tui"
	"github.com/goliatone/go-reform/pkg/validation"
)

var (
	fillTitle  string
	fillOutput string
	fillXLSX   string
	fillReset  bool
)

var fillCmd = &cobra.Command{
	Use:   "fill <schema>",
	Short: "Fill a form interactively in the terminal",
	Long: `Fill a form page by page in the terminal. Progress is saved under
--session-key after every change, so quitting and running fill again resumes
where you left off. On submit the fields are printed as JSON, or written to
--output, and optionally exported to an XLSX workbook.`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

func init() {
	fillCmd.Flags().StringVar(&fillTitle, "title", "", "title shown above each page")
	fillCmd.Flags().StringVarP(&fillOutput, "output", "o", "", "write submitted fields as JSON to this file")
	fillCmd.Flags().StringVar(&fillXLSX, "xlsx", "", "also export submitted fields to this workbook")
	fillCmd.Flags().BoolVar(&fillReset, "reset", false, "discard saved progress before starting")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	payload, err := readSchema(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	store, err := progress.NewStore(backend.storage, cfg.SessionKey, progress.WithLogger(logger))
	if err != nil {
		return err
	}
	if fillReset {
		if err := store.Clear(ctx); err != nil {
			return err
		}
	}

	var submitted []model.Field
	eng, err := engine.New(store,
		engine.WithLogger(logger),
		engine.WithTransitionDelay(cfg.TransitionDelay),
		engine.WithSource("fill"),
		engine.WithEmitter(events.EmitterFunc(func(e events.Event) {
			if detail, ok := e.Detail.(events.SubmitDetail); ok {
				submitted = detail.Fields
			}
		})),
	)
	if err != nil {
		return err
	}
	eng.Attach(ctx, payload)
	defer eng.Detach()

	session, err := tui.NewSession(eng,
		tui.WithLogger(logger),
		tui.WithOutput(cmd.OutOrStdout()),
		tui.WithRenderOptions(render.RenderOptions{
			Title:       fillTitle,
			FieldPrefix: cfg.FieldPrefix,
		}),
	)
	if err != nil {
		return err
	}

	outcome, err := session.Run(ctx)
	if err != nil && !errors.Is(err, tui.ErrAborted) && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Debug().Str("outcome", outcome.String()).Msg("fill finished")
	if outcome != tui.OutcomeSubmitted {
		cmd.PrintErrf("Progress saved under %q.\n", cfg.SessionKey)
		return nil
	}

	for _, issue := range validation.Required(eng.State().Schema).Issues {
		logger.Warn().Str("field", issue.Field).Msg(issue.Message)
	}

	if fillXLSX != "" {
		data, err := export.Workbook(submitted)
		if err != nil {
			return err
		}
		if err := os.WriteFile(fillXLSX, data, 0o644); err != nil {
			return err
		}
	}
	return writeJSON(cmd.OutOrStdout(), fillOutput, submitted)
}
