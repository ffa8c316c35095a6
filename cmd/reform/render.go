package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/progress"
	"github.com/goliatone/go-reform/pkg/render"
	"github.com/goliatone/go-reform/pkg/renderers/tui"
	"github.com/goliatone/go-reform/pkg/renderers/vanilla"
)

var (
	renderRenderer string
	renderPage     int
	renderTitle    string
	renderEndpoint string
	renderLocale   string
	renderOutput   string
)

var renderCmd = &cobra.Command{
	Use:   "render <schema>",
	Short: "Render one page of a form schema",
	Long: `Render one page of a form schema as HTML (vanilla) or text (tui).
Use "-" to read a JSON schema from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderRenderer, "renderer", "r", vanilla.Name, "renderer to use (vanilla, tui)")
	renderCmd.Flags().IntVar(&renderPage, "page", 0, "zero-based page index")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "form title")
	renderCmd.Flags().StringVar(&renderEndpoint, "endpoint", "", "base URL the HTML form posts commands to")
	renderCmd.Flags().StringVar(&renderLocale, "locale", "", "locale for button labels")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (stdout if empty)")
	rootCmd.AddCommand(renderCmd)
}

func newRegistry() (*render.Registry, error) {
	html, err := vanilla.New()
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	registry.MustRegister(html)
	registry.MustRegister(tui.New())
	return registry, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	payload, err := readSchema(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}
	renderer, err := registry.Resolve(renderRenderer)
	if err != nil {
		return err
	}

	store, err := progress.NewStore(progress.NewMemory(), cfg.SessionKey)
	if err != nil {
		return err
	}
	eng, err := engine.New(store, engine.WithLogger(logger), engine.WithTransitionDelay(0))
	if err != nil {
		return err
	}
	eng.Load(ctx, payload)
	if renderPage != 0 && !eng.GoTo(ctx, renderPage) {
		logger.Warn().Int("page", renderPage).Msg("page out of range, rendering the first page")
	}

	out, err := renderer.Render(ctx, eng.State(), render.RenderOptions{
		Title:       renderTitle,
		Endpoint:    renderEndpoint,
		FieldPrefix: cfg.FieldPrefix,
		Locale:      renderLocale,
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), renderOutput, out)
}
