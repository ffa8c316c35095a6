package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/internal/config"
	"github.com/goliatone/go-reform/internal/logging"
)

var (
	cfg    = config.Default()
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "reform",
	Short: "Dynamic multi-page forms for the terminal, the browser and agents",
	Long: `reform loads a paged form schema and lets it be filled interactively,
served over HTTP, driven as MCP tools, or generated from a fillable PDF.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(logging.Config{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: os.Stderr,
		})
		return nil
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

// Execute loads .env, when present, and runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}
