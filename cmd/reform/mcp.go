package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-reform/internal/mcpserver"
)

var mcpSchema string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose a form session as MCP tools on stdio",
	Long: `Expose a single form session as MCP tools (form_load, form_state,
form_set_field, form_action, form_submit) over stdio. Progress is saved under
--session-key in the configured store.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpSchema, "schema", "", "schema file to load when no progress is saved")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := mcpserver.New(ctx,
		mcpserver.WithLogger(logger),
		mcpserver.WithStorage(store.storage),
		mcpserver.WithSessionKey(cfg.SessionKey),
		mcpserver.WithFieldPrefix(cfg.FieldPrefix),
		mcpserver.WithVersion(version),
	)
	if err != nil {
		return err
	}

	if mcpSchema != "" && srv.Engine().State().PageCount == 0 {
		payload, err := readSchema(mcpSchema, cmd.InOrStdin())
		if err != nil {
			return err
		}
		srv.Engine().Load(ctx, payload)
	}
	return srv.Serve()
}
