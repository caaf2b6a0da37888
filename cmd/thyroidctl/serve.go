package main

import (
	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/app"
	"github.com/thyroid-lit-analyzer/internal/logging"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API with the configured knowledge base, history store and
narrative provider.

The server provides:
  - /health                       - health and knowledge base status
  - /api/v1/analyze               - interpret a lab panel
  - /api/v1/reference-ranges      - reference ranges in effect
  - /api/v1/knowledge/patterns    - loaded literature patterns
  - /api/v1/knowledge/reload      - reload the knowledge base file
  - /api/v1/history               - recorded analyses

Examples:
  thyroidctl serve
  thyroidctl serve --port 3000 --config ./config/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		manager, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := manager.GetConfig()
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}

		application, err := app.New(ctx, manager, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		// Blocks until shutdown
		return application.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "host to bind to (default: server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (default: server.port)")

	rootCmd.AddCommand(serveCmd)
}
