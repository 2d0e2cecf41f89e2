package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vishals9711/task-crafter/internal/config"
	"github.com/vishals9711/task-crafter/internal/extraction"
	"github.com/vishals9711/task-crafter/internal/llm"
	"github.com/vishals9711/task-crafter/internal/logging"
	"github.com/vishals9711/task-crafter/internal/server"
	"github.com/vishals9711/task-crafter/internal/tokenstore"
	"github.com/vishals9711/task-crafter/internal/usage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Task Crafter HTTP server",
	Long: `Start the HTTP server exposing the extraction and issue creation
endpoints along with the GitHub listing and OAuth routes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		port, err := cmd.Flags().GetString("port")
		if err != nil {
			return err
		}
		if port == "" {
			port = cfg.Server.Port
		}

		svc := extraction.NewService(llm.NewClient(cfg.OpenAI))
		store := tokenstore.NewStore(cfg.Server.DataDir)
		counter := usage.NewCounter(cfg.Server.DataDir, cfg.Usage.FreeExtractionLimit)

		srv := server.New(cfg, svc, store, counter)

		logging.Info("starting http server",
			"port", port,
			"data_dir", cfg.Server.DataDir,
			"openai_key", logging.MaskSensitive(cfg.OpenAI.APIKey))
		return srv.Run(":" + port)
	},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (defaults to PORT or 8080)")
}
