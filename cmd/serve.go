package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the askvid web UI",
	Long: `Run a local web server with a form-based UI for asking questions about videos.

The page accepts a YouTube link, a YouTube playlist, a direct video URL,
or a file upload from the browser, and shows the rendered answer.`,
	Example: `  # Serve the web UI on the configured address
  askvid serve

  # Serve on a different address
  askvid serve --listen localhost:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateGeminiRequirements(cmd, config); err != nil {
			return err
		}
		if err := internal.HandleAskFlags(cmd, config); err != nil {
			return err
		}

		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			config.ListenAddr = listen
		}

		app := internal.NewApp(config)
		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		server := internal.NewWebServer(config, app)

		if !config.Quiet {
			fmt.Printf("askvid web UI listening on http://%s\n", config.ListenAddr)
		}

		return server.Start(cmd.Context())
	},
}

func init() {
	internal.AddAskFlags(serveCmd)
	serveCmd.Flags().String("listen", "", "Listen address (default from config, localhost:8787)")
	rootCmd.AddCommand(serveCmd)
}
