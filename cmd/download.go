package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [video]",
	Short: "Download a video without asking a question",
	Example: `  # Download a YouTube video as mp4
  askvid download "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  askvid download tAP1eZYEuKA

  # Download every video in a playlist
  askvid download "https://www.youtube.com/playlist?list=PLabc..."

  # Download from a direct URL
  askvid download "https://example.com/video.mp4"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)

		resolved, err := app.ResolveWithStatus(cmd.Context(), args[0], !config.Quiet)
		if err != nil {
			return err
		}

		if resolved.FromCache && !config.Quiet {
			fmt.Println("Already downloaded:")
		}
		for _, path := range resolved.Paths {
			fmt.Println(path)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
