package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// pathsCmd prints where askvid reads and writes files
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  askvid paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config:    %s\n", filepath.Join(config.ConfigDir, "config.toml"))
		fmt.Printf("Prompt:    %s\n", filepath.Join(config.ConfigDir, "prompt.txt"))
		fmt.Printf("Data:      %s\n", config.DataDir)
		fmt.Printf("Cache:     %s\n", config.CacheDir)
		fmt.Printf("Downloads: %s\n", config.DownloadsDir)
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
