package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// metadataCmd represents the metadata command
var metadataCmd = &cobra.Command{
	Use:   "metadata [URL]",
	Short: "Get metadata from a YouTube video",
	Example: `  # Print metadata as JSON
  askvid metadata "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  askvid metadata tAP1eZYEuKA --pretty

  # Save metadata to a file
  askvid metadata tAP1eZYEuKA -o metadata.json`,
	Args: cobra.ExactArgs(1),
	RunE: metadataRun,
}

func metadataRun(cmd *cobra.Command, args []string) error {
	app := internal.NewApp(config)

	metadata, err := app.Metadata(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	pretty, _ := cmd.Flags().GetBool("pretty")
	jsonData, err := marshalMetadata(metadata, pretty)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	if outputFile, _ := cmd.Flags().GetString("output"); outputFile != "" {
		return os.WriteFile(outputFile, jsonData, 0644)
	}

	fmt.Println(string(jsonData))
	return nil
}

func marshalMetadata(metadata *internal.VideoMetadata, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(metadata, "", "  ")
	}
	return json.Marshal(metadata)
}

func init() {
	metadataCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	metadataCmd.Flags().Bool("pretty", false, "Format output as pretty JSON")
	rootCmd.AddCommand(metadataCmd)
}
