package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askvid/askvid/internal"
)

var (
	config *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "askvid [video] [question...]",
	Short: "Ask questions about any video",
	Long: `Askvid answers questions about videos using Gemini.

The video can be a YouTube link, a YouTube playlist, a direct video URL,
or a local file. Askvid downloads it if needed, uploads it to the Gemini
file service, waits until it is processed, and answers your question,
supplementing the video content with web search results when useful.`,
	Example: `  # Ask about a YouTube video
  askvid "https://www.youtube.com/watch?v=tAP1eZYEuKA" "What are the key points?"
  askvid tAP1eZYEuKA "What are the key points?"

  # Ask about a local file
  askvid ./talk.mp4 "Summarize the Q&A section"

  # Ask about every video in a playlist
  askvid "https://www.youtube.com/playlist?list=PLabc..." "Which video covers pricing?"

  # Use a specific Gemini model
  askvid tAP1eZYEuKA "What is the demo about?" --model gemini-2.5-pro`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		// Catch mistyped subcommands before treating the argument as a video
		parsed := internal.ParseInput(args[0])
		if parsed.Kind == internal.InputCommand {
			hint := parsed.SuggestCorrection(commandNames())
			return fmt.Errorf("'%s' doesn't look like a video file, URL, or YouTube ID (%s)", args[0], hint)
		}

		return askRun(cmd, args)
	},
}

func commandNames() []string {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	return names
}

// Execute runs the root command. Called once from main.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config = internal.InitConfig()

	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir, config.DownloadsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}
	if err := internal.EnsureDefaultPrompt(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompt: %v\n", err)
	}

	go shutdownOnSignal(cancel)

	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// shutdownOnSignal cancels the main context on SIGINT or SIGTERM, removes
// partial downloads, and exits. Cleanup is capped at three seconds.
func shutdownOnSignal(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nInterrupted, cleaning up...")
	cancel()

	done := make(chan struct{})
	go func() {
		if err := internal.CleanupPartials(config.DownloadsDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error cleaning up partial downloads: %v\n", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		fmt.Fprintln(os.Stderr, "Warning: cleanup timed out, forcing exit")
	}

	os.Exit(0)
}

func init() {
	internal.AddAskFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $XDG_CONFIG_HOME/askvid/config.toml)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
