package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddAskFlags adds flags shared by commands that answer questions
func AddAskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "Gemini model to use for answers")
	cmd.Flags().StringP("prompt", "p", "", "Custom prompt template (string or file path)")
	cmd.Flags().Bool("no-search", false, "Disable the web search tool")
	cmd.Flags().Bool("keep-uploads", false, "Keep uploaded videos on the file service after answering")
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	// Check if prompt flag was explicitly set
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}

	// If prompt is empty, nothing to do
	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if app.config.Verbose {
		if IsLikelyFilePath(prompt) && FileExists(prompt) {
			fmt.Printf("Using custom prompt file: %s\n", prompt)
		} else {
			fmt.Println("Using custom prompt string")
		}
	}

	return nil
}

// HandleVerboseFlag processes the --verbose flag to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	config.Verbose = verbose
	return nil
}

// HandleAskFlags applies --no-search and --keep-uploads to the config
func HandleAskFlags(cmd *cobra.Command, config *Config) error {
	if flag := cmd.Flags().Lookup("no-search"); flag != nil && flag.Changed {
		noSearch, err := cmd.Flags().GetBool("no-search")
		if err != nil {
			return fmt.Errorf("failed to get no-search flag: %w", err)
		}
		config.SearchEnabled = !noSearch
	}

	if flag := cmd.Flags().Lookup("keep-uploads"); flag != nil && flag.Changed {
		keep, err := cmd.Flags().GetBool("keep-uploads")
		if err != nil {
			return fmt.Errorf("failed to get keep-uploads flag: %w", err)
		}
		config.KeepUploads = keep
	}

	return nil
}

// ValidateGeminiRequirements validates Gemini API key and model from command flags and config
func ValidateGeminiRequirements(cmd *cobra.Command, config *Config) error {
	// Check Gemini API key
	if err := ValidateGeminiAPIKey(config.GeminiAPIKey); err != nil {
		return err
	}

	// Handle model flag if provided
	modelFlag, _ := cmd.Flags().GetString("model")
	if modelFlag != "" {
		if err := ValidateModel(modelFlag); err != nil {
			return err
		}
		config.Model = modelFlag
	} else if err := ValidateModel(config.Model); err != nil {
		return fmt.Errorf("invalid model in config: %w", err)
	}

	return nil
}
