package internal

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/viper"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Config holds application settings
type Config struct {
	// User configurable settings
	Model            string
	DownloadsDir     string
	PollInterval     time.Duration
	UploadTimeout    time.Duration
	AnswerTimeout    time.Duration
	SearchEnabled    bool
	SearchRegion     string
	SearchMaxResults int
	ListenAddr       string
	KeepUploads      bool
	Verbose          bool
	Quiet            bool
	MCPLogEnabled    bool
	GeminiAPIKey     string
	Prompt           string

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
}

//go:embed config.toml prompt.txt
var defaultFS embed.FS

// ensureDefaultFile writes the embedded default into configDir unless the
// file already exists there
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)
	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}
	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Printf("Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig materializes the embedded config.toml on first run
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt materializes the embedded prompt.txt on first run
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "prompt template")
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	// Ensure yt-dlp is installed
	ytdlp.MustInstall(context.Background(), nil)

	// XDG standard directories
	configDir := filepath.Join(xdg.ConfigHome, "askvid")
	dataDir := filepath.Join(xdg.DataHome, "askvid")
	cacheDir := filepath.Join(xdg.CacheHome, "askvid")

	v := viper.New()
	for key, value := range map[string]any{
		"model":              "gemini-2.0-flash",
		"downloads_dir":      filepath.Join(dataDir, "videos"),
		"poll_interval":      time.Second,
		"upload_timeout":     10 * time.Minute,
		"answer_timeout":     2 * time.Minute,
		"search":             true,
		"search_region":      "wt-wt",
		"search_max_results": 5,
		"listen_addr":        "localhost:8787",
		"keep_uploads":       false,
		"verbose":            false,
		"quiet":              false,
		"mcp_log":            false,
		"prompt":             "", // empty means the default prompt template
	} {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("ASKVID")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("_", "_"))

	// The Gemini key is also honored without the ASKVID_ prefix
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := &Config{
		Model:            v.GetString("model"),
		DownloadsDir:     v.GetString("downloads_dir"),
		PollInterval:     v.GetDuration("poll_interval"),
		UploadTimeout:    v.GetDuration("upload_timeout"),
		AnswerTimeout:    v.GetDuration("answer_timeout"),
		SearchEnabled:    v.GetBool("search"),
		SearchRegion:     v.GetString("search_region"),
		SearchMaxResults: v.GetInt("search_max_results"),
		ListenAddr:       v.GetString("listen_addr"),
		KeepUploads:      v.GetBool("keep_uploads"),
		Verbose:          v.GetBool("verbose"),
		Quiet:            v.GetBool("quiet"),
		MCPLogEnabled:    v.GetBool("mcp_log"),
		GeminiAPIKey:     v.GetString("gemini_api_key"),
		Prompt:           v.GetString("prompt"),

		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
	}

	if config.Verbose {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}
