package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/askvid/askvid/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing askvid as tools",
	Long: `Run a Model Context Protocol (MCP) server so AI assistants can use askvid.

Tools:
- ask_video: answer a question about a video (YouTube, playlist, URL, or local file)
- download_video: download a video and return the local file paths
- get_video_metadata: YouTube video metadata as formatted text

Transports: stdio (default) or http (see --port).`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  askvid mcp

  # Run MCP server with HTTP transport on port 8080
  askvid mcp --transport=http --port=8080

  # Set up Claude Desktop integration
  askvid mcp setup-claude`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// MCP uses stdio protocol, so disable verbose logging
		config.Verbose = false
		internal.InitMCPLogging(config)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app := internal.NewApp(config)
		mcpServer := internal.NewMCPServer(app)

		// Blocks until the context is cancelled
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

// setupClaudeCmd represents the setup-claude subcommand
var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Configure Claude Desktop to use the askvid MCP server",
	Long: `Add askvid to Claude Desktop's claude_desktop_config.json.

Existing MCP server entries are preserved. The entry points at the current
binary and carries the XDG directories plus GEMINI_API_KEY if set, since
Claude Desktop does not launch servers with the user's shell environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setupClaudeDesktop()
	},
}

// ClaudeDesktopConfig represents the claude_desktop_config.json structure
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

// MCPServerConfig represents an individual MCP server configuration
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

func setupClaudeDesktop() error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("getting executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	configPath, err := getClaudeDesktopConfigPath()
	if err != nil {
		return fmt.Errorf("getting Claude Desktop config path: %w", err)
	}

	desktop, err := loadClaudeDesktopConfig(configPath)
	if err != nil {
		return err
	}

	desktop.MCPServers["askvid"] = MCPServerConfig{
		Command: execPath,
		Args:    []string{"mcp"},
		Env:     serverEnv(),
	}

	data, err := json.MarshalIndent(desktop, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println("Configured the askvid MCP server for Claude Desktop")
	fmt.Println("Restart Claude Desktop to pick it up")
	return nil
}

func loadClaudeDesktopConfig(configPath string) (*ClaudeDesktopConfig, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config for Claude Desktop not found at %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("reading existing config: %w", err)
	}

	var desktop ClaudeDesktopConfig
	if err := json.Unmarshal(data, &desktop); err != nil {
		return nil, fmt.Errorf("parsing existing config: %w", err)
	}
	if desktop.MCPServers == nil {
		desktop.MCPServers = make(map[string]MCPServerConfig)
	}

	return &desktop, nil
}

// serverEnv is the environment Claude Desktop passes to the MCP server.
func serverEnv() map[string]string {
	env := map[string]string{
		"XDG_DATA_HOME":   xdg.DataHome,
		"XDG_CONFIG_HOME": xdg.ConfigHome,
		"XDG_CACHE_HOME":  xdg.CacheHome,
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		env["GEMINI_API_KEY"] = key
	}
	return env
}

// getClaudeDesktopConfigPath returns the platform-specific config path for Claude Desktop
func getClaudeDesktopConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	case "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, ".config", "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
