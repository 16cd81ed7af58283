package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// The MCP server speaks JSON-RPC on stdout, so diagnostics go to a log
// file in the cache directory instead. A nil logger means logging is off.
var (
	mcpLogger     *log.Logger
	mcpLoggerOnce sync.Once
)

// InitMCPLogging opens the MCP log file if logging is enabled in config.
func InitMCPLogging(config *Config) {
	mcpLoggerOnce.Do(func() {
		if !config.MCPLogEnabled {
			return
		}
		logger, err := openMCPLog(config.CacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: MCP logging disabled: %v\n", err)
			return
		}
		mcpLogger = logger
	})
}

func openMCPLog(cacheDir string) (*log.Logger, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	logPath := filepath.Join(cacheDir, "mcp.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", logPath, err)
	}

	return log.New(logFile, "", log.LstdFlags|log.Lmicroseconds), nil
}

func mcpLogf(level, format string, args ...any) {
	if mcpLogger == nil {
		return
	}
	mcpLogger.Printf("[%s] "+format, append([]any{level}, args...)...)
}

// MCPLogInfo logs an info message
func MCPLogInfo(format string, args ...any) {
	mcpLogf("INFO", format, args...)
}

// MCPLogError logs an error message
func MCPLogError(format string, args ...any) {
	mcpLogf("ERROR", format, args...)
}

// MCPLogDebug logs a debug message
func MCPLogDebug(format string, args ...any) {
	mcpLogf("DEBUG", format, args...)
}
