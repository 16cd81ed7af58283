package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App) *MCPServer {
	mcpServer := server.NewMCPServer(
		"askvid-server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	// ask_video tool
	s.mcpServer.AddTool(mcp.NewTool("ask_video",
		mcp.WithDescription("Ask a question about a video and get a markdown answer. Accepts a YouTube video URL, a YouTube playlist URL, a direct video URL, or a path to a local video file on this machine. Downloads the video if needed, uploads it to Gemini, and answers using the video content plus web search. Playlist questions are answered across all videos; unavailable playlist videos are skipped."),
		mcp.WithString("input",
			mcp.Description("YouTube video/playlist URL, direct video URL, or local file path"),
			mcp.Required(),
		),
		mcp.WithString("question",
			mcp.Description("The question to answer about the video"),
			mcp.Required(),
		),
	), s.handleAskVideo)

	// download_video tool
	s.mcpServer.AddTool(mcp.NewTool("download_video",
		mcp.WithDescription("Download a video without asking a question and return the local file paths. Accepts a YouTube video URL, a YouTube playlist URL, or a direct video URL. Repeated calls with the same input reuse the existing download."),
		mcp.WithString("input",
			mcp.Description("YouTube video/playlist URL or direct video URL"),
			mcp.Required(),
		),
	), s.handleDownloadVideo)

	// get_video_metadata tool
	s.mcpServer.AddTool(mcp.NewTool("get_video_metadata",
		mcp.WithDescription("Extract YouTube video metadata: title, channel, duration, description, tags, and categories. Results are cached locally."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL"),
			mcp.Required(),
		),
	), s.handleGetMetadata)
}

// handleAskVideo implements the ask_video tool
func (s *MCPServer) handleAskVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("input parameter is required and must be a string"), nil
	}

	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required and must be a string"), nil
	}

	MCPLogInfo("ask_video input=%q question=%q", input, question)

	answer, err := s.app.Ask(ctx, input, question)
	if err != nil {
		MCPLogError("ask_video failed: %v", err)
		return mcp.NewToolResultErrorFromErr("answering the question failed", err), nil
	}

	text := answer.Markdown
	if len(answer.Skipped) > 0 {
		text += fmt.Sprintf("\n\nNote: %d playlist video(s) could not be processed:\n- %s",
			len(answer.Skipped), strings.Join(answer.Skipped, "\n- "))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}, nil
}

// handleDownloadVideo implements the download_video tool
func (s *MCPServer) handleDownloadVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("input parameter is required and must be a string"), nil
	}

	MCPLogInfo("download_video input=%q", input)

	resolved, err := s.app.Resolve(ctx, input)
	if err != nil {
		MCPLogError("download_video failed: %v", err)
		return mcp.NewToolResultErrorFromErr("download failed", err), nil
	}

	var buf strings.Builder
	if resolved.FromCache {
		buf.WriteString("Already downloaded:\n")
	} else {
		buf.WriteString("Downloaded:\n")
	}
	for _, path := range resolved.Paths {
		buf.WriteString(path + "\n")
	}
	for _, skipped := range resolved.Skipped {
		buf.WriteString(fmt.Sprintf("Skipped %s\n", skipped))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleGetMetadata implements the get_video_metadata tool
func (s *MCPServer) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	MCPLogInfo("get_video_metadata url=%q", url)

	metadata, err := s.app.Metadata(ctx, url)
	if err != nil {
		MCPLogError("get_video_metadata failed: %v", err)
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}

	// Format metadata as text
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Title: %s\n", metadata.Title))
	buf.WriteString(fmt.Sprintf("Channel: %s\n", metadata.Channel))
	buf.WriteString(fmt.Sprintf("Duration: %.0f seconds\n", metadata.Duration))
	buf.WriteString(fmt.Sprintf("Description: %s\n", metadata.Description))

	if len(metadata.Tags) > 0 {
		buf.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(metadata.Tags, ", ")))
	}

	if len(metadata.Categories) > 0 {
		buf.WriteString(fmt.Sprintf("Categories: %s\n", strings.Join(metadata.Categories, ", ")))
	}

	if metadata.WebpageURL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", metadata.WebpageURL))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		MCPLogDebug("starting MCP server on http port %d", port)
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return httpServer.Start(addr)
	}

	// Default to stdio transport
	MCPLogDebug("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}
