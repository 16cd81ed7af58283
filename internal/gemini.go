package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiClientInterface defines the interface for Gemini client operations
type GeminiClientInterface interface {
	UploadFile(ctx context.Context, path, mimeType string) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	DeleteFile(ctx context.Context, name string) error
}

// GeminiClient wraps the official Gemini Go SDK
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client}, nil
}

// UploadFile implements the file upload method
func (c *GeminiClient) UploadFile(ctx context.Context, path, mimeType string) (*genai.File, error) {
	return c.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
}

// GetFile implements the file status method
func (c *GeminiClient) GetFile(ctx context.Context, name string) (*genai.File, error) {
	return c.client.Files.Get(ctx, name, nil)
}

// GenerateContent implements the model invocation method
func (c *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// DeleteFile implements the file deletion method
func (c *GeminiClient) DeleteFile(ctx context.Context, name string) error {
	_, err := c.client.Files.Delete(ctx, name, nil)
	return err
}

// UploadedVideo is a video stored on the Gemini file service, ready to be
// referenced in a prompt
type UploadedVideo struct {
	Name      string
	URI       string
	MIMEType  string
	LocalPath string
}

// SearchFunc runs a web search and returns formatted results
type SearchFunc func(ctx context.Context, query string) (string, error)

// webSearchToolName is the function name offered to the model
const webSearchToolName = "web_search"

// maxSearchTurns caps the number of tool round-trips per question
const maxSearchTurns = 4

const answerSystemPrompt = `You are a video analysis assistant. Answer questions about the videos the user uploaded.
Ground your answer in what the videos actually show and say. When the question needs outside or current context, call the web_search tool and work the findings into your answer.
Respond with well-structured markdown.`

// AI handles Gemini API interactions for video questions
type AI struct {
	client        GeminiClientInterface
	model         string
	pollInterval  time.Duration
	uploadTimeout time.Duration
	answerTimeout time.Duration
	verbose       bool
	apiKey        string
	clientOnce    sync.Once
	search        SearchFunc
}

// NewAI creates a new AI processor
func NewAI(client GeminiClientInterface, model string, pollInterval, uploadTimeout, answerTimeout time.Duration, verbose bool) *AI {
	return &AI{
		client:        client,
		model:         model,
		pollInterval:  pollInterval,
		uploadTimeout: uploadTimeout,
		answerTimeout: answerTimeout,
		verbose:       verbose,
	}
}

// NewAIWithKey creates a new AI processor with lazy client initialization
func NewAIWithKey(apiKey, model string, pollInterval, uploadTimeout, answerTimeout time.Duration, verbose bool) *AI {
	return &AI{
		client:        nil,
		model:         model,
		pollInterval:  pollInterval,
		uploadTimeout: uploadTimeout,
		answerTimeout: answerTimeout,
		verbose:       verbose,
		apiKey:        apiKey,
	}
}

// SetSearch enables the web_search tool, backed by fn
func (ai *AI) SetSearch(fn SearchFunc) {
	ai.search = fn
}

// ensureClient initializes the Gemini client if needed
func (ai *AI) ensureClient(ctx context.Context) error {
	if ai.client != nil {
		return nil
	}

	if ai.apiKey == "" {
		return ValidateGeminiAPIKey("")
	}

	var initErr error
	ai.clientOnce.Do(func() {
		client, err := NewGeminiClient(ctx, ai.apiKey)
		if err != nil {
			initErr = err
			return
		}
		ai.client = client
	})
	if initErr != nil {
		return fmt.Errorf("creating Gemini client: %w", initErr)
	}
	if ai.client == nil {
		return fmt.Errorf("Gemini client initialization failed")
	}

	return nil
}

// Upload sends a video to the Gemini file service and polls at a fixed
// interval until it leaves the processing state
func (ai *AI) Upload(ctx context.Context, videoFile string) (*UploadedVideo, error) {
	if err := ai.ensureClient(ctx); err != nil {
		return nil, err
	}

	if _, err := os.Stat(videoFile); err != nil {
		return nil, fmt.Errorf("reading video file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, ai.uploadTimeout)
	defer cancel()

	name := filepath.Base(videoFile)
	if ai.verbose {
		fmt.Printf("Uploading %s...\n", name)
	}

	file, err := ai.client.UploadFile(ctx, videoFile, VideoMIMEType(videoFile))
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}

	for file.State == genai.FileStateProcessing || file.State == genai.FileStateUnspecified {
		if ai.verbose {
			fmt.Printf("Waiting for %s to be processed...\n", name)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s to be processed: %w", name, ctx.Err())
		case <-time.After(ai.pollInterval):
		}

		file, err = ai.client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("checking processing state of %s: %w", name, err)
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("video processing failed for %s", name)
	}

	if ai.verbose {
		fmt.Printf("%s is ready\n", name)
	}

	return &UploadedVideo{
		Name:      file.Name,
		URI:       file.URI,
		MIMEType:  file.MIMEType,
		LocalPath: videoFile,
	}, nil
}

// Answer asks the model about the uploaded videos, letting it call the
// web_search tool until it produces a final text answer
func (ai *AI) Answer(ctx context.Context, prompt string, videos []*UploadedVideo) (string, error) {
	if err := ai.ensureClient(ctx); err != nil {
		return "", err
	}
	if len(videos) == 0 {
		return "", fmt.Errorf("no videos to ask about")
	}

	ctx, cancel := context.WithTimeout(ctx, ai.answerTimeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, video := range videos {
		parts = append(parts, genai.NewPartFromURI(video.URI, video.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(answerSystemPrompt, genai.RoleUser),
	}
	if ai.search != nil {
		config.Tools = []*genai.Tool{webSearchTool()}
	}

	for turn := 0; turn <= maxSearchTurns; turn++ {
		resp, err := ai.client.GenerateContent(ctx, ai.model, contents, config)
		if err != nil {
			return "", fmt.Errorf("generating answer: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("no response candidates from Gemini")
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			answer := strings.TrimSpace(resp.Text())
			if answer == "" {
				return "", fmt.Errorf("empty answer from Gemini")
			}
			return answer, nil
		}

		contents = append(contents, resp.Candidates[0].Content)
		contents = append(contents, genai.NewContentFromParts(ai.runToolCalls(ctx, calls), genai.RoleUser))
	}

	return "", fmt.Errorf("no final answer after %d search rounds", maxSearchTurns)
}

// runToolCalls executes the requested tool calls and wraps each output as a
// function response part. Search failures are reported back to the model
// instead of aborting the question.
func (ai *AI) runToolCalls(ctx context.Context, calls []*genai.FunctionCall) []*genai.Part {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{
			"output": ai.runToolCall(ctx, call),
		}))
	}
	return parts
}

func (ai *AI) runToolCall(ctx context.Context, call *genai.FunctionCall) string {
	if call.Name != webSearchToolName || ai.search == nil {
		return fmt.Sprintf("unknown tool: %s", call.Name)
	}

	query, _ := call.Args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "search error: empty query"
	}

	if ai.verbose {
		fmt.Printf("Searching the web for %q...\n", query)
	}

	results, err := ai.search(ctx, query)
	if err != nil {
		return fmt.Sprintf("search error: %v", err)
	}
	return results
}

// webSearchTool declares the search function offered to the model
func webSearchTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        webSearchToolName,
			Description: "Search the web with DuckDuckGo. Returns titles, URLs, and snippets of the top results.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {Type: genai.TypeString, Description: "The search query"},
				},
				Required: []string{"query"},
			},
		}},
	}
}

// Cleanup deletes uploaded videos from the file service. Failures are printed
// as warnings; the service expires uploads after 48 hours on its own.
func (ai *AI) Cleanup(ctx context.Context, videos []*UploadedVideo) {
	if ai.client == nil || len(videos) == 0 {
		return
	}

	for _, video := range videos {
		if err := ai.client.DeleteFile(ctx, video.Name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete upload %s: %v\n", video.Name, err)
			continue
		}
		if ai.verbose {
			fmt.Printf("Deleted upload %s\n", video.Name)
		}
	}
}
