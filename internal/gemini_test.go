package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeGeminiClient scripts upload states and model responses. GetFile returns
// the uploaded file with the next state from states; GenerateContent returns
// the next response from responses, sticking to the last one when exhausted.
type fakeGeminiClient struct {
	uploadFile *genai.File
	uploadErr  error

	states   []genai.FileState
	getCalls int
	getErr   error

	responses []*genai.GenerateContentResponse
	genErr    error
	genCalls  int
	contents  [][]*genai.Content
	configs   []*genai.GenerateContentConfig

	deleted   []string
	deleteErr error
}

func (f *fakeGeminiClient) UploadFile(ctx context.Context, path, mimeType string) (*genai.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	file := *f.uploadFile
	return &file, nil
}

func (f *fakeGeminiClient) GetFile(ctx context.Context, name string) (*genai.File, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	file := *f.uploadFile
	file.State = f.states[min(f.getCalls, len(f.states)-1)]
	f.getCalls++
	return &file, nil
}

func (f *fakeGeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	f.contents = append(f.contents, contents)
	f.configs = append(f.configs, config)
	resp := f.responses[min(f.genCalls, len(f.responses)-1)]
	f.genCalls++
	return resp, nil
}

func (f *fakeGeminiClient) DeleteFile(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func newTestAI(client GeminiClientInterface) *AI {
	return NewAI(client, "gemini-2.0-flash", time.Millisecond, time.Second, time.Second, false)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func toolCallResponse(name, query string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					Name: name,
					Args: map[string]any{"query": query},
				}}},
			},
		}},
	}
}

func tempVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video bytes"), 0644))
	return path
}

func TestUploadPollsUntilActive(t *testing.T) {
	client := &fakeGeminiClient{
		uploadFile: &genai.File{
			Name:     "files/abc123",
			URI:      "https://generativelanguage.example/files/abc123",
			MIMEType: "video/mp4",
			State:    genai.FileStateProcessing,
		},
		states: []genai.FileState{genai.FileStateProcessing, genai.FileStateActive},
	}
	ai := newTestAI(client)

	videoFile := tempVideoFile(t)
	video, err := ai.Upload(context.Background(), videoFile)
	require.NoError(t, err)

	assert.Equal(t, 2, client.getCalls)
	assert.Equal(t, "files/abc123", video.Name)
	assert.Equal(t, "https://generativelanguage.example/files/abc123", video.URI)
	assert.Equal(t, "video/mp4", video.MIMEType)
	assert.Equal(t, videoFile, video.LocalPath)
}

func TestUploadAlreadyActive(t *testing.T) {
	client := &fakeGeminiClient{
		uploadFile: &genai.File{Name: "files/abc", URI: "uri", MIMEType: "video/mp4", State: genai.FileStateActive},
	}
	ai := newTestAI(client)

	_, err := ai.Upload(context.Background(), tempVideoFile(t))
	require.NoError(t, err)
	assert.Equal(t, 0, client.getCalls, "no polling needed for an already active file")
}

func TestUploadProcessingFailed(t *testing.T) {
	client := &fakeGeminiClient{
		uploadFile: &genai.File{Name: "files/abc", State: genai.FileStateProcessing},
		states:     []genai.FileState{genai.FileStateFailed},
	}
	ai := newTestAI(client)

	_, err := ai.Upload(context.Background(), tempVideoFile(t))
	assert.ErrorContains(t, err, "video processing failed")
}

func TestUploadMissingFile(t *testing.T) {
	ai := newTestAI(&fakeGeminiClient{})

	_, err := ai.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorContains(t, err, "reading video file")
}

func TestUploadTimesOutWhileProcessing(t *testing.T) {
	client := &fakeGeminiClient{
		uploadFile: &genai.File{Name: "files/abc", State: genai.FileStateProcessing},
		states:     []genai.FileState{genai.FileStateProcessing},
	}
	ai := NewAI(client, "gemini-2.0-flash", time.Millisecond, 10*time.Millisecond, time.Second, false)

	_, err := ai.Upload(context.Background(), tempVideoFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func testVideos() []*UploadedVideo {
	return []*UploadedVideo{
		{Name: "files/a", URI: "uri-a", MIMEType: "video/mp4", LocalPath: "/videos/a.mp4"},
		{Name: "files/b", URI: "uri-b", MIMEType: "video/webm", LocalPath: "/videos/b.webm"},
	}
}

func TestAnswerDirect(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{textResponse("**Bold** answer")}}
	ai := newTestAI(client)

	answer, err := ai.Answer(context.Background(), "What is this?", testVideos())
	require.NoError(t, err)

	assert.Equal(t, "**Bold** answer", answer)
	assert.Equal(t, 1, client.genCalls)

	// One user content carrying the prompt plus a URI part per video
	require.Len(t, client.contents[0], 1)
	assert.Len(t, client.contents[0][0].Parts, 3)

	// Without a search function no tool is offered
	assert.Nil(t, client.configs[0].Tools)
}

func TestAnswerRunsWebSearch(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{
		toolCallResponse(webSearchToolName, "latest go release"),
		textResponse("Go 1.25 shipped recently."),
	}}
	ai := newTestAI(client)

	var searched []string
	ai.SetSearch(func(ctx context.Context, query string) (string, error) {
		searched = append(searched, query)
		return fmt.Sprintf("Web results for %q", query), nil
	})

	answer, err := ai.Answer(context.Background(), "When was the latest Go release?", testVideos())
	require.NoError(t, err)

	assert.Equal(t, "Go 1.25 shipped recently.", answer)
	assert.Equal(t, []string{"latest go release"}, searched)
	assert.Equal(t, 2, client.genCalls)
	assert.NotNil(t, client.configs[0].Tools)

	// Second turn sees the original prompt, the tool call, and its result
	secondTurn := client.contents[1]
	require.Len(t, secondTurn, 3)
	response := secondTurn[2].Parts[0].FunctionResponse
	require.NotNil(t, response)
	assert.Equal(t, webSearchToolName, response.Name)
	assert.Equal(t, `Web results for "latest go release"`, response.Response["output"])
}

func TestAnswerReportsSearchErrorToModel(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{
		toolCallResponse(webSearchToolName, "some query"),
		textResponse("Answered without the web."),
	}}
	ai := newTestAI(client)
	ai.SetSearch(func(ctx context.Context, query string) (string, error) {
		return "", errors.New("rate limited")
	})

	answer, err := ai.Answer(context.Background(), "question", testVideos())
	require.NoError(t, err)
	assert.Equal(t, "Answered without the web.", answer)

	response := client.contents[1][2].Parts[0].FunctionResponse
	require.NotNil(t, response)
	assert.Contains(t, response.Response["output"], "search error")
}

func TestAnswerUnknownTool(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{
		toolCallResponse("read_files", "x"),
		textResponse("done"),
	}}
	ai := newTestAI(client)
	ai.SetSearch(func(ctx context.Context, query string) (string, error) { return "ok", nil })

	_, err := ai.Answer(context.Background(), "question", testVideos())
	require.NoError(t, err)

	response := client.contents[1][2].Parts[0].FunctionResponse
	require.NotNil(t, response)
	assert.Equal(t, "unknown tool: read_files", response.Response["output"])
}

func TestAnswerNoCandidates(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{{}}}
	ai := newTestAI(client)

	_, err := ai.Answer(context.Background(), "question", testVideos())
	assert.ErrorContains(t, err, "no response candidates")
}

func TestAnswerEmptyText(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{textResponse("   ")}}
	ai := newTestAI(client)

	_, err := ai.Answer(context.Background(), "question", testVideos())
	assert.ErrorContains(t, err, "empty answer")
}

func TestAnswerNoVideos(t *testing.T) {
	ai := newTestAI(&fakeGeminiClient{})

	_, err := ai.Answer(context.Background(), "question", nil)
	assert.ErrorContains(t, err, "no videos")
}

func TestAnswerGivesUpAfterMaxSearchTurns(t *testing.T) {
	client := &fakeGeminiClient{responses: []*genai.GenerateContentResponse{
		toolCallResponse(webSearchToolName, "again"),
	}}
	ai := newTestAI(client)
	ai.SetSearch(func(ctx context.Context, query string) (string, error) { return "ok", nil })

	_, err := ai.Answer(context.Background(), "question", testVideos())
	assert.ErrorContains(t, err, "no final answer")
	assert.Equal(t, maxSearchTurns+1, client.genCalls)
}

func TestCleanupDeletesUploads(t *testing.T) {
	client := &fakeGeminiClient{}
	ai := newTestAI(client)

	ai.Cleanup(context.Background(), testVideos())
	assert.Equal(t, []string{"files/a", "files/b"}, client.deleted)
}

func TestCleanupWithoutClient(t *testing.T) {
	ai := NewAIWithKey("", "gemini-2.0-flash", time.Millisecond, time.Second, time.Second, false)

	// Nothing to do and nothing to panic on
	ai.Cleanup(context.Background(), testVideos())
}

func TestCleanupContinuesOnError(t *testing.T) {
	client := &fakeGeminiClient{deleteErr: errors.New("gone")}
	ai := newTestAI(client)

	ai.Cleanup(context.Background(), testVideos())
	assert.Empty(t, client.deleted)
}

func TestAnswerWithoutAPIKey(t *testing.T) {
	ai := NewAIWithKey("", "gemini-2.0-flash", time.Millisecond, time.Second, time.Second, false)

	_, err := ai.Answer(context.Background(), "question", testVideos())
	assert.ErrorContains(t, err, "Gemini API key is required")
}
