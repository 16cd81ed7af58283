package internal

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed index.html
var indexHTML []byte

// APIError is a structured JSON error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a 400 error for a missing or invalid form field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// ErrorHandler converts handler errors into JSON responses.
// Usage: e.HTTPErrorHandler = ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: err.Error(),
		}
	}

	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}

// asker is the part of App the web server depends on
type asker interface {
	Ask(ctx context.Context, input, question string) (*Answer, error)
}

// WebServer serves the browser UI and its JSON API
type WebServer struct {
	echo   *echo.Echo
	app    asker
	config *Config
}

// NewWebServer wires up routes and middleware for the web UI
func NewWebServer(config *Config, app asker) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	if config.Verbose {
		e.Use(middleware.Logger())
	}
	// Video uploads are large
	e.Use(middleware.BodyLimit("2G"))

	ws := &WebServer{echo: e, app: app, config: config}

	e.GET("/", ws.handleIndex)
	e.GET("/healthz", ws.handleHealth)
	e.POST("/api/ask", ws.handleAsk)
	e.GET("/api/videos", ws.handleVideos)

	return ws
}

// Start runs the server until ctx is cancelled
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ws.echo.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: server shutdown: %v\n", err)
		}
	}()

	if err := ws.echo.Start(ws.config.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("starting web server: %w", err)
	}
	return nil
}

// handleIndex serves the single-page UI
func (ws *WebServer) handleIndex(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

// handleHealth reports server health
func (ws *WebServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"model":  ws.config.Model,
	})
}

type askResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	HTML     string   `json:"html"`
	Videos   []string `json:"videos"`
	Skipped  []string `json:"skipped,omitempty"`
}

// handleAsk answers a question about the submitted video. The video comes
// either from the input field (link, playlist, URL, or server-side path) or
// from a direct browser file upload.
func (ws *WebServer) handleAsk(c echo.Context) error {
	question := strings.TrimSpace(c.FormValue("question"))
	if question == "" {
		return NewValidationError("question")
	}

	input := strings.TrimSpace(c.FormValue("input"))

	// A direct file upload takes precedence over the input field
	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		saved, err := ws.saveUpload(fileHeader)
		if err != nil {
			return NewInternalError("saving the uploaded file failed", err)
		}
		input = saved
	}

	if input == "" {
		return NewValidationError("input")
	}

	// Reject inputs the resolver would refuse so the caller gets a 400, not a 500
	if parsed := ParseInput(input); !parsed.IsValid() {
		cause := parsed.Error
		if cause == nil {
			cause = fmt.Errorf("unrecognized input: %s", input)
		}
		return NewBadRequestError("input is not a video file, link, or playlist", cause)
	}

	answer, err := ws.app.Ask(c.Request().Context(), input, question)
	if err != nil {
		return NewInternalError("answering the question failed", err)
	}

	html, err := MarkdownToHTML(answer.Markdown)
	if err != nil {
		return NewInternalError("rendering the answer failed", err)
	}

	videos := make([]string, 0, len(answer.Videos))
	for _, path := range answer.Videos {
		videos = append(videos, filepath.Base(path))
	}

	return c.JSON(http.StatusOK, askResponse{
		Question: answer.Question,
		Answer:   answer.Markdown,
		HTML:     html,
		Videos:   videos,
		Skipped:  answer.Skipped,
	})
}

// saveUpload writes a browser-uploaded file into the downloads directory
// under a unique name and returns its path
func (ws *WebServer) saveUpload(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()

	if err := EnsureDirs(ws.config.DownloadsDir); err != nil {
		return "", fmt.Errorf("creating downloads directory: %w", err)
	}

	name := SanitizeFilename(fileHeader.Filename)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = ".mp4"
	}
	target := filepath.Join(ws.config.DownloadsDir, fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext))

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("saving uploaded file: %w", err)
	}

	return target, nil
}

type videoFileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// handleVideos lists previously downloaded videos, newest first
func (ws *WebServer) handleVideos(c echo.Context) error {
	entries, err := os.ReadDir(ws.config.DownloadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusOK, []videoFileInfo{})
		}
		return NewInternalError("listing downloaded videos failed", err)
	}

	videos := make([]videoFileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isVideoFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		videos = append(videos, videoFileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(videos, func(i, j int) bool {
		return videos[i].Modified.After(videos[j].Modified)
	})

	return c.JSON(http.StatusOK, videos)
}

func isVideoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v", ".webm", ".mov", ".mkv", ".avi", ".mpg", ".mpeg", ".wmv", ".3gp", ".flv":
		return true
	}
	return false
}

// MarkdownToHTML converts a markdown answer to sanitized HTML for the web UI
func MarkdownToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return bluemonday.UGCPolicy().Sanitize(buf.String()), nil
}
