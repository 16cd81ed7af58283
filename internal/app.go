package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// videoDownloader is the part of YouTube the app depends on
type videoDownloader interface {
	Metadata(ctx context.Context, youtubeURL string) (*VideoMetadata, error)
	Video(ctx context.Context, youtubeURL string) (string, error)
	PlaylistEntries(ctx context.Context, playlistURL string) (*PlaylistInfo, error)
}

// urlFetcher downloads videos from direct URLs
type urlFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// mediaProber inspects local video files
type mediaProber interface {
	Duration(ctx context.Context, videoFile string) (float64, error)
	CheckFFmpeg() error
}

// answerer uploads videos and answers questions about them
type answerer interface {
	Upload(ctx context.Context, videoFile string) (*UploadedVideo, error)
	Answer(ctx context.Context, prompt string, videos []*UploadedVideo) (string, error)
	Cleanup(ctx context.Context, videos []*UploadedVideo)
}

// App holds the application state and dependencies
type App struct {
	youtube       videoDownloader
	fetcher       urlFetcher
	media         mediaProber
	ai            answerer
	promptManager *PromptManager
	config        *Config
	ui            UIManager
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) *App {
	cmdRunner := &DefaultCommandRunner{}

	promptManager := NewPromptManager(config.ConfigDir, config.Prompt)
	ui := NewUIManager(config.Verbose, config.Quiet)

	ai := NewAIWithKey(config.GeminiAPIKey, config.Model, config.PollInterval, config.UploadTimeout, config.AnswerTimeout, config.Verbose)
	if config.SearchEnabled {
		search := NewSearchClient(config.SearchRegion, config.SearchMaxResults, config.Verbose)
		ai.SetSearch(search.SearchFormatted)
	}

	app := &App{
		youtube:       NewYouTube(config.DownloadsDir, config.Verbose),
		fetcher:       NewFetcher(config.DownloadsDir, config.Verbose, ui),
		media:         NewMedia(cmdRunner, config.Verbose),
		ai:            ai,
		promptManager: promptManager,
		config:        config,
		ui:            ui,
	}

	// Apply any custom options
	for _, option := range options {
		option(app)
	}

	return app
}

// AppOption customizes App creation
type AppOption func(*App)

// WithYouTube sets a custom YouTube downloader
func WithYouTube(youtube *YouTube) AppOption {
	return func(a *App) {
		a.youtube = youtube
	}
}

// WithFetcher sets a custom direct URL fetcher
func WithFetcher(fetcher *Fetcher) AppOption {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// WithMedia sets a custom media inspector
func WithMedia(media *Media) AppOption {
	return func(a *App) {
		a.media = media
	}
}

// WithAI sets a custom AI processor
func WithAI(ai *AI) AppOption {
	return func(a *App) {
		a.ai = ai
	}
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// ResolvedInput holds the local video files an input resolved to
type ResolvedInput struct {
	Input     string
	Kind      InputKind
	Title     string
	Paths     []string
	Skipped   []string
	FromCache bool
}

// Answer is the result of asking a question about resolved videos
type Answer struct {
	Question string
	Markdown string
	Videos   []string
	Skipped  []string
}

// Resolve turns user input into local video files
func (app *App) Resolve(ctx context.Context, input string) (*ResolvedInput, error) {
	return app.ResolveWithStatus(ctx, input, false)
}

// ResolveWithStatus resolves input with optional status spinners
func (app *App) ResolveWithStatus(ctx context.Context, input string, showStatus bool) (*ResolvedInput, error) {
	parsed := ParseInput(input)
	if !parsed.IsValid() {
		if parsed.Error != nil {
			return nil, parsed.Error
		}
		return nil, fmt.Errorf("unrecognized input: %s", input)
	}

	// Local files are used in place, nothing to download or cache
	if parsed.Kind == InputLocalFile {
		return &ResolvedInput{
			Input: input,
			Kind:  parsed.Kind,
			Title: filepath.Base(parsed.NormalizedURL),
			Paths: []string{parsed.NormalizedURL},
		}, nil
	}

	// A video URL that also carries a playlist ID is ambiguous
	if parsed.Kind == InputYouTubeVideo && strings.Contains(parsed.NormalizedURL, "list=") {
		if AskUser("This link also points at a playlist. Ask about the whole playlist?") {
			if playlistID, err := getPlaylistID(parsed.NormalizedURL); err == nil {
				parsed.Kind = InputYouTubePlaylist
				parsed.ID = playlistID
			}
		}
	}

	// Reuse the previous download when the same input repeats
	if cached := app.cachedPaths(input); cached != nil {
		if app.config.Verbose {
			fmt.Printf("Reusing %d previously downloaded file(s) for this input\n", len(cached))
		}
		return &ResolvedInput{Input: input, Kind: parsed.Kind, Paths: cached, FromCache: true}, nil
	}

	if err := EnsureDirs(app.config.DownloadsDir); err != nil {
		return nil, fmt.Errorf("creating downloads directory: %w", err)
	}

	if parsed.Kind == InputYouTubeVideo || parsed.Kind == InputYouTubePlaylist {
		if err := app.media.CheckFFmpeg(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, mp4 conversion may fail\n", err)
		}
	}

	var resolved *ResolvedInput
	var err error
	switch parsed.Kind {
	case InputYouTubeVideo:
		resolved, err = app.resolveVideo(ctx, parsed, showStatus)
	case InputYouTubePlaylist:
		resolved, err = app.resolvePlaylist(ctx, parsed)
	case InputDirectURL:
		resolved, err = app.resolveDirectURL(ctx, parsed)
	default:
		return nil, fmt.Errorf("cannot resolve %s input: %s", parsed.Kind, input)
	}
	if err != nil {
		return nil, err
	}

	resolved.Input = input
	if err := SaveLastDownload(app.config.CacheDir, input, resolved.Paths); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	return resolved, nil
}

// cachedPaths returns the paths of the previous download if the input matches
// and every file still exists
func (app *App) cachedPaths(input string) []string {
	cached, err := LoadLastDownload(app.config.CacheDir)
	if err != nil || cached.Input != input || len(cached.Paths) == 0 {
		return nil
	}
	for _, path := range cached.Paths {
		if !FileExists(path) {
			return nil
		}
	}
	return cached.Paths
}

// resolveVideo downloads a single YouTube video
func (app *App) resolveVideo(ctx context.Context, parsed ParsedInput, showStatus bool) (*ResolvedInput, error) {
	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Downloading video...")
	}

	path, err := app.youtube.Video(ctx, parsed.NormalizedURL)
	if err != nil && errors.Is(err, ErrDownloadFailed) {
		// Only retry plain download failures (not invalid URLs or cancellation)
		if spinner != nil {
			spinner.Describe("Download failed, retrying...")
		}
		if app.config.Verbose {
			fmt.Println("Download failed, retrying in 1 second...")
		}
		time.Sleep(1 * time.Second)

		path, err = app.youtube.Video(ctx, parsed.NormalizedURL)
	}
	if spinner != nil {
		spinner.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("downloading video: %w", err)
	}

	return &ResolvedInput{Kind: InputYouTubeVideo, Paths: []string{path}}, nil
}

// resolvePlaylist downloads every video in a playlist, one at a time,
// skipping videos that fail instead of aborting the whole playlist
func (app *App) resolvePlaylist(ctx context.Context, parsed ParsedInput) (*ResolvedInput, error) {
	if app.config.Verbose {
		fmt.Println("Processing playlist...")
	}

	playlistInfo, err := app.youtube.PlaylistEntries(ctx, parsed.NormalizedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting playlist videos: %w", err)
	}

	if len(playlistInfo.Entries) == 0 {
		return nil, fmt.Errorf("no videos found in playlist")
	}

	app.ui.Printf("Found %d videos in playlist: %s\n\n", len(playlistInfo.Entries), playlistInfo.Title)

	bar := app.ui.NewProgressBar(len(playlistInfo.Entries), "Downloading videos")

	var paths []string
	var skippedVideos []string

	for i, entry := range playlistInfo.Entries {
		bar.Set(i)

		title := entry.Title
		if title == "" {
			title = entry.ID
		}

		path, err := app.youtube.Video(ctx, entry.WatchURL())
		if err != nil {
			// Don't turn cancellation into a per-video failure
			if ctx.Err() != nil {
				bar.Finish()
				return nil, ctx.Err()
			}
			if app.config.Verbose {
				fmt.Printf("\nFailed to download video %d: %v\n", i+1, err)
			}
			skippedVideos = append(skippedVideos, fmt.Sprintf("Video %d: %s (download error)", i+1, title))
			continue
		}
		paths = append(paths, path)
	}

	bar.Finish()

	if len(paths) == 0 {
		return nil, fmt.Errorf("no playlist videos could be downloaded")
	}

	// Report processing results
	app.ui.Printf("Successfully downloaded %d out of %d videos\n", len(paths), len(playlistInfo.Entries))
	if len(skippedVideos) > 0 {
		app.ui.Printf("Skipped %d videos:\n", len(skippedVideos))
		for _, skipped := range skippedVideos {
			app.ui.Printf("  - %s\n", skipped)
		}
	}

	return &ResolvedInput{
		Kind:    InputYouTubePlaylist,
		Title:   playlistInfo.Title,
		Paths:   paths,
		Skipped: skippedVideos,
	}, nil
}

// resolveDirectURL fetches a video file from a plain URL
func (app *App) resolveDirectURL(ctx context.Context, parsed ParsedInput) (*ResolvedInput, error) {
	path, err := app.fetcher.Fetch(ctx, parsed.NormalizedURL)
	if err != nil {
		return nil, err
	}
	return &ResolvedInput{Kind: InputDirectURL, Paths: []string{path}}, nil
}

// Ask resolves the input, uploads the videos, and asks the question
func (app *App) Ask(ctx context.Context, input, question string) (*Answer, error) {
	return app.AskWithStatus(ctx, input, question, false)
}

// AskWithStatus runs the complete ask workflow with optional status spinners:
// resolve -> upload -> wait for processing -> answer
func (app *App) AskWithStatus(ctx context.Context, input, question string, showStatus bool) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	resolved, err := app.ResolveWithStatus(ctx, input, showStatus)
	if err != nil {
		return nil, err
	}

	app.warnAboutLongVideos(ctx, resolved.Paths)

	uploaded, uploadErr := app.uploadVideos(ctx, resolved.Paths, showStatus)
	defer func() {
		if app.config.KeepUploads || len(uploaded) == 0 {
			return
		}
		// The request context may already be cancelled at this point
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		app.ai.Cleanup(cleanupCtx, uploaded)
	}()
	if uploadErr != nil {
		return nil, uploadErr
	}

	prompt, err := app.promptManager.CreatePrompt(question, len(uploaded))
	if err != nil {
		return nil, fmt.Errorf("creating prompt: %w", err)
	}

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Waiting for the answer...")
	}
	markdown, err := app.ai.Answer(ctx, prompt, uploaded)
	if spinner != nil {
		spinner.Finish()
	}
	if err != nil {
		return nil, err
	}

	// Save the answer so `askvid cp` can copy it later
	if err := SaveAnswer(app.config.CacheDir, markdown); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	return &Answer{
		Question: question,
		Markdown: markdown,
		Videos:   resolved.Paths,
		Skipped:  resolved.Skipped,
	}, nil
}

// AskAndRender runs the ask workflow and prints the answer rendered for the terminal
func (app *App) AskAndRender(ctx context.Context, input, question string) error {
	// Show status unless explicitly quiet
	showStatus := !app.config.Quiet
	answer, err := app.AskWithStatus(ctx, input, question, showStatus)
	if err != nil {
		return err
	}

	rendered, err := RenderMarkdown(answer.Markdown)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}

	fmt.Println(rendered)
	return nil
}

// uploadVideos uploads files one at a time, waiting for each to finish
// processing before starting the next. Returns the videos uploaded so far
// even on error so the caller can clean them up.
func (app *App) uploadVideos(ctx context.Context, paths []string, showStatus bool) ([]*UploadedVideo, error) {
	uploaded := make([]*UploadedVideo, 0, len(paths))
	for i, path := range paths {
		var spinner ProgressBar
		if showStatus {
			spinner = app.ui.NewSpinner(fmt.Sprintf("Uploading %s (%d/%d)...", filepath.Base(path), i+1, len(paths)))
		}

		video, err := app.ai.Upload(ctx, path)
		if spinner != nil {
			spinner.Finish()
		}
		if err != nil {
			return uploaded, fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
		}
		uploaded = append(uploaded, video)
	}
	return uploaded, nil
}

// longVideoDuration is where cloud processing starts getting slow
const longVideoDuration = time.Hour

// warnAboutLongVideos probes each file and warns about very long ones
func (app *App) warnAboutLongVideos(ctx context.Context, paths []string) {
	for _, path := range paths {
		duration, err := app.media.Duration(ctx, path)
		if err != nil {
			if app.config.Verbose {
				fmt.Printf("Could not probe %s: %v\n", filepath.Base(path), err)
			}
			continue
		}
		if duration > longVideoDuration.Seconds() {
			fmt.Fprintf(os.Stderr, "Warning: %s is %.0f minutes long, processing may be slow\n", filepath.Base(path), duration/60)
		}
	}
}

// Metadata gets metadata from YouTube (cached or fresh)
func (app *App) Metadata(ctx context.Context, input string) (*VideoMetadata, error) {
	return app.MetadataWithStatus(ctx, input, false)
}

// MetadataWithStatus gets metadata with optional status spinner
func (app *App) MetadataWithStatus(ctx context.Context, input string, showStatus bool) (*VideoMetadata, error) {
	parsed := ParseInput(input)
	if parsed.Kind != InputYouTubeVideo {
		return nil, fmt.Errorf("metadata is only available for YouTube videos, got %s", parsed.Kind)
	}

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Fetching video metadata...")
	}

	// Try to load cached metadata first
	if cachedMetadata, err := LoadCachedMetadata(parsed.ID, app.config.CacheDir); err == nil {
		if spinner != nil {
			spinner.Describe("Found cached metadata")
			spinner.Finish()
		}
		if app.config.Verbose {
			fmt.Printf("Using cached metadata for %s\n", parsed.ID)
		}
		return cachedMetadata, nil
	}

	// No cache found, fetch from YouTube
	if spinner != nil {
		spinner.Describe("Fetching video metadata from YouTube...")
		spinner.Advance()
	}
	if app.config.Verbose {
		fmt.Printf("Fetching fresh metadata for %s\n", parsed.ID)
	}

	metadata, err := app.youtube.Metadata(ctx, parsed.NormalizedURL)
	if err != nil {
		if spinner != nil {
			spinner.Finish()
		}
		return nil, err
	}

	// Cache the metadata for future use
	if err := SaveMetadata(parsed.ID, metadata, app.config.CacheDir); err != nil {
		if app.config.Verbose {
			fmt.Printf("Warning: Failed to cache metadata: %v\n", err)
		}
	}

	if spinner != nil {
		spinner.Finish()
	}
	return metadata, nil
}
