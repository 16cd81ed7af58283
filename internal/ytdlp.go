package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"
)

// ErrDownloadFailed indicates yt-dlp finished without producing the expected file
var ErrDownloadFailed = errors.New("video download failed")

// VideoMetadata contains YouTube video information
type VideoMetadata struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Channel     string   `json:"channel"`
	Uploader    string   `json:"uploader"`
	Duration    float64  `json:"duration"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	WebpageURL  string   `json:"webpage_url"`
}

// PlaylistEntry is a single video reference inside a playlist
type PlaylistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// WatchURL returns a URL suitable for downloading the entry
func (e PlaylistEntry) WatchURL() string {
	if e.URL != "" {
		return e.URL
	}
	return "https://www.youtube.com/watch?v=" + e.ID
}

// PlaylistInfo describes a playlist and the videos it contains
type PlaylistInfo struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Entries []PlaylistEntry `json:"entries"`
}

// YouTube handles YouTube video and metadata downloads
type YouTube struct {
	downloadsDir string
	verbose      bool
}

// NewYouTube creates a new YouTube downloader storing videos in downloadsDir
func NewYouTube(downloadsDir string, verbose bool) *YouTube {
	return &YouTube{
		downloadsDir: downloadsDir,
		verbose:      verbose,
	}
}

// Metadata fetches video details using go-ytdlp
func (yt *YouTube) Metadata(ctx context.Context, youtubeURL string) (*VideoMetadata, error) {
	if yt.verbose {
		fmt.Println("Extracting video metadata...")
	}

	// Create a new ytdlp command to extract JSON metadata
	dl := ytdlp.New().
		DumpSingleJSON(). // Get all info in JSON format
		NoPlaylist().     // Don't process playlists
		SkipDownload()    // Don't download the actual video

	// Run the command
	result, err := dl.Run(ctx, youtubeURL)
	if err != nil {
		if yt.verbose {
			fmt.Printf("Metadata extraction error: %v\n", err)
			fmt.Printf("Stderr: %s\n", result.Stderr)
		}
		return nil, fmt.Errorf("extracting video metadata: %w", err)
	}

	// Parse the JSON output into our struct
	var metadata VideoMetadata
	if err := json.Unmarshal([]byte(result.Stdout), &metadata); err != nil {
		if yt.verbose {
			fmt.Printf("Failed to parse metadata JSON: %v\n", err)
		}
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}

	if yt.verbose {
		fmt.Println("Metadata extraction completed successfully")
		fmt.Printf("Title: %s\n", metadata.Title)
		fmt.Printf("Channel: %s\n", metadata.Channel)
		fmt.Printf("Duration: %.2f seconds\n", metadata.Duration)
	}

	return &metadata, nil
}

// Video downloads a YouTube video as mp4 and returns the local file path.
// A previously downloaded video is reused instead of downloading again.
func (yt *YouTube) Video(ctx context.Context, youtubeURL string) (string, error) {
	// Extract video ID to construct the output filename
	videoID, err := getVideoID(youtubeURL)
	if err != nil {
		return "", fmt.Errorf("extracting video ID: %w", err)
	}

	if err := EnsureDirs(yt.downloadsDir); err != nil {
		return "", fmt.Errorf("creating downloads directory: %w", err)
	}

	outputFile := filepath.Join(yt.downloadsDir, videoID+".mp4")
	if FileExists(outputFile) {
		if yt.verbose {
			fmt.Printf("Using existing download: %s\n", outputFile)
		}
		return outputFile, nil
	}

	if yt.verbose {
		fmt.Println("Downloading video...")
	}

	// Create a new ytdlp command with the desired options for video download
	dl := ytdlp.New().
		Format("best[ext=mp4]/best"). // Prefer a format that is already mp4
		RecodeVideo("mp4").           // Convert anything else to mp4
		NoPlaylist().                 // Don't process playlists
		Output(filepath.Join(yt.downloadsDir, "%(id)s.%(ext)s"))

	// Run the command
	result, err := dl.Run(ctx, youtubeURL)
	if err != nil {
		if yt.verbose {
			fmt.Printf("Video download error: %v\n", err)
			fmt.Printf("Stderr: %s\n", result.Stderr)
		}
		return "", fmt.Errorf("yt-dlp failed: %w\nOutput: %s", err, result.Stderr)
	}

	if !FileExists(outputFile) {
		return "", ErrDownloadFailed
	}

	if yt.verbose {
		fmt.Println("Video download completed successfully")
	}

	return outputFile, nil
}

// PlaylistEntries lists the videos in a playlist without downloading them
func (yt *YouTube) PlaylistEntries(ctx context.Context, playlistURL string) (*PlaylistInfo, error) {
	if yt.verbose {
		fmt.Println("Extracting playlist entries...")
	}

	dl := ytdlp.New().
		DumpSingleJSON().
		FlatPlaylist(). // List entries without resolving each video
		SkipDownload()

	result, err := dl.Run(ctx, playlistURL)
	if err != nil {
		if yt.verbose {
			fmt.Printf("Playlist extraction error: %v\n", err)
			fmt.Printf("Stderr: %s\n", result.Stderr)
		}
		return nil, fmt.Errorf("extracting playlist: %w", err)
	}

	var info PlaylistInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return nil, fmt.Errorf("parsing playlist metadata: %w", err)
	}

	// Entries can contain nulls for deleted or private videos
	entries := make([]PlaylistEntry, 0, len(info.Entries))
	for _, entry := range info.Entries {
		if entry.ID == "" && entry.URL == "" {
			continue
		}
		entries = append(entries, entry)
	}
	info.Entries = entries

	if yt.verbose {
		fmt.Printf("Found %d playlist entries\n", len(info.Entries))
	}

	return &info, nil
}
