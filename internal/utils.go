package internal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ParseInput classifies a video argument: a local file path, a YouTube video
// URL or ID, a YouTube playlist URL or ID, or a direct video URL.
func ParseInput(arg string) ParsedInput {
	arg = strings.TrimSpace(arg)
	parsed := ParsedInput{OriginalInput: arg}

	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		parsed.Kind = InputLocalFile
		parsed.NormalizedURL = arg
		return parsed
	}

	if strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://") {
		// Try video ID first - prioritize individual videos over playlists
		if videoID, err := getVideoID(arg); err == nil {
			parsed.Kind = InputYouTubeVideo
			parsed.NormalizedURL = arg
			parsed.ID = videoID
			return parsed
		}

		// No video ID found, check if it's a playlist URL
		if strings.Contains(arg, "list=") {
			if playlistID, err := getPlaylistID(arg); err == nil {
				parsed.Kind = InputYouTubePlaylist
				parsed.NormalizedURL = arg
				parsed.ID = playlistID
				return parsed
			}
		}

		// Anything else served over HTTP is fetched directly
		parsed.Kind = InputDirectURL
		parsed.NormalizedURL = arg
		return parsed
	}

	if IsValidYouTubeID(arg) {
		parsed.Kind = InputYouTubeVideo
		parsed.NormalizedURL = "https://www.youtube.com/watch?v=" + arg
		parsed.ID = arg
		return parsed
	}

	if IsValidPlaylistID(arg) {
		parsed.Kind = InputYouTubePlaylist
		parsed.NormalizedURL = "https://www.youtube.com/playlist?list=" + arg
		parsed.ID = arg
		return parsed
	}

	if IsLikelyCommand(arg) {
		parsed.Kind = InputCommand
		return parsed
	}

	parsed.Kind = InputUnknown
	parsed.Error = fmt.Errorf("not a file, YouTube video or playlist, or URL: %s", arg)
	return parsed
}

// VideoIDExtractor extracts video IDs from YouTube URLs
type VideoIDExtractor func(string) (string, error)

// Default implementation of video ID extraction
var getVideoID VideoIDExtractor = func(youtubeURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(youtubeURL))
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	switch u.Host {
	case "www.youtube.com", "youtube.com", "youtu.be":
	default:
		return "", fmt.Errorf("not a YouTube URL: %s", youtubeURL)
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}

	// Don't extract video IDs from playlist URLs
	if strings.Contains(u.Path, "/playlist") {
		return "", fmt.Errorf("this is a playlist URL, not a video URL: %s", youtubeURL)
	}

	// youtu.be and embed URLs carry the ID as the last path segment
	if id := u.Path[strings.LastIndex(u.Path, "/")+1:]; id != "" {
		return id, nil
	}

	return "", fmt.Errorf("could not extract video ID from URL: %s", youtubeURL)
}

// AskUser is a variable that holds the function for asking user confirmation
// This allows it to be replaced in tests
var AskUser = func(message string) bool {
	fmt.Printf("%s (y/N): ", message)
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		response := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return strings.HasPrefix(response, "y")
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
	}
	return false
}

// AskQuestion reads a free-form question from stdin when none was given on the
// command line. Replaceable in tests.
var AskQuestion = func() (string, error) {
	fmt.Print("What do you want to know about the video? ")
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return "", nil
}

// CleanupPartials removes leftover partial downloads (.part, .ytdl) from the
// downloads directory
func CleanupPartials(downloadsDir string) error {
	entries, err := os.ReadDir(downloadsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading downloads directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".part" && ext != ".ytdl" {
			continue
		}
		filePath := filepath.Join(downloadsDir, entry.Name())
		if err := os.Remove(filePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove partial download %s: %v\n", filePath, err)
		}
	}

	return nil
}

// terminalWidth returns the stdout width with a little margin, or 80 when
// stdout is not a terminal
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	if width > 10 {
		width -= 4
	}
	return width
}

// RenderMarkdown renders markdown content with glamour
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return rendered, nil
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// ValidateModel checks if the model is supported
func ValidateModel(model string) error {
	supportedModels := []string{"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.5-flash", "gemini-2.5-pro"}
	if slices.Contains(supportedModels, model) {
		return nil
	}
	return fmt.Errorf("unsupported model: %s (supported: %s)", model, strings.Join(supportedModels, ", "))
}

// EnsureDirs creates directories if needed
func EnsureDirs(dir ...string) error {
	for _, dir := range dir {
		if !FileExists(dir) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

// VideoMIMEType guesses the MIME type of a video file from its extension.
// Unknown extensions fall back to mp4, which is what downloads are forced to.
func VideoMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".avi":
		return "video/x-msvideo"
	case ".mpg", ".mpeg":
		return "video/mpeg"
	case ".wmv":
		return "video/x-ms-wmv"
	case ".3gp":
		return "video/3gpp"
	case ".flv":
		return "video/x-flv"
	default:
		return "video/mp4"
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips path components and characters that are unsafe in
// filenames from externally supplied names
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "video"
	}
	return name
}

// youtubeIDChars matches the alphabet YouTube uses for video and playlist IDs
var youtubeIDChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsValidYouTubeID checks if a string looks like a valid YouTube video ID.
// Video IDs are exactly 11 characters from a base64-like alphabet.
func IsValidYouTubeID(id string) bool {
	return len(id) == 11 && youtubeIDChars.MatchString(id)
}

// IsLikelyCommand checks if a string looks like it might be a mistyped command
func IsLikelyCommand(arg string) bool {
	// Short strings (1-10 chars) that don't look like YouTube IDs or playlist IDs are likely commands
	return len(arg) <= 10 && !IsValidYouTubeID(arg) && !IsValidPlaylistID(arg)
}

// Common playlist prefixes: PL, UU, FL, RD, etc.
var playlistPrefixes = []string{"PL", "UU", "FL", "RD", "LP", "BP", "QL", "SV", "EL", "LL", "UC"}

// IsValidPlaylistID checks if a string looks like a valid YouTube playlist ID
func IsValidPlaylistID(id string) bool {
	if !youtubeIDChars.MatchString(id) {
		return false
	}

	// Music playlists (OLAK5uy_, RDCLAK5uy_) are 40 characters
	if len(id) == 40 && (strings.HasPrefix(id, "OLAK5uy_") || strings.HasPrefix(id, "RDCLAK5uy_")) {
		return true
	}

	// Standard playlists carry a two-letter prefix and come in a few fixed lengths
	if len(id) != 18 && len(id) != 34 && len(id) != 36 {
		return false
	}
	for _, prefix := range playlistPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}

	return false
}

// getPlaylistID extracts playlist ID from YouTube URLs
func getPlaylistID(youtubeURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(youtubeURL))
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	switch u.Host {
	case "www.youtube.com", "youtube.com", "music.youtube.com":
	default:
		return "", fmt.Errorf("not a YouTube URL: %s", youtubeURL)
	}

	list := u.Query().Get("list")
	if list == "" {
		return "", fmt.Errorf("could not extract playlist ID from URL: %s", youtubeURL)
	}
	if !IsValidPlaylistID(list) {
		return "", fmt.Errorf("invalid playlist ID format: %s", list)
	}

	return list, nil
}

// ValidateGeminiAPIKey checks if the Gemini API key is set and returns a standardized error if not
func ValidateGeminiAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("Gemini API key is required - set it in config.toml or GEMINI_API_KEY environment variable")
	}
	return nil
}

const (
	lastDownloadFile = "last_download.json"
	lastAnswerFile   = "last_answer.md"
)

// lastDownloadMu guards the last-download cache file, which the web server
// may touch from concurrent requests.
var lastDownloadMu sync.Mutex

// CachedDownload records the most recently resolved input and the local files
// it produced, so repeating the same input skips the download.
type CachedDownload struct {
	Input    string    `json:"input"`
	Paths    []string  `json:"paths"`
	CachedAt time.Time `json:"cached_at"`
}

// SaveLastDownload persists the input-to-paths mapping of the latest download
func SaveLastDownload(cacheDir, input string, paths []string) error {
	lastDownloadMu.Lock()
	defer lastDownloadMu.Unlock()

	cached := CachedDownload{Input: input, Paths: paths, CachedAt: time.Now()}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling download cache: %w", err)
	}

	if err := os.WriteFile(filepath.Join(cacheDir, lastDownloadFile), data, 0644); err != nil {
		return fmt.Errorf("saving download cache: %w", err)
	}

	return nil
}

// LoadLastDownload reads the cached input-to-paths mapping, if any
func LoadLastDownload(cacheDir string) (*CachedDownload, error) {
	lastDownloadMu.Lock()
	defer lastDownloadMu.Unlock()

	data, err := os.ReadFile(filepath.Join(cacheDir, lastDownloadFile))
	if err != nil {
		return nil, fmt.Errorf("reading download cache: %w", err)
	}

	var cached CachedDownload
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("parsing download cache: %w", err)
	}

	return &cached, nil
}

// SaveAnswer stores the latest answer so `askvid cp` can copy it later
func SaveAnswer(cacheDir, markdown string) error {
	if err := os.WriteFile(filepath.Join(cacheDir, lastAnswerFile), []byte(markdown), 0644); err != nil {
		return fmt.Errorf("saving answer: %w", err)
	}
	return nil
}

// LoadLastAnswer reads the most recent answer
func LoadLastAnswer(cacheDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(cacheDir, lastAnswerFile))
	if err != nil {
		return "", fmt.Errorf("no saved answer found - ask a question first")
	}
	return string(data), nil
}

// CachedVideoMetadata extends VideoMetadata with cache information
type CachedVideoMetadata struct {
	VideoMetadata
	CachedAt time.Time `json:"cached_at"`
}

func metadataCachePath(cacheDir, youtubeID string) string {
	return filepath.Join(cacheDir, youtubeID+".meta.json")
}

// SaveMetadata saves video metadata to cache as JSON
func SaveMetadata(youtubeID string, metadata *VideoMetadata, cacheDir string) error {
	cached := CachedVideoMetadata{VideoMetadata: *metadata, CachedAt: time.Now()}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	if err := os.WriteFile(metadataCachePath(cacheDir, youtubeID), data, 0644); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}

	return nil
}

// LoadCachedMetadata loads video metadata from cache
func LoadCachedMetadata(youtubeID, cacheDir string) (*VideoMetadata, error) {
	data, err := os.ReadFile(metadataCachePath(cacheDir, youtubeID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("metadata cache not found")
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata cache: %w", err)
	}

	var cached CachedVideoMetadata
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("parsing metadata cache: %w", err)
	}

	return &cached.VideoMetadata, nil
}
