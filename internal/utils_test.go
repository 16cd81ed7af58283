package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	localFile := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(localFile, []byte("video bytes"), 0644))

	tests := []struct {
		name     string
		arg      string
		wantKind InputKind
		wantID   string
		wantURL  string
	}{
		{
			name:     "local file",
			arg:      localFile,
			wantKind: InputLocalFile,
			wantURL:  localFile,
		},
		{
			name:     "youtube watch url",
			arg:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: InputYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
			wantURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "short youtu.be url",
			arg:      "https://youtu.be/dQw4w9WgXcQ",
			wantKind: InputYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "watch url with playlist parameter stays a video",
			arg:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1234567890abcdef",
			wantKind: InputYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "playlist url",
			arg:      "https://www.youtube.com/playlist?list=PL1234567890abcdef",
			wantKind: InputYouTubePlaylist,
			wantID:   "PL1234567890abcdef",
		},
		{
			name:     "bare video id",
			arg:      "dQw4w9WgXcQ",
			wantKind: InputYouTubeVideo,
			wantID:   "dQw4w9WgXcQ",
			wantURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:     "bare playlist id",
			arg:      "PL1234567890abcdef",
			wantKind: InputYouTubePlaylist,
			wantID:   "PL1234567890abcdef",
			wantURL:  "https://www.youtube.com/playlist?list=PL1234567890abcdef",
		},
		{
			name:     "direct video url",
			arg:      "https://example.com/videos/talk.mp4",
			wantKind: InputDirectURL,
			wantURL:  "https://example.com/videos/talk.mp4",
		},
		{
			name:     "mistyped command",
			arg:      "downlaod",
			wantKind: InputCommand,
		},
		{
			name:     "garbage",
			arg:      "definitely not a video input",
			wantKind: InputUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseInput(tt.arg)
			assert.Equal(t, tt.wantKind, parsed.Kind)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, parsed.ID)
			}
			if tt.wantURL != "" {
				assert.Equal(t, tt.wantURL, parsed.NormalizedURL)
			}
			if tt.wantKind == InputUnknown {
				assert.Error(t, parsed.Error)
			}
		})
	}
}

func TestGetVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"playlist url rejected", "https://www.youtube.com/playlist?list=PL1234567890abcdef", "", true},
		{"other host", "https://vimeo.com/123456", "", true},
		{"not a url", "://broken", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getVideoID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"playlist url", "https://www.youtube.com/playlist?list=PL1234567890abcdef", "PL1234567890abcdef", false},
		{"watch url with list", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL1234567890abcdef", "PL1234567890abcdef", false},
		{"music playlist", "https://music.youtube.com/playlist?list=OLAK5uy_AbCdEfGhIjKlMnOpQrStUvWxYz012345", "OLAK5uy_AbCdEfGhIjKlMnOpQrStUvWxYz012345", false},
		{"invalid list value", "https://www.youtube.com/watch?list=short", "", true},
		{"no list parameter", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", true},
		{"other host", "https://example.com/?list=PL1234567890abcdef", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getPlaylistID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidYouTubeID(t *testing.T) {
	assert.True(t, IsValidYouTubeID("dQw4w9WgXcQ"))
	assert.True(t, IsValidYouTubeID("abc-def_123"))
	assert.False(t, IsValidYouTubeID("tooshort"))
	assert.False(t, IsValidYouTubeID("way too long to be an id"))
	assert.False(t, IsValidYouTubeID("has space!!"))
}

func TestIsLikelyCommand(t *testing.T) {
	assert.True(t, IsLikelyCommand("downlaod"))
	assert.True(t, IsLikelyCommand("mcp"))
	assert.False(t, IsLikelyCommand("dQw4w9WgXcQ"))
	assert.False(t, IsLikelyCommand("definitely not a command"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip.mp4"},
		{"../../etc/passwd", "passwd"},
		{"my video (1).mp4", "my_video_1_.mp4"},
		{"spaced name.webm", "spaced_name.webm"},
		{"", "video"},
		{"...", "video"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestVideoMIMEType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"talk.mp4", "video/mp4"},
		{"talk.MOV", "video/quicktime"},
		{"talk.webm", "video/webm"},
		{"talk.mkv", "video/x-matroska"},
		{"talk.unknown", "video/mp4"},
		{"no-extension", "video/mp4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, VideoMIMEType(tt.path), "path %q", tt.path)
	}
}

func TestValidateModel(t *testing.T) {
	assert.NoError(t, ValidateModel("gemini-2.0-flash"))
	assert.NoError(t, ValidateModel("gemini-2.5-pro"))
	assert.Error(t, ValidateModel("gpt-4o"))
	assert.Error(t, ValidateModel(""))
}

func TestValidateGeminiAPIKey(t *testing.T) {
	assert.Error(t, ValidateGeminiAPIKey(""))
	assert.NoError(t, ValidateGeminiAPIKey("some-key"))
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "a", "b", "c")
	other := filepath.Join(base, "d")

	require.NoError(t, EnsureDirs(nested, other))
	assert.DirExists(t, nested)
	assert.DirExists(t, other)

	// Idempotent
	require.NoError(t, EnsureDirs(nested, other))
}

func TestCleanupPartials(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.part", "b.ytdl", "keep.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	require.NoError(t, CleanupPartials(dir))

	assert.NoFileExists(t, filepath.Join(dir, "a.part"))
	assert.NoFileExists(t, filepath.Join(dir, "b.ytdl"))
	assert.FileExists(t, filepath.Join(dir, "keep.mp4"))

	// Missing directory is not an error
	assert.NoError(t, CleanupPartials(filepath.Join(dir, "missing")))
}

func TestSaveLoadLastDownload(t *testing.T) {
	cacheDir := t.TempDir()

	_, err := LoadLastDownload(cacheDir)
	assert.Error(t, err)

	paths := []string{"/videos/a.mp4", "/videos/b.mp4"}
	require.NoError(t, SaveLastDownload(cacheDir, "https://example.com/list", paths))

	cached, err := LoadLastDownload(cacheDir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list", cached.Input)
	assert.Equal(t, paths, cached.Paths)
	assert.False(t, cached.CachedAt.IsZero())
}

func TestSaveLoadAnswer(t *testing.T) {
	cacheDir := t.TempDir()

	_, err := LoadLastAnswer(cacheDir)
	assert.ErrorContains(t, err, "no saved answer")

	require.NoError(t, SaveAnswer(cacheDir, "# Answer\n\nIt depends."))

	answer, err := LoadLastAnswer(cacheDir)
	require.NoError(t, err)
	assert.Equal(t, "# Answer\n\nIt depends.", answer)
}

func TestSaveLoadMetadata(t *testing.T) {
	cacheDir := t.TempDir()

	_, err := LoadCachedMetadata("dQw4w9WgXcQ", cacheDir)
	assert.Error(t, err)

	metadata := &VideoMetadata{
		ID:       "dQw4w9WgXcQ",
		Title:    "Some Talk",
		Channel:  "Some Channel",
		Duration: 213.5,
		Tags:     []string{"go", "video"},
	}
	require.NoError(t, SaveMetadata("dQw4w9WgXcQ", metadata, cacheDir))

	loaded, err := LoadCachedMetadata("dQw4w9WgXcQ", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, metadata, loaded)
}

func TestRenderMarkdown(t *testing.T) {
	rendered, err := RenderMarkdown("# Answer\n\nIt depends on the video.")
	require.NoError(t, err)
	assert.Contains(t, rendered, "It depends on the video.")
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "exists.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.txt")))
}
