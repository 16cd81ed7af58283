package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchURL(t *testing.T) {
	tests := []struct {
		name  string
		entry PlaylistEntry
		want  string
	}{
		{"id only", PlaylistEntry{ID: "dQw4w9WgXcQ"}, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"explicit url wins", PlaylistEntry{ID: "dQw4w9WgXcQ", URL: "https://youtu.be/dQw4w9WgXcQ"}, "https://youtu.be/dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.WatchURL())
		})
	}
}

func TestVideoReusesExistingDownload(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "dQw4w9WgXcQ.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("video bytes"), 0644))

	yt := NewYouTube(dir, false)

	path, err := yt.Video(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, existing, path)
}

func TestVideoRejectsNonYouTubeURL(t *testing.T) {
	yt := NewYouTube(t.TempDir(), false)

	_, err := yt.Video(context.Background(), "https://vimeo.com/123456")
	assert.ErrorContains(t, err, "extracting video ID")
}
