package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePromptFromString(t *testing.T) {
	pm := NewPromptManager(t.TempDir(), "Answer about {{.VideoCount}} video(s): {{.Question}}")

	prompt, err := pm.CreatePrompt("What is covered?", 2)
	require.NoError(t, err)
	assert.Equal(t, "Answer about 2 video(s): What is covered?", prompt)
}

func TestCreatePromptFromFile(t *testing.T) {
	dir := t.TempDir()
	promptFile := filepath.Join(dir, "custom.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("Q: {{.Question}}"), 0644))

	pm := NewPromptManager(dir, promptFile)

	prompt, err := pm.CreatePrompt("How long is it?", 1)
	require.NoError(t, err)
	assert.Equal(t, "Q: How long is it?", prompt)
}

func TestCreatePromptDefaultFile(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "prompt.txt"), []byte("Default: {{.Question}}"), 0644))

	pm := NewPromptManager(configDir, "")

	prompt, err := pm.CreatePrompt("Who is speaking?", 1)
	require.NoError(t, err)
	assert.Equal(t, "Default: Who is speaking?", prompt)
}

func TestCreatePromptMissingFile(t *testing.T) {
	pm := NewPromptManager(t.TempDir(), "")

	_, err := pm.CreatePrompt("anything", 1)
	assert.ErrorContains(t, err, "reading prompt template")
}

func TestCreatePromptBadTemplate(t *testing.T) {
	pm := NewPromptManager(t.TempDir(), "{{.Question")

	_, err := pm.CreatePrompt("anything", 1)
	assert.ErrorContains(t, err, "parsing prompt template")
}

func TestDefaultPromptCoversVideoCount(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, EnsureDefaultPrompt(configDir))

	pm := NewPromptManager(configDir, "")

	single, err := pm.CreatePrompt("What happens?", 1)
	require.NoError(t, err)
	many, err := pm.CreatePrompt("What happens?", 3)
	require.NoError(t, err)

	assert.Contains(t, single, "What happens?")
	assert.Contains(t, many, "What happens?")
	assert.NotEqual(t, single, many, "prompt should adapt to the number of videos")
}

func TestIsLikelyFilePath(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"/etc/prompts/ask.txt", true},
		{"prompt.txt", true},
		{"notes.md", true},
		{"ask.tmpl", true},
		{"Tell me what this video is about", false},
		{strings.Repeat("x", 201), false},
		{"single-token", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLikelyFilePath(tt.in), "input %q", tt.in)
	}
}
