package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// PromptData is the data available to prompt templates.
type PromptData struct {
	Question   string
	VideoCount int
}

// PromptManager resolves which prompt template to use and renders it
type PromptManager struct {
	promptFile   string
	promptString string
	configDir    string
}

// NewPromptManager creates a prompt manager. The prompt setting may be an
// inline template string or a path to a template file; empty means the
// default prompt.txt in the config directory.
func NewPromptManager(configDir, promptSetting string) *PromptManager {
	pm := &PromptManager{configDir: configDir}

	switch {
	case promptSetting == "":
	case IsLikelyFilePath(promptSetting) && FileExists(promptSetting):
		pm.promptFile = promptSetting
	default:
		pm.promptString = promptSetting
	}

	return pm
}

func (pm *PromptManager) templateText() (string, error) {
	if pm.promptString != "" {
		return pm.promptString, nil
	}

	promptFile := pm.promptFile
	if promptFile == "" {
		promptFile = filepath.Join(pm.configDir, "prompt.txt")
	}

	content, err := os.ReadFile(promptFile)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}

	return string(content), nil
}

// CreatePrompt renders the question prompt sent alongside the videos.
func (pm *PromptManager) CreatePrompt(question string, videoCount int) (string, error) {
	text, err := pm.templateText()
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	var buf bytes.Buffer
	data := PromptData{Question: question, VideoCount: videoCount}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}

	return buf.String(), nil
}

// IsLikelyFilePath reports whether s looks like a path to a template file
// rather than an inline template.
func IsLikelyFilePath(s string) bool {
	if strings.ContainsAny(s, `/\`) {
		return true
	}

	for _, ext := range []string{".txt", ".md", ".template", ".tmpl"} {
		if strings.Contains(s, ext) {
			return true
		}
	}

	// Long strings are almost always inline prompts.
	if len(s) > 200 {
		return false
	}

	return !strings.ContainsAny(s, " \n")
}
