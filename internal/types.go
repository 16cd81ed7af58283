package internal

import (
	"fmt"
	"strings"
)

// InputKind represents the kind of video input the user provided
type InputKind int

const (
	InputUnknown InputKind = iota
	InputLocalFile
	InputYouTubeVideo
	InputYouTubePlaylist
	InputDirectURL
	InputCommand
)

// String returns a human-readable representation of the input kind
func (k InputKind) String() string {
	switch k {
	case InputLocalFile:
		return "file"
	case InputYouTubeVideo:
		return "video"
	case InputYouTubePlaylist:
		return "playlist"
	case InputDirectURL:
		return "url"
	case InputCommand:
		return "command"
	default:
		return "unknown"
	}
}

// ParsedInput represents the result of classifying a video argument
type ParsedInput struct {
	Kind          InputKind
	OriginalInput string
	NormalizedURL string
	ID            string
	Error         error
}

// IsValid returns true if the input resolved to something we can download or open
func (p *ParsedInput) IsValid() bool {
	return p.Error == nil && p.Kind != InputUnknown && p.Kind != InputCommand
}

// String returns a formatted representation of the parsed input
func (p *ParsedInput) String() string {
	if p.Error != nil {
		return fmt.Sprintf("ParsedInput{kind=%s, input=%q, error=%v}", p.Kind, p.OriginalInput, p.Error)
	}
	return fmt.Sprintf("ParsedInput{kind=%s, id=%s, url=%s}", p.Kind, p.ID, p.NormalizedURL)
}

// SuggestCorrection provides a hint when the input looks like a mistyped command
func (p *ParsedInput) SuggestCorrection(availableCommands []string) string {
	if p.Kind != InputCommand {
		return ""
	}

	input := strings.ToLower(p.OriginalInput)
	var matches []string
	for _, cmd := range availableCommands {
		if strings.Contains(cmd, input) || strings.Contains(input, cmd) {
			matches = append(matches, cmd)
		}
	}

	if len(matches) == 0 {
		return "use --help to see available commands"
	}
	return "did you mean: " + strings.Join(matches, ", ")
}
