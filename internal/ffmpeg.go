package internal

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Media inspects video files using FFmpeg tooling
type Media struct {
	cmdRunner CommandRunner
	verbose   bool
}

// NewMedia creates a new media inspector
func NewMedia(cmdRunner CommandRunner, verbose bool) *Media {
	return &Media{
		cmdRunner: cmdRunner,
		verbose:   verbose,
	}
}

// Duration returns the video file duration in seconds
func (m *Media) Duration(ctx context.Context, videoFile string) (float64, error) {
	output, err := m.cmdRunner.Run(ctx, "ffprobe",
		"-i", videoFile,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0")

	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, string(output))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}

	return duration, nil
}

// CheckFFmpeg verifies that ffmpeg is available on PATH. yt-dlp needs it to
// recode downloads to mp4.
func (m *Media) CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	return nil
}
