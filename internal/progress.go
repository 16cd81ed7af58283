package internal

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// UIManager handles all user interface concerns (progress, verbose output, prompts)
type UIManager interface {
	// Progress indicators
	NewProgressBar(total int, description string) ProgressBar
	NewByteProgressBar(totalBytes int64, description string) ProgressBar
	NewSpinner(description string) ProgressBar

	// Verbose output
	Verbose(format string, args ...interface{})

	// Status messages
	Printf(format string, args ...interface{})
	Println(args ...interface{})
}

// ProgressBar abstracts progress indicators so quiet and piped runs can
// swap in a no-op implementation.
type ProgressBar interface {
	Set(current int)
	Add(n int)
	Advance()
	Describe(description string)
	Finish()
}

// StandardUIManager draws progress on stdout when it is a terminal
type StandardUIManager struct {
	verbose bool
	quiet   bool
	isTTY   bool
}

func NewUIManager(verbose, quiet bool) UIManager {
	return &StandardUIManager{
		verbose: verbose,
		quiet:   quiet,
		isTTY:   isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// showProgress reports whether progress indicators should be drawn. Piped
// output gets no progress bars.
func (ui *StandardUIManager) showProgress() bool {
	return !ui.quiet && ui.isTTY
}

func (ui *StandardUIManager) NewProgressBar(total int, description string) ProgressBar {
	if !ui.showProgress() {
		return nopBar{}
	}

	return &termBar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))}
}

func (ui *StandardUIManager) NewByteProgressBar(totalBytes int64, description string) ProgressBar {
	if !ui.showProgress() {
		return nopBar{}
	}
	return &termBar{bar: progressbar.DefaultBytes(totalBytes, description)}
}

func (ui *StandardUIManager) NewSpinner(description string) ProgressBar {
	if !ui.showProgress() {
		return nopBar{}
	}

	return &termBar{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish())}
}

// Verbose Output Methods
func (ui *StandardUIManager) Verbose(format string, args ...interface{}) {
	if ui.verbose {
		fmt.Printf(format, args...)
	}
}

// Status Message Methods
func (ui *StandardUIManager) Printf(format string, args ...interface{}) {
	if !ui.quiet {
		fmt.Printf(format, args...)
	}
}

func (ui *StandardUIManager) Println(args ...interface{}) {
	if !ui.quiet {
		fmt.Println(args...)
	}
}

// termBar draws to the terminal
type termBar struct {
	bar *progressbar.ProgressBar
}

func (t *termBar) Set(current int) { t.bar.Set(current) }

func (t *termBar) Add(n int) { t.bar.Add(n) }

func (t *termBar) Advance() { t.bar.Add(1) }

func (t *termBar) Describe(description string) { t.bar.Describe(description) }

func (t *termBar) Finish() { t.bar.Finish() }

// nopBar discards all progress updates
type nopBar struct{}

func (nopBar) Set(int) {}

func (nopBar) Add(int) {}

func (nopBar) Advance() {}

func (nopBar) Describe(string) {}

func (nopBar) Finish() {}
