package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/vxlib/vxrefl/internal/codegen/generator"
)

// barReporter draws a file progress bar on stderr.
type barReporter struct {
	bar *progressbar.ProgressBar
}

// newProgressReporter returns a bar for "always", or for "auto" when stderr
// is a terminal, and a no-op reporter otherwise.
func newProgressReporter(mode string) generator.ProgressReporter {
	switch mode {
	case "always":
	case "auto":
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return generator.NoOpProgressReporter{}
		}
	default:
		return generator.NoOpProgressReporter{}
	}
	return &barReporter{}
}

func (b *barReporter) OnScanStart(totalFiles int) {
	b.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Scanning sources"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func (b *barReporter) OnFileScanned(string) {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *barReporter) OnScanComplete() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
