package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter gives feedback during long article fetches. Pulling a full
// code means one request per article, which can run into the thousands.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter picks a terminal progress bar, or plain line output when
// running under CI.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LogReporter{Every: 25}
	}
	return &TerminalReporter{}
}

// TerminalReporter draws an interactive progress bar on stderr.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Fetching articles"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, message string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(message)
	_ = r.bar.Set(current)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LogReporter prints one line every Every updates, so CI logs stay
// readable on multi-thousand article fetches.
type LogReporter struct {
	Every int
	total int
}

func (r *LogReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(os.Stderr, "fetching %d articles\n", total)
}

func (r *LogReporter) Update(current int, message string) {
	if r.Every > 1 && current%r.Every != 0 && current != r.total {
		return
	}
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, r.total, message)
}

func (r *LogReporter) Finish() {
	fmt.Fprintln(os.Stderr, "fetch complete")
}
