// Package progress renders assembly progress on a terminal or as
// machine-readable "PROGRESS:<n>" lines for a wrapping process.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/user/timelapse/pkg/ports"
)

const barWidth = 30

// Printer implements ports.ProgressReporter.
type Printer struct {
	out  io.Writer
	bar  bool
	mu   sync.Mutex
	last int
}

// NewStdout creates a printer on stdout, drawing a bar when stdout is a terminal.
func NewStdout() *Printer {
	fd := os.Stdout.Fd()
	return New(os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// New creates a printer writing to out.
func New(out io.Writer, bar bool) *Printer {
	return &Printer{out: out, bar: bar, last: -1}
}

// Ensure Printer implements ports.ProgressReporter
var _ ports.ProgressReporter = (*Printer)(nil)

// Progress prints percent once per distinct value.
func (p *Printer) Progress(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if percent == p.last {
		return
	}
	p.last = percent

	if !p.bar {
		fmt.Fprintf(p.out, "PROGRESS:%d\n", percent)
		return
	}

	filled := percent * barWidth / 100
	fmt.Fprintf(p.out, "\r[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(" ", barWidth-filled), percent)
	if percent >= 100 {
		fmt.Fprintln(p.out)
	}
}
