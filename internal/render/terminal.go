package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/opd-ai/go-sysmon/internal/monitor"
)

// ANSI control sequences.
const (
	clearScreen  = "\033[2J\033[H"
	clearLineEnd = "\033[K"
	clearToEnd   = "\033[J"
	// metricsRow is the first row below the header and its blank line.
	metricsRow = "\033[4;1H"
)

const underline = "=================="

// Block is one target's section of a frame. It is labelled with
// Sample.Target unless the frame holds only the local machine.
type Block struct {
	// OS is the target's operating system (GOOS or uname -s).
	OS string
	// Status is a short health word ("ok", "degraded", "unhealthy").
	Status string
	Sample monitor.Sample
	// Err is the poll error, if any. It is shown below the metrics.
	Err error
}

// Frame is everything drawn for one tick.
type Frame struct {
	// OS selects the header title.
	OS     string
	Blocks []Block
}

// Config holds the renderer options.
type Config struct {
	// Units is UnitsClassic or UnitsIEC.
	Units string
	// ClearScreen enables in-place redraws. It is ignored when the output
	// is not a terminal.
	ClearScreen bool
}

// TerminalRenderer writes frames to an io.Writer.
// It is safe for concurrent use.
type TerminalRenderer struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	formatBytes func(uint64) string
	drawn       bool
}

// NewTerminalRenderer creates a renderer writing to out. In-place redraws
// are used only when cfg.ClearScreen is set and out is a terminal.
func NewTerminalRenderer(out io.Writer, cfg Config) *TerminalRenderer {
	return &TerminalRenderer{
		out:         out,
		interactive: cfg.ClearScreen && IsTerminal(out),
		formatBytes: ByteFormatter(cfg.Units),
	}
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetUnits switches byte formatting for subsequent frames.
func (r *TerminalRenderer) SetUnits(units string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatBytes = ByteFormatter(units)
}

// Render draws one frame.
func (r *TerminalRenderer) Render(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := bufio.NewWriter(r.out)
	eol := "\n"
	if r.interactive {
		eol = clearLineEnd + "\n"
	}

	switch {
	case r.interactive && r.drawn:
		w.WriteString(metricsRow)
	case r.interactive:
		w.WriteString(clearScreen)
		writeHeader(w, frame.OS)
	case !r.drawn:
		writeHeader(w, frame.OS)
	}

	named := len(frame.Blocks) > 1
	for i, b := range frame.Blocks {
		if i > 0 {
			w.WriteString(eol)
		}
		r.writeBlock(w, b, named || b.Sample.Target != monitor.LocalTarget, eol)
	}

	if r.interactive {
		w.WriteString(clearToEnd)
	} else {
		w.WriteString("\n")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	r.drawn = true
	return nil
}

func writeHeader(w *bufio.Writer, goos string) {
	fmt.Fprintf(w, "%s\n%s\n\n", Header(goos), underline)
}

func (r *TerminalRenderer) writeBlock(w *bufio.Writer, b Block, named bool, eol string) {
	s := b.Sample
	if named {
		line := fmt.Sprintf("[%s]", s.Target)
		if b.OS != "" {
			line += " " + OSTitle(b.OS)
		}
		if b.Status != "" {
			line += " (" + b.Status + ")"
		}
		w.WriteString(line + eol)
	}

	fmt.Fprintf(w, "CPU Usage: %.2f%%%s", s.CPUPercent, eol)
	fmt.Fprintf(w, "Load Averages: %.2f (1 min), %.2f (5 min), %.2f (15 min)",
		s.Load.One, s.Load.Five, s.Load.Fifteen)
	if !s.LoadSupported {
		w.WriteString(" [not supported]")
	}
	w.WriteString(eol)
	fmt.Fprintf(w, "Total Memory: %s%s", r.formatBytes(s.Memory.Total), eol)
	fmt.Fprintf(w, "Used Memory: %s%s", r.formatBytes(s.Memory.Used), eol)
	fmt.Fprintf(w, "Free Memory: %s%s", r.formatBytes(s.Memory.Free), eol)

	if b.Err != nil {
		fmt.Fprintf(w, "Warning: %s%s", singleLine(b.Err.Error()), eol)
	}
}

// singleLine keeps multi-line error text from breaking the layout.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
