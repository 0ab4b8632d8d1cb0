package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asynkron/binpatch/internal/fileprobe"
	"github.com/asynkron/binpatch/pkg/binpatch"
)

const bytesPerRow = 16

// Printer writes styled status lines and hex dumps to a writer.
type Printer struct {
	out io.Writer

	label     lipgloss.Style
	okStyle   lipgloss.Style
	warnStyle lipgloss.Style
	errStyle  lipgloss.Style
	dimStyle  lipgloss.Style
	hitStyle  lipgloss.Style
}

// New creates a Printer for w. Colors follow the terminal capabilities of w
// unless noColor is set.
func New(w io.Writer, noColor bool) *Printer {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:       w,
		label:     r.NewStyle().Foreground(lipgloss.Color("244")),
		okStyle:   r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		warnStyle: r.NewStyle().Foreground(lipgloss.Color("214")),
		errStyle:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		dimStyle:  r.NewStyle().Foreground(lipgloss.Color("240")),
		hitStyle:  r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")),
	}
}

func (p *Printer) line(style lipgloss.Style, tag, msg string) {
	fmt.Fprintln(p.out, style.Render("["+tag+"]")+" "+msg)
}

// OK prints a success line.
func (p *Printer) OK(format string, args ...any) {
	p.line(p.okStyle, "ok", fmt.Sprintf(format, args...))
}

// Info prints a neutral status line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.label, "info", fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	p.line(p.warnStyle, "warn", fmt.Sprintf(format, args...))
}

// Error prints a multi-line error report, tagging the first line.
func (p *Printer) Error(report string) {
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	p.line(p.errStyle, "error", lines[0])
	for _, l := range lines[1:] {
		fmt.Fprintln(p.out, l)
	}
}

// Probe prints the file probe summary.
func (p *Printer) Probe(result fileprobe.Result) {
	p.Info("%s", fileprobe.FormatSummary(result))
}

// Patched prints the outcome of a successful patch.
func (p *Printer) Patched(result binpatch.Result, backupPath string) {
	offsets := make([]string, len(result.Offsets))
	for i, off := range result.Offsets {
		offsets[i] = fmt.Sprintf("%#x", off)
	}
	p.OK("patched %s at %s (%d -> %d bytes)", result.Path, strings.Join(offsets, ", "), result.SearchLen, result.ReplaceLen)
	if result.SizeAfter != result.SizeBefore {
		p.Warn("file size changed from %d to %d bytes", result.SizeBefore, result.SizeAfter)
	}
	if backupPath != "" {
		p.Info("backup written to %s", backupPath)
	}
}

// Diff prints the region around offset in before and after, highlighting the
// searched bytes in before and the replacement in after.
func (p *Printer) Diff(before []byte, searchLen int, after []byte, replaceLen int, offset int) {
	fmt.Fprintln(p.out, p.label.Render("before:"))
	fmt.Fprint(p.out, p.HexDump(before, offset, searchLen))
	fmt.Fprintln(p.out, p.label.Render("after:"))
	fmt.Fprint(p.out, p.HexDump(after, offset, replaceLen))
}

// HexDump renders the rows of data that cover [offset, offset+length) plus
// one row of context on each side, highlighting the covered bytes.
func (p *Printer) HexDump(data []byte, offset, length int) string {
	if len(data) == 0 {
		return p.dimStyle.Render("(empty)") + "\n"
	}
	start, end := dumpWindow(len(data), offset, length)

	var b strings.Builder
	for row := start; row < end; row += bytesPerRow {
		b.WriteString(p.dimStyle.Render(fmt.Sprintf("%08x", row)))
		b.WriteString(" ")
		for i := row; i < row+bytesPerRow; i++ {
			b.WriteString(" ")
			if i >= len(data) {
				b.WriteString("  ")
				continue
			}
			cell := fmt.Sprintf("%02X", data[i])
			if i >= offset && i < offset+length {
				cell = p.hitStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("  ")
		b.WriteString(printable(data[row:min(row+bytesPerRow, len(data))]))
		b.WriteString("\n")
	}
	return b.String()
}

func dumpWindow(size, offset, length int) (int, int) {
	offset = max(0, min(offset, size))
	first := offset/bytesPerRow - 1
	last := (offset+max(length, 1)-1)/bytesPerRow + 1
	start := max(first, 0) * bytesPerRow
	end := min((last+1)*bytesPerRow, size)
	if end <= start {
		end = min(start+bytesPerRow, size)
	}
	return start, end
}

func printable(data []byte) string {
	out := make([]byte, len(data))
	for i, c := range data {
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
