// Package output renders CLI output. Colors are applied only when the
// destination is a terminal; piped output stays plain.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles used by the CLI.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Score   lipgloss.Style
}

// colorStyles returns the styled palette for terminal output.
func colorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// plainStyles returns unstyled components for non-terminal output.
func plainStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Score:   lipgloss.NewStyle(),
	}
}

// Writer renders formatted CLI output.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer, choosing styled or plain output based on
// whether out is a terminal.
func New(out io.Writer) *Writer {
	if isTerminal(out) {
		return &Writer{out: out, styles: colorStyles()}
	}
	return &Writer{out: out, styles: plainStyles()}
}

// NewPlain creates a Writer that never styles, regardless of terminal.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out, styles: plainStyles()}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write errors are ignored throughout: console output is best-effort.

// Header prints a bold section header.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// Success prints a success line.
func (w *Writer) Success(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Warning prints a warning line.
func (w *Writer) Warning(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (w *Writer) Error(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Dim prints a de-emphasized line.
func (w *Writer) Dim(format string, args ...any) {
	_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render(fmt.Sprintf(format, args...)))
}

// Plain prints an unstyled line.
func (w *Writer) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Result prints one search result: styled index/source header, score,
// and the text block indented underneath.
func (w *Writer) Result(index int, source string, chunkID int, score float64, text string) {
	head := fmt.Sprintf("[%d] %s (chunk %d)", index, source, chunkID)
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(head))
	_, _ = fmt.Fprintln(w.out, w.styles.Score.Render(fmt.Sprintf("    score %.4f", score)))
	_, _ = fmt.Fprintf(w.out, "    %s\n", text)
}
