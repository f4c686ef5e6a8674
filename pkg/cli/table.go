package cli

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Table prints column-aligned rows under a header and a dash divider.
// Widths ignore colour escapes, so Green/Red cells line up. A table with no
// rows prints nothing.
type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a table writing to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{out: w, headers: headers}
}

// Row buffers one row until Flush.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush writes the header, divider and buffered rows.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	widths := make([]int, len(t.headers))
	for _, row := range append([][]string{t.headers}, t.rows...) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := visibleLen(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	dividers := make([]string, len(t.headers))
	for i, h := range t.headers {
		dividers[i] = strings.Repeat("-", len(h))
	}

	var b strings.Builder
	for _, row := range append([][]string{t.headers, dividers}, t.rows...) {
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-visibleLen(cell)+2))
			}
		}
		b.WriteByte('\n')
	}
	io.WriteString(t.out, b.String())
	t.rows = nil
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(ansiEscape.ReplaceAllString(s, ""))
}
