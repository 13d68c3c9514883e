package grid

import (
	"strings"
	"unicode/utf8"
)

// Options configures Render.
type Options struct {
	// Indent is the indentation of the invocation's line. Rows are indented
	// twice, the closing parenthesis once.
	Indent string
	// GapWidth extra spaces are inserted before the middle column to separate
	// the two halves of a split keyboard.
	GapWidth int
}

// Center pads every row to the grid's column count, placing half of the
// missing cells on each side. An odd remainder goes to the left so that
// shorter rows (thumb clusters) sit under the middle of the longer ones.
func Center(g Grid) [][]string {
	columns := g.Columns()
	out := make([][]string, len(g.Rows))
	for i, row := range g.Rows {
		fill := columns - len(row)
		left, right := fill-fill/2, fill/2

		padded := make([]string, 0, columns)
		for j := 0; j < left; j++ {
			padded = append(padded, "")
		}
		for _, cell := range row {
			padded = append(padded, cell.String())
		}
		for j := 0; j < right; j++ {
			padded = append(padded, "")
		}
		out[i] = padded
	}
	return out
}

// ColumnWidths returns the widest cell, in runes, of every column.
func ColumnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	return widths
}

// Render serializes g as a parenthesized, aligned block:
//
//	(
//	<indent><indent>KC_A, KC_B,   KC_C, KC_D,
//	<indent><indent>      KC_E,   KC_F
//	<indent>)
//
// Only whitespace is added; the token sequence is unchanged.
func Render(g Grid, opts Options) string {
	rows := Center(g)
	widths := ColumnWidths(rows)
	mid := len(widths) / 2

	var b strings.Builder
	b.WriteString("(\n")
	for _, row := range rows {
		if line := renderRow(row, widths, mid, opts.GapWidth); line != "" {
			b.WriteString(opts.Indent)
			b.WriteString(opts.Indent)
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	b.WriteString(opts.Indent)
	b.WriteString(")")
	return b.String()
}

func renderRow(row []string, widths []int, mid, gap int) string {
	var b strings.Builder
	for i, cell := range row {
		if i > 0 {
			b.WriteByte(' ')
			if i == mid && gap > 0 {
				b.WriteString(strings.Repeat(" ", gap))
			}
		}
		b.WriteString(cell)
		if pad := widths[i] - utf8.RuneCountInString(cell); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	// the last populated cell is never padded
	return strings.TrimRight(b.String(), " ")
}
