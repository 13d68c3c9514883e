// Package grid turns the flat argument list of a layout invocation into rows
// and columns and renders it as an aligned table.
package grid

import (
	"fmt"

	"github.com/gnolang/keyfmt/internal/types"
)

const separator = ","

// Cell is one argument's verbatim text plus its trailing separator.
type Cell struct {
	Text string
	Sep  string
}

func (c Cell) String() string { return c.Text + c.Sep }

// Grid is the row/column structure of one layout invocation.
type Grid struct {
	// Name is the invoked identifier, kept to cross-check the splice target.
	Name string
	Rows [][]Cell
}

// Columns returns the length of the longest row.
func (g Grid) Columns() int {
	n := 0
	for _, row := range g.Rows {
		n = max(n, len(row))
	}
	return n
}

// Build groups args by source row. Arguments sharing a line land in one row
// in source order; rows follow line order starting at the first argument's
// line. Lines without arguments become empty rows, except lines that an
// earlier multi-line argument runs into. Every argument but the last one gets
// a trailing comma. Comment nodes are kept as cells without separator.
func Build(name string, args []types.Argument) (Grid, error) {
	last := -1
	for i, arg := range args {
		if !arg.Comment {
			last = i
		}
	}
	if last < 0 {
		return Grid{}, fmt.Errorf("%w: %s", types.ErrEmptyGrid, name)
	}

	minRow, maxRow := args[0].Span.StartRow, args[0].Span.StartRow
	for _, arg := range args[1:] {
		minRow = min(minRow, arg.Span.StartRow)
		maxRow = max(maxRow, arg.Span.StartRow)
	}

	rows := make([][]Cell, maxRow-minRow+1)
	covered := make([]bool, len(rows))
	for i, arg := range args {
		cell := Cell{Text: arg.Text}
		if !arg.Comment && i != last {
			cell.Sep = separator
		}
		r := arg.Span.StartRow - minRow
		rows[r] = append(rows[r], cell)
		for c := r + 1; c <= arg.Span.EndRow-minRow && c < len(rows); c++ {
			covered[c] = true
		}
	}

	kept := rows[:0]
	for r, row := range rows {
		if len(row) == 0 && covered[r] {
			continue
		}
		kept = append(kept, row)
	}

	return Grid{Name: name, Rows: kept}, nil
}
