// Package dirty consumes the change markers a terminal grid keeps per cell
// and per row, and classifies each redrawn row as a minor or major update.
//
// The grid owns the state: a dirty bit on every cell, a counter of dirty
// cells per row, and a frame-wide counter. A Tracker walks a row once per
// redraw, taking each cell's bit as the batcher reads it, and zeroes the
// row counter when the pass ends.
package dirty

// Region is a rectangle of grid cells, half-open on both axes.
type Region struct {
	// StartRow is the first row of the region (inclusive).
	StartRow int

	// EndRow is the row after the last row of the region (exclusive).
	EndRow int

	// StartCol is the first column of the region (inclusive).
	StartCol int

	// EndCol is the column after the last column (exclusive).
	EndCol int
}

// NewRegion creates a region from two corners, normalizing their order.
func NewRegion(col0, row0, col1, row1 int) Region {
	if col1 < col0 {
		col0, col1 = col1, col0
	}
	if row1 < row0 {
		row0, row1 = row1, row0
	}
	return Region{StartRow: row0, EndRow: row1, StartCol: col0, EndCol: col1}
}

// Full returns the region covering a whole cols x rows grid.
func Full(cols, rows int) Region {
	return NewRegion(0, 0, cols, rows)
}

// IsEmpty returns true if the region covers no cells.
func (r Region) IsEmpty() bool {
	return r.StartRow >= r.EndRow || r.StartCol >= r.EndCol
}

// RowCount returns the number of rows covered by the region.
func (r Region) RowCount() int {
	if r.EndRow <= r.StartRow {
		return 0
	}
	return r.EndRow - r.StartRow
}

// ColCount returns the number of columns covered by the region.
func (r Region) ColCount() int {
	if r.EndCol <= r.StartCol {
		return 0
	}
	return r.EndCol - r.StartCol
}

// Contains returns true if the region contains the cell at (col, row).
func (r Region) Contains(col, row int) bool {
	return row >= r.StartRow && row < r.EndRow && col >= r.StartCol && col < r.EndCol
}

// Intersect returns the overlap of two regions. The result may be empty.
func (r Region) Intersect(other Region) Region {
	out := Region{
		StartRow: max(r.StartRow, other.StartRow),
		EndRow:   min(r.EndRow, other.EndRow),
		StartCol: max(r.StartCol, other.StartCol),
		EndCol:   min(r.EndCol, other.EndCol),
	}
	if out.IsEmpty() {
		return Region{}
	}
	return out
}

// Clamp limits the region to a cols x rows grid.
func (r Region) Clamp(cols, rows int) Region {
	return r.Intersect(Full(cols, rows))
}
