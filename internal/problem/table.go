package problem

// Flat row-major tables backing the per-vehicle travel and service data.
// The instance tables are dense numeric grids keyed by small indices, so a
// single backing slice beats any map- or graph-shaped structure.

// Table2 is a dense rows x cols table.
type Table2[T any] struct {
	data []T
	cols int
}

// NewTable2 allocates a zeroed rows x cols table.
func NewTable2[T any](rows, cols int) Table2[T] {
	return Table2[T]{data: make([]T, rows*cols), cols: cols}
}

// At returns the value at (row, col).
func (t *Table2[T]) At(row, col int) T { return t.data[row*t.cols+col] }

// Set stores v at (row, col).
func (t *Table2[T]) Set(row, col int, v T) { t.data[row*t.cols+col] = v }

// Rows returns the number of rows.
func (t *Table2[T]) Rows() int {
	if t.cols == 0 {
		return 0
	}
	return len(t.data) / t.cols
}

// Cols returns the number of columns.
func (t *Table2[T]) Cols() int { return t.cols }

// Table3 is a dense three-dimensional table.
type Table3[T any] struct {
	data []T
	dim2 int
	dim3 int
}

// NewTable3 allocates a zeroed dim1 x dim2 x dim3 table.
func NewTable3[T any](dim1, dim2, dim3 int) Table3[T] {
	return Table3[T]{data: make([]T, dim1*dim2*dim3), dim2: dim2, dim3: dim3}
}

// At returns the value at (i, j, k).
func (t *Table3[T]) At(i, j, k int) T { return t.data[(i*t.dim2+j)*t.dim3+k] }

// Set stores v at (i, j, k).
func (t *Table3[T]) Set(i, j, k int, v T) { t.data[(i*t.dim2+j)*t.dim3+k] = v }
