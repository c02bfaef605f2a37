// Package matrix provides the dense row-major matrix used for feature vectors.
package matrix

import (
	"fmt"
	"math"
)

// Dense is a row-major float64 matrix.
type Dense struct {
	rows int
	cols int
	data []float64
}

// New allocates a zero rows x cols matrix.
func New(rows, cols int) *Dense {
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// FromData wraps a row-major buffer. len(data) must equal rows*cols.
func FromData(rows, cols int, data []float64) (*Dense, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("matrix: buffer of %d values does not fit %dx%d", len(data), rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: data}, nil
}

// FromRows copies a slice of equal-length rows.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	cols := len(rows[0])
	m := New(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("matrix: row %d has %d columns, want %d", i, len(r), cols)
		}
		copy(m.data[i*cols:], r)
	}
	return m, nil
}

// Rows returns the row count.
func (m *Dense) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Dense) Cols() int { return m.cols }

// Data returns the underlying row-major buffer.
func (m *Dense) Data() []float64 { return m.data }

// At returns element (i, j).
func (m *Dense) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set stores v at (i, j).
func (m *Dense) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Row returns row i as a view into the buffer.
func (m *Dense) Row(i int) []float64 { return m.data[i*m.cols : (i+1)*m.cols] }

// HStack concatenates blocks with equal row counts left to right.
// Blocks with zero columns are allowed.
func HStack(blocks ...*Dense) (*Dense, error) {
	if len(blocks) == 0 {
		return New(0, 0), nil
	}
	rows := blocks[0].rows
	cols := 0
	for i, b := range blocks {
		if b.rows != rows {
			return nil, fmt.Errorf("matrix: block %d has %d rows, want %d", i, b.rows, rows)
		}
		cols += b.cols
	}

	out := New(rows, cols)
	for i := 0; i < rows; i++ {
		dst := out.Row(i)
		off := 0
		for _, b := range blocks {
			if b.cols == 0 {
				continue
			}
			copy(dst[off:], b.Row(i))
			off += b.cols
		}
	}
	return out, nil
}

// RowNorms returns the L2 norm of every row.
func (m *Dense) RowNorms() []float64 {
	norms := make([]float64, m.rows)
	for i := range norms {
		norms[i] = Norm(m.Row(i))
	}
	return norms
}

// Equal reports exact element-wise equality and equal shape.
func (m *Dense) Equal(o *Dense) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i, v := range m.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}

// Dot returns the dot product of equal-length vectors.
func Dot(a, b []float64) float64 {
	var s float64
	for i, v := range a {
		s += v * b[i]
	}
	return s
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// Cosine returns dot(a,b)/(|a||b|) given precomputed norms.
// A zero-norm operand yields 0 rather than NaN.
func Cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}
