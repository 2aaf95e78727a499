// Package pixmap holds per-pixel chip data as dense row-major grids.
//
// A Map is addressed as (row, col). ROOT histograms use (x, y) = (col+1, row+1),
// and the histio package performs that conversion at the file boundary so that
// everything inside the analyses works in (row, col).
package pixmap

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Default RD53 chip geometry.
const (
	ChipRows = 336
	ChipCols = 432
)

// ErrShapeMismatch is returned when two maps that must be combined have
// different dimensions.
var ErrShapeMismatch = errors.New("pixel map shape mismatch")

// Pixel identifies a single pixel.
type Pixel struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pixel) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// Map is a rows x cols grid of float64 values.
type Map struct {
	d *mat.Dense
}

// New returns a zeroed map. It panics if rows or cols is not positive, as
// mat.NewDense does.
func New(rows, cols int) *Map {
	return &Map{d: mat.NewDense(rows, cols, nil)}
}

// FromDense wraps d without copying.
func FromDense(d *mat.Dense) *Map {
	return &Map{d: d}
}

// FromRows builds a map from a slice of equal-length rows.
func FromRows(rows [][]float64) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("pixel map needs at least one row and one column")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Map{d: mat.NewDense(len(rows), cols, data)}, nil
}

// Dims returns the number of rows and columns.
func (m *Map) Dims() (rows, cols int) {
	return m.d.Dims()
}

func (m *Map) At(row, col int) float64 {
	return m.d.At(row, col)
}

func (m *Map) Set(row, col int, v float64) {
	m.d.Set(row, col, v)
}

// Dense exposes the backing matrix. Mutating it mutates the map.
func (m *Map) Dense() *mat.Dense {
	return m.d
}

func (m *Map) Clone() *Map {
	return &Map{d: mat.DenseCopyOf(m.d)}
}

// Len is the number of pixels.
func (m *Map) Len() int {
	r, c := m.d.Dims()
	return r * c
}

// SameShape reports whether m and o have identical dimensions.
func (m *Map) SameShape(o *Map) bool {
	r1, c1 := m.Dims()
	r2, c2 := o.Dims()
	return r1 == r2 && c1 == c2
}

// CheckShape returns ErrShapeMismatch if any of the maps differs in shape
// from the first one. Nil maps are rejected.
func CheckShape(maps ...*Map) error {
	if len(maps) == 0 {
		return nil
	}
	for i, m := range maps {
		if m == nil {
			return fmt.Errorf("map %d is nil", i)
		}
	}
	r0, c0 := maps[0].Dims()
	for i, m := range maps[1:] {
		r, c := m.Dims()
		if r != r0 || c != c0 {
			return fmt.Errorf("%w: map %d is %dx%d, map 0 is %dx%d", ErrShapeMismatch, i+1, r, c, r0, c0)
		}
	}
	return nil
}
