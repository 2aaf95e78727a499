package pixmap

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sub returns a - b.
func Sub(a, b *Map) (*Map, error) {
	if err := CheckShape(a, b); err != nil {
		return nil, err
	}
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	out.Sub(a.d, b.d)
	return &Map{d: out}, nil
}

// Scale returns a copy of m with every value multiplied by f.
func (m *Map) Scale(f float64) *Map {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Scale(f, m.d)
	return &Map{d: out}
}

// Transpose returns a cols x rows copy.
func (m *Map) Transpose() *Map {
	return &Map{d: mat.DenseCopyOf(m.d.T())}
}

// FlipRows returns a copy with the row order reversed.
func (m *Map) FlipRows() *Map {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		out.SetRow(r-1-i, m.d.RawRowView(i))
	}
	return &Map{d: out}
}

// Window returns a copy of rows [r0, r1) and columns [c0, c1).
func (m *Map) Window(r0, r1, c0, c1 int) (*Map, error) {
	r, c := m.Dims()
	if r0 < 0 || c0 < 0 || r1 > r || c1 > c || r0 >= r1 || c0 >= c1 {
		return nil, fmt.Errorf("window [%d:%d, %d:%d] outside %dx%d map", r0, r1, c0, c1, r, c)
	}
	return &Map{d: mat.DenseCopyOf(m.d.Slice(r0, r1, c0, c1))}, nil
}

// Values returns the pixel values in row-major order.
func (m *Map) Values() []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.d.RawRowView(i)...)
	}
	return out
}

// Apply returns a new map holding fn applied to every pixel.
func (m *Map) Apply(fn func(row, col int, v float64) float64) *Map {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(fn, m.d)
	return &Map{d: out}
}

// Count returns the number of pixels whose value satisfies pred.
func (m *Map) Count(pred func(v float64) bool) int {
	r, c := m.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for _, v := range m.d.RawRowView(i)[:c] {
			if pred(v) {
				n++
			}
		}
	}
	return n
}

// Where lists the pixels whose value satisfies pred, in row-major order.
func (m *Map) Where(pred func(v float64) bool) []Pixel {
	r, c := m.Dims()
	var out []Pixel
	for i := 0; i < r; i++ {
		for j, v := range m.d.RawRowView(i)[:c] {
			if pred(v) {
				out = append(out, Pixel{Row: i, Col: j})
			}
		}
	}
	return out
}

// Equal returns a predicate matching v exactly. Category codes are small
// integers so exact comparison is safe.
func Equal(v float64) func(float64) bool {
	return func(x float64) bool { return x == v }
}

// NonZero matches any flagged pixel.
func NonZero(v float64) bool { return v != 0 }
