package pixmap

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRows(t *testing.T, rows [][]float64) *Map {
	t.Helper()
	m, err := FromRows(rows)
	require.NoError(t, err)
	return m
}

func TestFromRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]float64
		wantErr bool
	}{
		{name: "rectangular", rows: [][]float64{{1, 2, 3}, {4, 5, 6}}},
		{name: "ragged", rows: [][]float64{{1, 2}, {3}}, wantErr: true},
		{name: "empty", rows: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromRows(tt.rows)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			r, c := m.Dims()
			assert.Equal(t, 2, r)
			assert.Equal(t, 3, c)
			assert.Equal(t, 6.0, m.At(1, 2))
		})
	}
}

func TestSub(t *testing.T) {
	a := mustRows(t, [][]float64{{5, 5}, {1, 0}})
	b := mustRows(t, [][]float64{{1, 2}, {3, 0}})

	got, err := Sub(a, b)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{4, 3, -2, 0}, got.Values()); diff != "" {
		t.Errorf("Sub() mismatch (-want +got):\n%s", diff)
	}

	_, err = Sub(a, New(3, 2))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestTransformsDoNotMutate(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})

	tr := m.Transpose()
	r, c := tr.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, tr.At(0, 1))

	flipped := m.FlipRows()
	assert.Equal(t, []float64{4, 5, 6, 1, 2, 3}, flipped.Values())

	scaled := m.Scale(10)
	assert.Equal(t, 60.0, scaled.At(1, 2))

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, m.Values())
}

func TestWindow(t *testing.T) {
	m := New(4, 5)
	m.Set(1, 2, 7)

	w, err := m.Window(1, 3, 1, 4)
	require.NoError(t, err)
	r, c := w.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 7.0, w.At(0, 1))

	w.Set(0, 1, 0)
	assert.Equal(t, 7.0, m.At(1, 2), "window must be a copy")

	_, err = m.Window(0, 5, 0, 1)
	assert.Error(t, err)
	_, err = m.Window(2, 2, 0, 1)
	assert.Error(t, err)
}

func TestCountAndWhere(t *testing.T) {
	m := mustRows(t, [][]float64{{0, 1, 0}, {-1, 1, 3}})

	assert.Equal(t, 2, m.Count(Equal(1)))
	assert.Equal(t, 4, m.Count(NonZero))
	assert.Equal(t, []Pixel{{Row: 0, Col: 1}, {Row: 1, Col: 1}}, m.Where(Equal(1)))
	assert.Empty(t, m.Where(Equal(2)))
}

func TestApply(t *testing.T) {
	m := mustRows(t, [][]float64{{0.2, 0.95}, {0.5, 1}})
	bin := m.Apply(func(_, _ int, v float64) float64 {
		if v >= 0.9 {
			return 1
		}
		return 0
	})
	assert.Equal(t, []float64{0, 1, 0, 1}, bin.Values())
}

func TestCheckShape(t *testing.T) {
	assert.NoError(t, CheckShape())
	assert.NoError(t, CheckShape(New(2, 3), New(2, 3)))
	assert.ErrorIs(t, CheckShape(New(2, 3), New(3, 2)), ErrShapeMismatch)
	assert.Error(t, CheckShape(New(2, 3), nil))
}

func TestGridOrientation(t *testing.T) {
	m := New(2, 3)
	m.Set(1, 2, 9)
	g := Grid{M: m}

	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 9.0, g.Z(2, 1))
	assert.Equal(t, 2.0, g.X(2))
	assert.Equal(t, 1.0, g.Y(1))
}
