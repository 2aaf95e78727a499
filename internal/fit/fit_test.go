package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdges(t *testing.T) {
	tests := []struct {
		name    string
		lo, hi  float64
		step    float64
		want    []float64
		wantErr bool
	}{
		{name: "exact", lo: 0, hi: 30, step: 10, want: []float64{0, 10, 20}},
		{name: "partial last step", lo: 0, hi: 25, step: 10, want: []float64{0, 10, 20}},
		{name: "zero step", lo: 0, hi: 1, step: 0, wantErr: true},
		{name: "empty range", lo: 5, hi: 5, step: 1, wantErr: true},
		{name: "single edge", lo: 0, hi: 1, step: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Edges(tt.lo, tt.hi, tt.step)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestNewHist(t *testing.T) {
	values := []float64{25, 0, 5, 12, 19.99, 20, 30, -1, math.NaN()}
	h, err := NewHist(values, 0, 30, 10)
	require.NoError(t, err)

	// Edges 0,10,20 give two bins; 20 and above fall off the end.
	assert.Equal(t, []float64{2, 2}, h.Counts)
	assert.Equal(t, 5, h.Dropped)
	assert.Equal(t, []float64{5, 15}, h.Centers())
	assert.Equal(t, 4.0, h.Total())
}

func TestMomentsEmpty(t *testing.T) {
	h, err := NewHist(nil, 0, 10, 1)
	require.NoError(t, err)
	_, _, err = h.Moments()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFitGaussianRecoversParameters(t *testing.T) {
	truth := Gaussian{Amplitude: 800, Mean: 1450, Sigma: 60}
	var x, y []float64
	for v := 1000.0; v < 1900; v += 10 {
		x = append(x, v)
		y = append(y, truth.Eval(v))
	}

	got, err := FitGaussian(x, y)
	require.NoError(t, err)
	assert.InDelta(t, truth.Mean, got.Mean, 0.5)
	assert.InDelta(t, truth.Sigma, math.Abs(got.Sigma), 0.5)
	assert.InDelta(t, truth.Amplitude, got.Amplitude, 5)
}

func TestFitHist(t *testing.T) {
	var values []float64
	// Triangular peak centred on 50.
	for i := 0; i < 40; i++ {
		for k := 0; k < 40-i; k++ {
			values = append(values, 50+float64(i)+0.5, 50-float64(i)-0.5)
		}
	}
	h, err := NewHist(values, 0, 100, 1)
	require.NoError(t, err)

	g, err := FitHist(h)
	require.NoError(t, err)
	assert.InDelta(t, 50, g.Mean, 1)
	assert.Greater(t, g.Sigma, 5.0)
}

func TestFitGaussianErrors(t *testing.T) {
	_, err := FitGaussian([]float64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = FitGaussian([]float64{1, 2, 3}, []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrEmpty)
}
