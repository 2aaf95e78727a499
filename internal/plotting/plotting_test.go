package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixlab/bumpcheck/internal/fit"
	"github.com/pixlab/bumpcheck/internal/pixmap"
)

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "\x89PNG\r\n\x1a\n", string(data[:8]))
}

func rampMap(rows, cols int) *pixmap.Map {
	m := pixmap.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, float64(r+c))
		}
	}
	return m
}

func TestHeatMap(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts MapOptions
	}{
		{name: "data range", opts: MapOptions{Title: "ramp", ZLabel: "electrons"}},
		{name: "clamped", opts: MapOptions{Title: "clamped", Min: Float(5), Max: Float(10)}},
		{name: "inverted bounds", opts: MapOptions{Min: Float(3), Max: Float(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "sub", tt.name+".png")
			require.NoError(t, HeatMap(rampMap(12, 16), tt.opts, path))
			assertPNG(t, path)
		})
	}
}

func TestCategoryMap(t *testing.T) {
	m := pixmap.New(6, 8)
	m.Set(0, 0, -1)
	m.Set(1, 1, 1)
	m.Set(2, 2, 3)
	levels := []Level{
		{Value: -1, Color: Orange, Label: "Low Occ"},
		{Value: 0, Color: Blue, Label: "Masked"},
		{Value: 1, Color: Red, Label: "Missing"},
		{Value: 3, Color: White, Label: "Good"},
	}
	path := filepath.Join(t.TempDir(), "missing.png")
	require.NoError(t, CategoryMap(m, levels, "Missing Map", path, Size{}))
	assertPNG(t, path)

	err := CategoryMap(m, levels[:1], "one level", path, Size{})
	assert.Error(t, err)
}

func TestBinaryMap(t *testing.T) {
	m := pixmap.New(4, 4)
	m.Set(3, 3, 1)
	m.Set(0, 1, -1)
	path := filepath.Join(t.TempDir(), "bin.png")
	require.NoError(t, BinaryMap(m, Magenta, "h_xray_xtalk", path, SizeInches(4, 4)))
	assertPNG(t, path)
}

func TestHistogram(t *testing.T) {
	var values []float64
	for i := 0; i < 200; i++ {
		values = append(values, 40+float64(i%20))
	}
	h, err := fit.NewHist(values, 0, 100, 2)
	require.NoError(t, err)
	g, err := fit.FitHist(h)
	require.NoError(t, err)

	dir := t.TempDir()
	tests := []struct {
		name string
		opts HistOptions
	}{
		{name: "linear", opts: HistOptions{Title: "hits", Label: "Hits/pixel"}},
		{name: "log with fit", opts: HistOptions{LogY: true, YMin: 0.1, YMax: 1e5, Fit: &g, Label: "Noise"}},
		{name: "markers", opts: HistOptions{LogY: true, Markers: []float64{1, 50}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", tt.name+".png")
			require.NoError(t, Histogram(h, tt.opts, path))
			assertPNG(t, path)
		})
	}

	assert.Error(t, Histogram(&fit.Hist{}, HistOptions{}, filepath.Join(dir, "empty.png")))
}

func TestRenderSideBySide(t *testing.T) {
	left := NewMapPanel(rampMap(10, 10), MapOptions{Title: "Hit Map"})
	right, err := NewCategoryPanel(pixmap.New(10, 10), []Level{
		{Value: 0, Color: Blue},
		{Value: 1, Color: Red},
	}, "Missing Map")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "combined.png")
	require.NoError(t, Render(path, SizeInches(13, 7.5), "Sensor: test\nMissing bumps: 0", left, right))
	assertPNG(t, path)

	assert.Error(t, Render(path, DefaultSize, "no panels"))
}
