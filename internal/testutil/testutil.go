// Package testutil provides shared test fixtures: synthetic pixel maps and
// Ph2_ACF-style ROOT files built from them.
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// Uniform returns a rows x cols map filled with v.
func Uniform(rows, cols int, v float64) *pixmap.Map {
	m := pixmap.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, v)
		}
	}
	return m
}

// WithPixels returns a copy of m with each listed pixel set to v.
func WithPixels(m *pixmap.Map, v float64, pixels ...pixmap.Pixel) *pixmap.Map {
	out := m.Clone()
	for _, p := range pixels {
		out.Set(p.Row, p.Col, v)
	}
	return out
}

// WriteScanFile writes each map as the named scan of the chip at loc, the
// way Ph2_ACF lays out calibration results, and returns the file path.
func WriteScanFile(t *testing.T, dir, name string, loc histio.Locator, scans map[string]*pixmap.Map) string {
	t.Helper()
	path := filepath.Join(dir, name)
	maps := make([]histio.NamedMap, 0, len(scans))
	for scan, m := range scans {
		maps = append(maps, histio.NamedMap{Name: loc.Path(scan), Title: scan, Map: m})
	}
	require.NoError(t, histio.WriteMaps(path, maps...))
	return path
}

// WriteMapFile writes a single top-level histogram and returns the path.
func WriteMapFile(t *testing.T, dir, file, hist string, m *pixmap.Map) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, histio.WriteMaps(path, histio.NamedMap{Name: hist, Title: hist, Map: m}))
	return path
}

// ReadMap reads a top-level histogram back from path.
func ReadMap(t *testing.T, path, hist string) *pixmap.Map {
	t.Helper()
	f, err := histio.Open(path)
	require.NoError(t, err)
	defer f.Close()
	m, err := f.Map(hist)
	require.NoError(t, err)
	return m
}

// QuietLogs silences the package logger for the duration of the test and
// restores the previous one afterwards.
func QuietLogs(t *testing.T) {
	t.Helper()
	t.Cleanup(monitoring.Snapshot())
	monitoring.SetOutput(io.Discard)
}
