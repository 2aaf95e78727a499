package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

func TestHex(t *testing.T) {
	assert.Equal(t, "#ff0000", hex(color.RGBA{R: 255, A: 255}))
	assert.Equal(t, "#000000", hex(color.Black))
	assert.Equal(t, "#ffa500", hex(color.RGBA{R: 255, G: 165, A: 255}))
}

func TestPageRender(t *testing.T) {
	m := pixmap.New(4, 5)
	m.Set(0, 1, 1)
	m.Set(3, 4, -1)

	p := NewPage("RH0026 chip 12")
	p.AddCategoryMap("Missing Map", m, []Category{
		{Value: -1, Label: "low occupancy", Color: color.RGBA{R: 255, G: 165, A: 255}},
		{Value: 0, Label: "ok", Color: color.White, Skip: true},
		{Value: 1, Label: "missing", Color: color.RGBA{R: 255, A: 255}},
	})
	p.AddValueMap("Hits", m, 0, 2)
	p.AddCounts("Summary", []Count{{Name: "missing", Value: 1}, {Name: "strange", Value: 1}})
	assert.Equal(t, 3, p.Len())

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	html := buf.String()
	assert.Contains(t, html, "RH0026 chip 12")
	assert.Contains(t, html, "Missing Map")
	assert.Contains(t, html, "missing=1")
	assert.Contains(t, html, "#ffa500")
	assert.Contains(t, html, "Summary")
}

func TestPageRenderNonFinite(t *testing.T) {
	m := pixmap.New(2, 3)
	m.Set(0, 0, math.NaN())
	m.Set(0, 1, math.Inf(1))
	m.Set(1, 2, 1)

	p := NewPage("dead pixels")
	p.AddValueMap("Δ threshold", m, -50, 50)
	p.AddCategoryMap("Missing", m, []Category{{Value: 1, Label: "missing", Color: color.Black}})

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	assert.NotContains(t, buf.String(), "NaN")
	assert.Contains(t, buf.String(), "missing=1")
}

func TestPageSave(t *testing.T) {
	p := NewPage("empty")
	p.AddCounts("nothing", nil)
	path := filepath.Join(t.TempDir(), "nested", "report.html")
	require.NoError(t, p.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<html"))
}

func TestWritePixelsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "missing.csv")
	pixels := []pixmap.Pixel{{Row: 0, Col: 3}, {Row: 335, Col: 431}}
	require.NoError(t, WritePixelsCSV(path, pixels, "missing"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"row", "col", "category"},
		{"0", "3", "missing"},
		{"335", "431", "missing"},
	}, recs)
}

func TestWritePixelSetsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets.csv")
	require.NoError(t, WritePixelSetsCSV(path,
		PixelSet{Label: "confirmed", Pixels: []pixmap.Pixel{{Row: 1, Col: 1}}},
		PixelSet{Label: "suspicious"},
		PixelSet{Label: "dead", Pixels: []pixmap.Pixel{{Row: 2, Col: 0}}},
	))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row,col,category\n1,1,confirmed\n2,0,dead\n", string(data))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWritePixelSetsErrors(t *testing.T) {
	err := writePixelSets(failingWriter{}, []PixelSet{{Label: "missing", Pixels: []pixmap.Pixel{{Row: 0, Col: 0}}}})
	assert.ErrorContains(t, err, "disk full")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), nil, 0644))
	err = WritePixelSetsCSV(filepath.Join(dir, "file", "sets.csv"))
	assert.ErrorContains(t, err, "failed to create csv")
}
