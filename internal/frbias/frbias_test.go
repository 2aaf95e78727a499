package frbias

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
	"github.com/pixlab/bumpcheck/internal/testutil"
)

func TestAnalyze(t *testing.T) {
	fThr, _ := pixmap.FromRows([][]float64{{1500, 1500}, {1500, 1500}})
	rThr, _ := pixmap.FromRows([][]float64{{1497, 1400}, {1500, 1510}})
	fNoise, _ := pixmap.FromRows([][]float64{{80, 80}, {80, 80}})
	rNoise, _ := pixmap.FromRows([][]float64{{76, 60}, {85, 80}})

	res, err := Analyze(fThr, fNoise, rThr, rNoise, DefaultCut)
	require.NoError(t, err)

	// (3,4) -> 5 is on the cut, (0,5) -> 5, (-10,0) -> 10.
	want := [][]float64{{1, 0}, {1, 0}}
	for r, row := range want {
		for c, v := range row {
			assert.Equal(t, v, res.Missing.At(r, c), "pixel %d,%d", r, c)
		}
	}
	assert.Equal(t, 3.0, res.DeltaThr.At(0, 0))
	assert.Equal(t, -5.0, res.DeltaNoise.At(1, 0))
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, []pixmap.Pixel{{Row: 0, Col: 0}, {Row: 1, Col: 0}}, res.Pixels())
}

func TestAnalyzeErrors(t *testing.T) {
	a := pixmap.New(2, 2)
	b := pixmap.New(2, 3)

	_, err := Analyze(a, a, b, a, DefaultCut)
	assert.ErrorIs(t, err, pixmap.ErrShapeMismatch)

	_, err = Analyze(a, a, a, a, -1)
	assert.Error(t, err)
}

func TestFormatCut(t *testing.T) {
	assert.Equal(t, "5", FormatCut(5))
	assert.Equal(t, "2.5", FormatCut(2.5))
}

func TestRun(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	loc := histio.ChipLocator(0, 12)
	const rows, cols = 6, 8
	dead := []pixmap.Pixel{{Row: 1, Col: 2}, {Row: 4, Col: 7}}

	fwd := testutil.WriteScanFile(t, dir, "fwd.root", loc, map[string]*pixmap.Map{
		histio.ScanThreshold: testutil.Uniform(rows, cols, 1500),
		histio.ScanNoise:     testutil.Uniform(rows, cols, 80),
	})
	rev := testutil.WriteScanFile(t, dir, "rev.root", loc, map[string]*pixmap.Map{
		histio.ScanThreshold: testutil.WithPixels(testutil.Uniform(rows, cols, 1400), 1500, dead...),
		histio.ScanNoise:     testutil.WithPixels(testutil.Uniform(rows, cols, 60), 80, dead...),
	})

	outDir := filepath.Join(dir, "out")
	out, err := Run(Options{
		Forward:  fwd,
		Reverse:  rev,
		Locator:  loc,
		Cut:      DefaultCut,
		OutDir:   outDir,
		PlotSize: plotting.SizeInches(3, 3),
		HTML:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, Summary{Chip: 12, Cut: 5, Missing: 2, Pixels: rows * cols}, out.Summary)
	assert.Equal(t, dead, out.Result.Pixels())

	for _, name := range []string{"histograms.root", "frbias_missing.csv", "thr5missing_map.png", "delta_thr.png", "delta_ns.png", ReportFile(12)} {
		path := filepath.Join(outDir, name)
		assert.FileExists(t, path)
		assert.Contains(t, out.Files, path)
	}

	missing := testutil.ReadMap(t, filepath.Join(outDir, "histograms.root"), "missing_map")
	assert.Equal(t, out.Result.Missing.Values(), missing.Values())

	csv, err := os.ReadFile(filepath.Join(outDir, "frbias_missing.csv"))
	require.NoError(t, err)
	assert.Equal(t, "row,col,category\n1,2,missing\n4,7,missing\n", string(csv))
}

func TestRunMissingScan(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	loc := histio.ChipLocator(0, 12)
	fwd := testutil.WriteScanFile(t, dir, "fwd.root", loc, map[string]*pixmap.Map{
		histio.ScanThreshold: testutil.Uniform(2, 2, 1),
	})
	_, err := Run(Options{Forward: fwd, Reverse: fwd, Locator: loc, Cut: 5, OutDir: dir})
	assert.ErrorIs(t, err, histio.ErrNotFound)
}
