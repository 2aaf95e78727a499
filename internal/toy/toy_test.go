package toy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixlab/bumpcheck/internal/compare"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/testutil"
)

func TestGenerate(t *testing.T) {
	m, err := Generate(NX, NY)
	require.NoError(t, err)

	rows, cols := m.Half.Dims()
	assert.Equal(t, NY, rows)
	assert.Equal(t, NX, cols)

	assert.Equal(t, NX/2*NY, m.Half.Count(pixmap.NonZero))
	assert.Equal(t, NY/2*NX, m.Top.Count(pixmap.NonZero))

	// Bin (i, j) = (216, 1) is the last column of the left half.
	assert.Equal(t, 1.0, m.Half.At(0, 215))
	assert.Equal(t, 0.0, m.Half.At(0, 216))
	// Bin j = 169 is the first row of the upper half.
	assert.Equal(t, 0.0, m.Top.At(167, 0))
	assert.Equal(t, 1.0, m.Top.At(168, 0))

	// Centre bin (216, 168) and the disc edge along x.
	assert.Equal(t, 1.0, m.Circle.At(167, 215))
	assert.Equal(t, 1.0, m.Circle.At(167, 215+Radius))
	assert.Equal(t, 0.0, m.Circle.At(167, 215+Radius+1))
	assert.Equal(t, 0.0, m.Circle.At(0, 0))
}

func TestGenerateInvalid(t *testing.T) {
	_, err := Generate(0, 10)
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	m, err := Generate(8, 6)
	require.NoError(t, err)
	path, err := Write(t.TempDir(), m)
	require.NoError(t, err)
	assert.Equal(t, FileName, filepath.Base(path))

	for name, want := range map[string]*pixmap.Map{"hist1": m.Half, "hist2": m.Top, "hist3": m.Circle} {
		got := testutil.ReadMap(t, path, name)
		assert.Equal(t, want.Values(), got.Values(), name)
	}
}

func TestSplitFeedsCompare(t *testing.T) {
	testutil.QuietLogs(t)
	dir := t.TempDir()
	m, err := Generate(8, 6)
	require.NoError(t, err)

	fx, err := Split(dir, 12, m)
	require.NoError(t, err)

	out, err := compare.Run(compare.Options{
		XRayFile:   fx.XRay,
		XTalkFile:  fx.XTalk,
		FRBiasFile: fx.FRBias,
		Module:     "toy",
		Chip:       12,
		OutDir:     filepath.Join(dir, "out"),
	})
	require.NoError(t, err)

	// The disc covers the whole 8x6 grid, so frbias flags every pixel.
	s := out.Summary
	assert.Equal(t, 48, s.FRBias)
	assert.Equal(t, 48, s.Flagged)
	assert.Equal(t, 12, s.Counts["h_xray_xtalk_frbias"])
	assert.Equal(t, 12, s.Counts["h_xray_frbias"])
	assert.Equal(t, 12, s.Counts["h_xtalk_frbias"])
	assert.Equal(t, 12, s.Counts["h_frbias_exclusive"])
	assert.Zero(t, s.Counts["h_xray_exclusive"])
}
