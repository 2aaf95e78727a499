package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
)

func TestWithPixels(t *testing.T) {
	base := Uniform(3, 4, 2)
	m := WithPixels(base, 9, pixmap.Pixel{Row: 0, Col: 0}, pixmap.Pixel{Row: 2, Col: 3})
	assert.Equal(t, 9.0, m.At(0, 0))
	assert.Equal(t, 9.0, m.At(2, 3))
	assert.Equal(t, 2.0, m.At(1, 1))
	assert.Equal(t, 2.0, base.At(0, 0), "source map is untouched")
}

func TestScanFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loc := histio.ChipLocator(0, 12)
	thr := Uniform(3, 4, 1500)
	path := WriteScanFile(t, dir, "scurve.root", loc, map[string]*pixmap.Map{histio.ScanThreshold: thr})

	f, err := histio.Open(path)
	assert.NoError(t, err)
	defer f.Close()
	got, err := f.ScanMap(loc, histio.ScanThreshold)
	assert.NoError(t, err)
	assert.Equal(t, thr.Values(), got.Values())

	p := WriteMapFile(t, dir, "m.root", "MissingMap", thr)
	assert.Equal(t, thr.Values(), ReadMap(t, p, "MissingMap").Values())
}

func TestQuietLogsRestores(t *testing.T) {
	t.Cleanup(monitoring.Snapshot())
	var buf bytes.Buffer
	monitoring.SetOutput(&buf)

	t.Run("quiet", func(t *testing.T) {
		QuietLogs(t)
		monitoring.Logf("muted")
	})
	monitoring.Logf("audible")

	assert.NotContains(t, buf.String(), "muted")
	assert.Contains(t, buf.String(), "audible")
}
