// Package toy generates synthetic missing-bump maps for exercising the
// comparison without detector data.
package toy

import (
	"fmt"
	"path/filepath"

	"github.com/pixlab/bumpcheck/internal/compare"
	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// Chip dimensions of the generated maps.
const (
	NX = 432
	NY = 336
)

// FileName is the file written by Write.
const FileName = "toy_histograms.root"

// Radius of the disc drawn in hist3, in bins.
const Radius = 150

// Maps holds the three toy patterns:
//
//	Half:   1 in the left half of the x axis
//	Top:    1 in the upper half of the y axis
//	Circle: 1 inside a disc centred on the chip
type Maps struct {
	Half   *pixmap.Map
	Top    *pixmap.Map
	Circle *pixmap.Map
}

// Generate builds the patterns on an nx by ny grid. Bin i runs along x
// (columns) and j along y (rows), both 1-based.
func Generate(nx, ny int) (*Maps, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("toy: invalid dimensions %dx%d", nx, ny)
	}
	m := &Maps{
		Half:   pixmap.New(ny, nx),
		Top:    pixmap.New(ny, nx),
		Circle: pixmap.New(ny, nx),
	}
	cx, cy := nx/2, ny/2
	for i := 1; i <= nx; i++ {
		for j := 1; j <= ny; j++ {
			row, col := j-1, i-1
			if i <= cx {
				m.Half.Set(row, col, 1)
			}
			if j > cy {
				m.Top.Set(row, col, 1)
			}
			dx, dy := i-cx, j-cy
			if dx*dx+dy*dy <= Radius*Radius {
				m.Circle.Set(row, col, 1)
			}
		}
	}
	return m, nil
}

// Write stores the patterns as hist1, hist2 and hist3 in dir/toy_histograms.root.
func Write(dir string, m *Maps) (string, error) {
	path := filepath.Join(dir, FileName)
	err := histio.WriteMaps(path,
		histio.NamedMap{Name: "hist1", Title: "Histogram 1", Map: m.Half},
		histio.NamedMap{Name: "hist2", Title: "Histogram 2", Map: m.Top},
		histio.NamedMap{Name: "hist3", Title: "Histogram 3", Map: m.Circle},
	)
	if err != nil {
		return "", err
	}
	return path, nil
}

// Fixtures are the per-technique files written by Split.
type Fixtures struct {
	XRay   string
	XTalk  string
	FRBias string
}

// Split writes one pattern per technique, under the file and histogram
// names each analysis produces, so that compare can run on them directly.
func Split(dir string, chip int, m *Maps) (*Fixtures, error) {
	fx := &Fixtures{
		XRay:   filepath.Join(dir, fmt.Sprintf("xrayroot%d.root", chip)),
		XTalk:  filepath.Join(dir, fmt.Sprintf("h_missing2dC%d.root", chip)),
		FRBias: filepath.Join(dir, "histograms.root"),
	}
	files := []struct {
		path, hist string
		m          *pixmap.Map
	}{
		{fx.XRay, compare.DefaultXRayHist, m.Half},
		{fx.XTalk, compare.DefaultXTalkHist, m.Top},
		{fx.FRBias, compare.DefaultFRBiasHist, m.Circle},
	}
	for _, f := range files {
		if err := histio.WriteMaps(f.path, histio.NamedMap{Name: f.hist, Title: f.hist, Map: f.m}); err != nil {
			return nil, err
		}
	}
	return fx, nil
}
