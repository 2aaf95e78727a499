package histio

import (
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// mapFromH2 converts a ROOT TH2 into a pixel map. ROOT bin (x, y) lands on
// pixel (row=y-1, col=x-1); under- and overflow bins are dropped.
func mapFromH2(h2 rhist.H2) *pixmap.Map {
	return mapFromH2D(rootcnv.H2D(h2))
}

func mapFromH2D(h *hbook.H2D) *pixmap.Map {
	nx, ny := h.Binning.Nx, h.Binning.Ny
	m := pixmap.New(ny, nx)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			m.Set(iy, ix, h.Binning.Bins[iy*nx+ix].SumW())
		}
	}
	return m
}

// h2dFromMap builds a unit-width histogram spanning [0, cols) x [0, rows).
func h2dFromMap(name, title string, m *pixmap.Map) *hbook.H2D {
	rows, cols := m.Dims()
	h := hbook.NewH2D(cols, 0, float64(cols), rows, 0, float64(rows))
	h.Annotation()["name"] = name
	h.Annotation()["title"] = title
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := m.At(r, c); v != 0 {
				h.Fill(float64(c)+0.5, float64(r)+0.5, v)
			}
		}
	}
	return h
}
