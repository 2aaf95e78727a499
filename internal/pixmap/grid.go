package pixmap

import "gonum.org/v1/plot/plotter"

// Grid adapts a Map to plotter.GridXYZ. Columns run along X and rows along Y,
// so a chip map renders with column on the horizontal axis.
type Grid struct {
	M *Map
}

var _ plotter.GridXYZ = Grid{}

func (g Grid) Dims() (c, r int) {
	rows, cols := g.M.Dims()
	return cols, rows
}

func (g Grid) Z(c, r int) float64 { return g.M.At(r, c) }
func (g Grid) X(c int) float64    { return float64(c) }
func (g Grid) Y(r int) float64    { return float64(r) }
