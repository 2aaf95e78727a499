package plotting

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// MapOptions controls how a continuous chip map is drawn.
type MapOptions struct {
	Title  string
	ZLabel string
	// Min and Max clamp the colour range; nil uses the data range. Values
	// outside the range take the end colours.
	Min, Max *float64
	Size     Size
}

// Float returns a pointer to v, for MapOptions bounds.
func Float(v float64) *float64 { return &v }

func colourMap() palette.ColorMap {
	return moreland.Kindlmann()
}

// dataRange returns the finite min and max of m.
func dataRange(m *pixmap.Map) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	return lo, hi
}

// chipAxes labels the axes and flips Y so row 0 sits at the top, the way
// chip maps are usually shown.
func chipAxes(p *plot.Plot, title string) {
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
}

// NewMapPanel builds a heat-map panel with a matching colour bar.
func NewMapPanel(m *pixmap.Map, opts MapOptions) Panel {
	lo, hi := dataRange(m)
	if opts.Min != nil {
		lo = *opts.Min
	}
	if opts.Max != nil {
		hi = *opts.Max
	}
	if hi <= lo {
		hi = lo + 1
	}

	pal := colourMap().Palette(256)
	colours := pal.Colors()
	hm := plotter.NewHeatMap(pixmap.Grid{M: m}, pal)
	hm.Min, hm.Max = lo, hi
	hm.Underflow = colours[0]
	hm.Overflow = colours[len(colours)-1]
	hm.Rasterized = true

	p := plot.New()
	chipAxes(p, opts.Title)
	p.Add(hm)

	cm := colourMap()
	cm.SetMax(hi)
	cm.SetMin(lo)
	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm})
	bar.HideY()
	bar.X.Padding = 0
	bar.X.Label.Text = opts.ZLabel

	return Panel{Plot: p, Bar: bar}
}

// HeatMap writes a continuous chip map with a colour bar to file.
func HeatMap(m *pixmap.Map, opts MapOptions, file string) error {
	return Render(file, opts.Size.orDefault(DefaultSize), "", NewMapPanel(m, opts))
}
