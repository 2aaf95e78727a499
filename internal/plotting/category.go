package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// Level assigns a colour and legend label to one integer pixel value.
type Level struct {
	Value int
	Color color.Color
	Label string
}

type discretePalette []color.Color

func (p discretePalette) Colors() []color.Color { return p }

// swatch is a legend thumbnail filled with a single colour.
type swatch struct {
	c color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.c, c.ClipPolygonXY(pts))
	outline := draw.LineStyle{Color: Black, Width: vg.Points(0.5)}
	c.StrokeLines(outline, c.ClipLinesXY(append(pts, pts[0]))...)
}

// NewCategoryPanel builds a panel that colours each pixel by its integer
// value. Values between listed levels render white; values outside render
// with the nearest end level.
func NewCategoryPanel(m *pixmap.Map, levels []Level, title string) (Panel, error) {
	if len(levels) < 2 {
		return Panel{}, errors.New("category map needs at least two levels")
	}
	sorted := append([]Level(nil), levels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	lo, hi := sorted[0].Value, sorted[len(sorted)-1].Value
	if hi-lo > 256 {
		return Panel{}, fmt.Errorf("category values span %d..%d, too wide for a discrete palette", lo, hi)
	}

	pal := make(discretePalette, hi-lo+1)
	for i := range pal {
		pal[i] = White
	}
	for _, l := range sorted {
		pal[l.Value-lo] = l.Color
	}

	hm := plotter.NewHeatMap(pixmap.Grid{M: m}, pal)
	hm.Min, hm.Max = float64(lo), float64(hi)
	hm.Underflow = pal[0]
	hm.Overflow = pal[len(pal)-1]
	hm.NaN = White
	hm.Rasterized = true

	p := plot.New()
	chipAxes(p, title)
	p.Add(hm)
	p.Legend.Top = true
	for _, l := range levels {
		if l.Label != "" {
			p.Legend.Add(l.Label, swatch{c: l.Color})
		}
	}
	return Panel{Plot: p}, nil
}

// CategoryMap writes a discrete map to file.
func CategoryMap(m *pixmap.Map, levels []Level, title, file string, size Size) error {
	pn, err := NewCategoryPanel(m, levels, title)
	if err != nil {
		return err
	}
	return Render(file, size.orDefault(DefaultSize), "", pn)
}

// BinaryMap draws flagged (non-zero) pixels in on and everything else white.
func BinaryMap(m *pixmap.Map, on color.Color, title, file string, size Size) error {
	bin := m.Apply(func(_, _ int, v float64) float64 {
		if v != 0 && !math.IsNaN(v) {
			return 1
		}
		return 0
	})
	levels := []Level{
		{Value: 0, Color: White},
		{Value: 1, Color: on, Label: fmt.Sprintf("flagged (%d)", bin.Count(pixmap.NonZero))},
	}
	return CategoryMap(bin, levels, title, file, size)
}
