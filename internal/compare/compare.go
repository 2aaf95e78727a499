// Package compare cross-checks the missing-bump maps of the three
// techniques and sorts every flagged pixel into exactly one overlap
// category.
package compare

import (
	"fmt"
	"image/color"

	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
)

// Category is one cell of the three-way Venn diagram.
type Category struct {
	// Name is the histogram name, e.g. "h_xray_xtalk".
	Name   string
	XRay   bool
	XTalk  bool
	FRBias bool
	Color  color.Color
}

// Categories returns the seven overlap categories in output order.
func Categories() []Category {
	return []Category{
		{Name: "h_xray_exclusive", XRay: true, Color: plotting.Blue},
		{Name: "h_xtalk_exclusive", XTalk: true, Color: plotting.Red},
		{Name: "h_frbias_exclusive", FRBias: true, Color: plotting.Green},
		{Name: "h_xray_xtalk", XRay: true, XTalk: true, Color: plotting.Magenta},
		{Name: "h_xray_frbias", XRay: true, FRBias: true, Color: plotting.Cyan},
		{Name: "h_xtalk_frbias", XTalk: true, FRBias: true, Color: plotting.Yellow},
		{Name: "h_xray_xtalk_frbias", XRay: true, XTalk: true, FRBias: true, Color: plotting.Black},
	}
}

// Label is the short human name of c, e.g. "xray+xtalk".
func (c Category) Label() string {
	var s string
	for _, part := range []struct {
		on   bool
		name string
	}{{c.XRay, "xray"}, {c.XTalk, "xtalk"}, {c.FRBias, "frbias"}} {
		if !part.on {
			continue
		}
		if s != "" {
			s += "+"
		}
		s += part.name
	}
	return s
}

func (c Category) matches(xray, xtalk, frbias bool) bool {
	return c.XRay == xray && c.XTalk == xtalk && c.FRBias == frbias
}

// Result holds one 0/1 map per category plus a combined map whose value is
// the 1-based index of the pixel's category, or 0.
type Result struct {
	Categories []Category
	Maps       []*pixmap.Map
	Combined   *pixmap.Map
	Counts     []int
}

// Count returns the number of pixels in the named category.
func (r *Result) Count(name string) int {
	for i, c := range r.Categories {
		if c.Name == name {
			return r.Counts[i]
		}
	}
	return 0
}

// Pixels returns the pixels of category i in row-major order.
func (r *Result) Pixels(i int) []pixmap.Pixel {
	return r.Maps[i].Where(pixmap.NonZero)
}

// Compare classifies every pixel by which of the three maps flag it. A
// non-zero value counts as flagged.
func Compare(xray, xtalk, frbias *pixmap.Map) (*Result, error) {
	if err := pixmap.CheckShape(xray, xtalk, frbias); err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	cats := Categories()
	rows, cols := xray.Dims()
	res := &Result{
		Categories: cats,
		Maps:       make([]*pixmap.Map, len(cats)),
		Combined:   pixmap.New(rows, cols),
		Counts:     make([]int, len(cats)),
	}
	for i := range cats {
		res.Maps[i] = pixmap.New(rows, cols)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			a := pixmap.NonZero(xray.At(r, c))
			b := pixmap.NonZero(xtalk.At(r, c))
			f := pixmap.NonZero(frbias.At(r, c))
			for i, cat := range cats {
				if !cat.matches(a, b, f) {
					continue
				}
				res.Maps[i].Set(r, c, 1)
				res.Combined.Set(r, c, float64(i+1))
				res.Counts[i]++
				break
			}
		}
	}
	return res, nil
}

// Levels are the colours of the combined category map.
func Levels() []plotting.Level {
	levels := []plotting.Level{{Value: 0, Color: plotting.White}}
	for i, c := range Categories() {
		levels = append(levels, plotting.Level{Value: i + 1, Color: c.Color, Label: c.Label()})
	}
	return levels
}
