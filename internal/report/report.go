// Package report writes the interactive HTML summary and CSV pixel lists that
// accompany each analysis run.
package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// viridis stops used for continuous maps.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// Category describes one discrete pixel value. Skip leaves matching pixels
// out of the chart, which keeps mostly-empty maps small.
type Category struct {
	Value int
	Label string
	Color color.Color
	Skip  bool
}

// Count is a named tally shown in the summary bar chart.
type Count struct {
	Name  string
	Value int
}

// Page accumulates charts for one report.html.
type Page struct {
	title  string
	charts []components.Charter
}

func NewPage(title string) *Page {
	return &Page{title: title}
}

// Len is the number of charts on the page.
func (p *Page) Len() int { return len(p.charts) }

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

func axisLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func newChipHeatMap(title, subtitle string, rows, cols int, vm opts.VisualMap) *charts.HeatMap {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "760px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "column", Data: axisLabels(cols)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "row", Data: axisLabels(rows), Inverse: opts.Bool(true)}),
		charts.WithVisualMapOpts(vm),
	)
	hm.SetXAxis(axisLabels(cols))
	return hm
}

// AddCategoryMap adds a sparse heat map of the listed category values.
// Pixels whose value is not listed are omitted.
func (p *Page) AddCategoryMap(title string, m *pixmap.Map, cats []Category) {
	rows, cols := m.Dims()
	byValue := make(map[int]Category, len(cats))
	pieces := make([]opts.Piece, 0, len(cats))
	for _, c := range cats {
		byValue[c.Value] = c
		if c.Skip {
			continue
		}
		v := float32(c.Value)
		pieces = append(pieces, opts.Piece{Gte: v - 0.5, Lt: v + 0.5, Color: hex(c.Color)})
	}

	var data []opts.HeatMapData
	counts := make(map[int]int)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f := m.At(r, c)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			v := int(f)
			cat, ok := byValue[v]
			if !ok || cat.Skip {
				continue
			}
			counts[v]++
			data = append(data, opts.HeatMapData{Name: cat.Label, Value: [3]interface{}{c, r, v}})
		}
	}

	subtitle := ""
	for _, c := range cats {
		if c.Skip {
			continue
		}
		if subtitle != "" {
			subtitle += "  "
		}
		subtitle += fmt.Sprintf("%s=%d", c.Label, counts[c.Value])
	}

	hm := newChipHeatMap(title, subtitle, rows, cols, opts.VisualMap{
		Type:   "piecewise",
		Show:   opts.Bool(true),
		Pieces: pieces,
	})
	hm.AddSeries(title, data)
	p.charts = append(p.charts, hm)
}

// AddValueMap adds a dense continuous heat map clamped to [lo, hi].
// Non-finite cells are left empty; JSON has no encoding for them.
func (p *Page) AddValueMap(title string, m *pixmap.Map, lo, hi float64) {
	rows, cols := m.Dims()
	data := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, v}})
		}
	}
	hm := newChipHeatMap(title, "", rows, cols, opts.VisualMap{
		Calculable: opts.Bool(true),
		Show:       opts.Bool(true),
		Min:        float32(lo),
		Max:        float32(hi),
		InRange:    &opts.VisualMapInRange{Color: viridis},
	})
	hm.AddSeries(title, data)
	p.charts = append(p.charts, hm)
}

// AddCounts adds a labelled bar chart.
func (p *Page) AddCounts(title string, counts []Count) {
	x := make([]string, len(counts))
	y := make([]opts.BarData, len(counts))
	for i, c := range counts {
		x[i] = c.Name
		y[i] = opts.BarData{Value: c.Value}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("pixels", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	p.charts = append(p.charts, bar)
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(p.title)
	page.AddCharts(p.charts...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

// Save renders the page to path.
func (p *Page) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := p.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
