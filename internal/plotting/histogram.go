package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pixlab/bumpcheck/internal/fit"
)

// HistOptions controls how a distribution is drawn.
type HistOptions struct {
	Title  string
	XLabel string
	YLabel string
	// Label is the legend entry of the histogram itself.
	Label string
	LogY  bool
	// YMin and YMax fix the y axis when positive.
	YMin, YMax float64
	// Fit, when set, is overlaid in red.
	Fit      *fit.Gaussian
	FitLabel string
	// Markers draws dashed vertical lines, used for cut values.
	Markers      []float64
	MarkerHeight float64
	Size         Size
}

// NewHistPlot builds a step histogram plot.
func NewHistPlot(h *fit.Hist, opts HistOptions) (*plot.Plot, error) {
	if h == nil || len(h.Counts) == 0 {
		return nil, errors.New("empty histogram")
	}

	bins := make([]plotter.HistogramBin, len(h.Counts))
	for i, c := range h.Counts {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: c}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     h.Edges[1] - h.Edges[0],
		LineStyle: draw.LineStyle{Color: Black, Width: vg.Points(1)},
		LogY:      opts.LogY,
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Legend.Top = true
	p.Add(hist)
	if opts.Label != "" {
		p.Legend.Add(opts.Label, hist)
	}

	floor := opts.YMin
	if opts.LogY && floor <= 0 {
		floor = 0.1
	}

	if opts.Fit != nil {
		centers := h.Centers()
		x0, x1 := centers[0], centers[len(centers)-1]
		const n = 500
		pts := make(plotter.XYs, n)
		for i := range pts {
			x := x0 + (x1-x0)*float64(i)/float64(n-1)
			y := opts.Fit.Eval(x)
			if opts.LogY && y < floor {
				y = floor
			}
			pts[i] = plotter.XY{X: x, Y: y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create fit line: %w", err)
		}
		line.Color = Red
		line.Width = vg.Points(1.5)
		p.Add(line)
		label := opts.FitLabel
		if label == "" {
			label = "FIT: " + opts.Fit.String()
		}
		p.Legend.Add(label, line)
	}

	for _, x := range opts.Markers {
		top := opts.MarkerHeight
		if top <= 0 {
			top = 2e3
		}
		line, err := plotter.NewLine(plotter.XYs{{X: x, Y: floor}, {X: x, Y: top}})
		if err != nil {
			return nil, fmt.Errorf("failed to create marker at %g: %w", x, err)
		}
		line.LineStyle = draw.LineStyle{
			Color:  color.Color(Red),
			Width:  vg.Points(2),
			Dashes: []vg.Length{vg.Points(6), vg.Points(4)},
		}
		p.Add(line)
	}

	p.X.Min = h.Edges[0]
	p.X.Max = h.Edges[len(h.Edges)-1]
	if opts.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Min = floor
		if p.Y.Max <= floor {
			p.Y.Max = floor * 10
		}
	} else if opts.YMin > 0 {
		p.Y.Min = opts.YMin
	}
	if opts.YMax > 0 {
		p.Y.Max = opts.YMax
	}
	return p, nil
}

// Histogram writes a step histogram to file.
func Histogram(h *fit.Hist, opts HistOptions, file string) error {
	p, err := NewHistPlot(h, opts)
	if err != nil {
		return fmt.Errorf("failed to plot %s: %w", file, err)
	}
	size := opts.Size.orDefault(HistSize)
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	if err := p.Save(size.Width, size.Height, file); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
