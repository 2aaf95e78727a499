package xray

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/pixlab/bumpcheck/internal/chipmask"
	"github.com/pixlab/bumpcheck/internal/fit"
	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
	"github.com/pixlab/bumpcheck/internal/report"
	"github.com/pixlab/bumpcheck/internal/security"
)

// MissingMapName is the histogram the binary map is stored under.
const MissingMapName = "MissingMap"

// Options configures an xray run.
type Options struct {
	// SCurve holds the threshold, noise and ToT scans.
	SCurve string
	// XRay holds the PixelAlive occupancy taken under X-ray illumination.
	XRay string
	// Mask is the chip's CMSIT_RD53 pixel configuration.
	Mask    string
	Locator histio.Locator
	// Rows and Cols give the chip geometry. Zero takes it from the
	// occupancy map.
	Rows     int
	Cols     int
	Module   string
	Params   Params
	OutDir   string
	PlotSize plotting.Size
	HTML     bool
}

// Inputs are the maps and counters read from the input files.
type Inputs struct {
	Threshold     *pixmap.Map
	Noise         *pixmap.Map
	ToT           *pixmap.Map
	ReadoutErrors float64
	FitErrors     float64

	Occupancy         *pixmap.Map
	ToTXRay           *pixmap.Map
	ReadoutErrorsXRay float64

	Mask *pixmap.Map
}

// Result is the analysis of one chip.
type Result struct {
	Hits *pixmap.Map
	// Codes holds the category of every pixel.
	Codes *pixmap.Map
	// Binary keeps only the missing and low-occupancy codes.
	Binary  *pixmap.Map
	Missing []pixmap.Pixel
	Low     []pixmap.Pixel
	Summary Summary
}

// Output is everything a run produced.
type Output struct {
	Inputs *Inputs
	Result *Result
	Files  []string
}

// ReadInputs loads the scans and the pixel mask.
func ReadInputs(opts Options) (*Inputs, error) {
	in := &Inputs{}
	loc := opts.Locator

	sf, err := histio.Open(opts.SCurve)
	if err != nil {
		return nil, err
	}
	defer sf.Close()
	if in.Threshold, err = sf.ScanMap(loc, histio.ScanThreshold); err != nil {
		return nil, err
	}
	if in.Noise, err = sf.ScanMap(loc, histio.ScanNoise); err != nil {
		return nil, err
	}
	if in.ToT, err = sf.ScanMap(loc, histio.ScanToT); err != nil {
		return nil, err
	}
	if in.ReadoutErrors, err = sf.ScanEntries(loc, histio.ScanReadoutErrors); err != nil {
		return nil, err
	}
	if in.FitErrors, err = sf.ScanEntries(loc, histio.ScanFitErrors); err != nil {
		return nil, err
	}

	xf, err := histio.Open(opts.XRay)
	if err != nil {
		return nil, err
	}
	defer xf.Close()
	if in.Occupancy, err = xf.ScanMap(loc, histio.ScanPixelAlive); err != nil {
		return nil, err
	}
	if in.ToTXRay, err = xf.ScanMap(loc, histio.ScanToT); err != nil {
		return nil, err
	}
	if in.ReadoutErrorsXRay, err = xf.ScanEntries(loc, histio.ScanReadoutErrors); err != nil {
		return nil, err
	}

	rows, cols := in.Occupancy.Dims()
	if opts.Rows > 0 && opts.Cols > 0 {
		if rows != opts.Rows || cols != opts.Cols {
			return nil, fmt.Errorf("%w: occupancy of chip %d is %dx%d, chip is %dx%d",
				pixmap.ErrShapeMismatch, loc.Chip, rows, cols, opts.Rows, opts.Cols)
		}
	}
	if in.Mask, err = chipmask.Load(opts.Mask, rows, cols); err != nil {
		return nil, err
	}
	if err := pixmap.CheckShape(in.Occupancy, in.ToTXRay, in.Threshold, in.Noise, in.ToT, in.Mask); err != nil {
		return nil, err
	}
	return in, nil
}

// Analyze classifies the chip from already loaded inputs.
func Analyze(in *Inputs, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if in.Occupancy == nil || in.Mask == nil {
		return nil, errors.New("occupancy and mask are required")
	}
	hits := Hits(in.Occupancy, p.Triggers, p.BunchCrossings)
	codes, err := Classify(hits, in.Mask, p.ThrMissing, p.ThrStrange)
	if err != nil {
		return nil, err
	}
	s := Summarize(codes, in.Mask, p)
	s.FitErrors = in.FitErrors
	s.ReadoutErrors = in.ReadoutErrors
	s.ReadoutErrorsXRay = in.ReadoutErrorsXRay
	return &Result{
		Hits:    hits,
		Codes:   codes,
		Binary:  Binarize(codes),
		Missing: codes.Where(pixmap.Equal(Missing)),
		Low:     codes.Where(pixmap.Equal(LowOccupancy)),
		Summary: s,
	}, nil
}

// Run reads the inputs, classifies the chip and writes every output.
func Run(opts Options) (*Output, error) {
	in, err := ReadInputs(opts)
	if err != nil {
		return nil, err
	}
	res, err := Analyze(in, opts.Params)
	if err != nil {
		return nil, err
	}
	res.Summary.Module = opts.Module
	res.Summary.Chip = opts.Locator.Chip

	out := &Output{Inputs: in, Result: res}

	rootPath := filepath.Join(opts.OutDir, fmt.Sprintf("xrayroot%d.root", opts.Locator.Chip))
	if err := histio.WriteMaps(rootPath, histio.NamedMap{Name: MissingMapName, Title: "Missing Map", Map: res.Binary}); err != nil {
		return nil, err
	}
	out.Files = append(out.Files, rootPath)

	csvPath := filepath.Join(opts.OutDir, fmt.Sprintf("xray_chip%d.csv", opts.Locator.Chip))
	err = report.WritePixelSetsCSV(csvPath,
		report.PixelSet{Label: "missing", Pixels: res.Missing},
		report.PixelSet{Label: "low_occupancy", Pixels: res.Low},
	)
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files, csvPath)

	out.Files = append(out.Files, writePlots(opts, in, res)...)

	if opts.HTML {
		if path, err := writeReport(opts, res); err != nil {
			monitoring.Warnf("xray: %v", err)
		} else {
			out.Files = append(out.Files, path)
		}
	}

	s := res.Summary
	monitoring.Logger().Info().
		Str("analysis", "xray").
		Str("module", s.Module).
		Int("chip", s.Chip).
		Int("masked", s.Masked).
		Int("missing", s.Missing).
		Float64("missing_percent", s.MissingPercent).
		Int("low_occupancy", s.LowOccupancy).
		Float64("fit_errors", s.FitErrors).
		Msg("xray complete")
	return out, nil
}

// Levels are the colours of the missing-bump map.
func Levels() []plotting.Level {
	return []plotting.Level{
		{Value: LowOccupancy, Color: plotting.Orange, Label: "Low Occ"},
		{Value: Masked, Color: plotting.Blue, Label: "Masked"},
		{Value: Missing, Color: plotting.Red, Label: "Missing"},
		{Value: Error, Color: plotting.White},
		{Value: Good, Color: plotting.White, Label: "Good"},
	}
}

type namedPlot struct {
	name string
	draw func(path string) error
}

func writePlots(opts Options, in *Inputs, res *Result) []string {
	p := opts.Params
	el := p.ElConv()
	bias := p.Bias
	chip := opts.Locator.Chip
	size := opts.PlotSize

	noiseEl := in.Noise.Scale(el)
	thrEl := in.Threshold.Scale(el)

	plots := []namedPlot{
		{bias + "V_Noise_Map.png", func(path string) error {
			return plotting.HeatMap(noiseEl, plotting.MapOptions{Title: "Noise", ZLabel: "electrons", Max: plotting.Float(p.NoiseMax()), Size: size}, path)
		}},
		{bias + "V_Noise_Hist.png", func(path string) error {
			return distribution(noiseEl, 0, p.NoiseMax(), p.NoiseStep(), p.Fit, plotting.HistOptions{
				Label: "Noise", XLabel: "electrons", YLabel: "entries",
				LogY: true, YMin: 0.1, YMax: 1e4,
			}, path)
		}},
		{bias + "V_Threshold_Map.png", func(path string) error {
			return plotting.HeatMap(thrEl, plotting.MapOptions{Title: "Threshold", ZLabel: "electrons", Min: plotting.Float(p.ThresholdVMin), Max: plotting.Float(p.ThrMax()), Size: size}, path)
		}},
		{bias + "V_ToT_Map.png", func(path string) error {
			return plotting.HeatMap(in.ToT, plotting.MapOptions{Title: "ToT", ZLabel: "ToT", Size: size}, path)
		}},
		{bias + "V_ToT_Map_XRay.png", func(path string) error {
			return plotting.HeatMap(in.ToTXRay, plotting.MapOptions{Title: "ToT (X-ray)", ZLabel: "ToT", Size: size}, path)
		}},
		{bias + "V_Threshold_Hist.png", func(path string) error {
			return distribution(thrEl, 0, p.ThrMax(), p.ThrStep(), p.Fit, plotting.HistOptions{
				Label: "Threshold", XLabel: "electrons", YLabel: "entries",
				LogY: true, YMin: 0.1, YMax: p.HistYMax,
			}, path)
		}},
		{bias + "V_Hist_Thr_" + p.CutLabel() + ".png", func(path string) error {
			return distribution(res.Hits, 0, 3*p.HitsVMax, p.HitsStep, false, plotting.HistOptions{
				Label: "Hits/pixel", XLabel: "Number of total Hits/pixel", YLabel: "entries",
				LogY: true, Markers: []float64{p.ThrMissing, p.ThrStrange}, MarkerHeight: 2e3,
			}, path)
		}},
		{fmt.Sprintf("chip_%d_XRay_Hits_Map.png", chip), func(path string) error {
			return plotting.HeatMap(res.Hits, plotting.MapOptions{Title: "X-ray hits", ZLabel: "Hits", Max: plotting.Float(p.HitsVMax), Size: size}, path)
		}},
		{bias + "_XRay_Hits_Map_zoom.png", func(path string) error {
			rows, cols := res.Hits.Dims()
			zoom, err := res.Hits.Window(0, min(35, rows), 0, min(15, cols))
			if err != nil {
				return err
			}
			return plotting.HeatMap(zoom, plotting.MapOptions{Title: "X-ray hits (zoom)", ZLabel: "Hits", Max: plotting.Float(p.HitsVMax), Size: size}, path)
		}},
		{fmt.Sprintf("chip_%d_Missing_Bumps_Thr_%s.png", chip, p.CutLabel()), func(path string) error {
			hits := plotting.NewMapPanel(res.Hits, plotting.MapOptions{
				Title:  fmt.Sprintf("Hit Map (Z Lim: %g hits)", p.HitsVMax),
				ZLabel: "Hits",
				Max:    plotting.Float(p.HitsVMax),
			})
			missing, err := plotting.NewCategoryPanel(res.Codes, Levels(), "Missing Map")
			if err != nil {
				return err
			}
			return plotting.Render(path, plotting.SizeInches(13, 7.5), res.Summary.Title(), hits, missing)
		}},
	}

	var files []string
	for _, pl := range plots {
		path, err := security.OutputPath(opts.OutDir, pl.name)
		if err != nil {
			monitoring.Warnf("xray: %v", err)
			continue
		}
		if err := pl.draw(path); err != nil {
			monitoring.Warnf("xray: %s: %v", pl.name, err)
			continue
		}
		files = append(files, path)
	}
	return files
}

// distribution histograms m and, when requested, overlays a Gaussian fit.
// A failed fit is logged and the histogram is drawn without it.
func distribution(m *pixmap.Map, lo, hi, step float64, withFit bool, opts plotting.HistOptions, path string) error {
	h, err := fit.NewHist(m.Values(), lo, hi, step)
	if err != nil {
		return err
	}
	if withFit {
		g, err := fit.FitHist(h)
		if err != nil {
			monitoring.Warnf("%s fit: %v", opts.Label, err)
		} else {
			opts.Fit = &g
			opts.FitLabel = fmt.Sprintf("FIT: μ = %.1f e⁻ σ = %.1f e⁻", g.Mean, math.Abs(g.Sigma))
		}
	}
	return plotting.Histogram(h, opts, path)
}

// ReportFile is the name of the HTML report of a chip.
func ReportFile(chip int) string {
	return fmt.Sprintf("xray_chip%d_report.html", chip)
}

func writeReport(opts Options, res *Result) (string, error) {
	s := res.Summary
	page := report.NewPage(fmt.Sprintf("xray %s chip %d", opts.Module, opts.Locator.Chip))
	page.AddCounts("Pixel categories", []report.Count{
		{Name: "masked", Value: s.Check.Masked},
		{Name: "missing", Value: s.Check.Missing},
		{Name: "low occupancy", Value: s.Check.LowOccupancy},
		{Name: "errors", Value: s.Check.Errors},
		{Name: "good", Value: s.Check.Good},
	})
	var cats []report.Category
	for _, l := range Levels() {
		cats = append(cats, report.Category{
			Value: l.Value,
			Label: l.Label,
			Color: l.Color,
			Skip:  l.Value == Good || l.Value == Error,
		})
	}
	page.AddCategoryMap("Missing Map", res.Codes, cats)
	page.AddValueMap("X-ray hits", res.Hits, 0, opts.Params.HitsVMax)
	path := filepath.Join(opts.OutDir, ReportFile(opts.Locator.Chip))
	return path, page.Save(path)
}
