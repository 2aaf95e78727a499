package xtalk

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
	"github.com/pixlab/bumpcheck/internal/report"
	"github.com/pixlab/bumpcheck/internal/security"
)

// ReportFile is the HTML report covering every chip of a run.
const ReportFile = "xtalk_report.html"

// Options configures an xtalk run over one or more chips.
type Options struct {
	// Same, Coupled and Uncoupled are the PixelAlive files for injection
	// types 1, 5 and 6.
	Same      string
	Coupled   string
	Uncoupled string
	// Locator supplies board, optical group and hybrid; Chip is taken from
	// Chips.
	Locator    histio.Locator
	Chips      []int
	Module     string
	Thresholds Thresholds
	OutDir     string
	PlotSize   plotting.Size
	HTML       bool
}

// Summary is the catalogue record of one chip.
type Summary struct {
	Chip       int        `json:"chip"`
	Thresholds Thresholds `json:"thresholds"`
	Dead       int        `json:"dead"`
	Suspicious int        `json:"suspicious"`
	Confirmed  int        `json:"confirmed"`
}

// ChipOutput is the result for one chip.
type ChipOutput struct {
	Result  *Result
	Summary Summary
}

// Output is everything a run produced.
type Output struct {
	Chips []ChipOutput
	Files []string
}

type scanFiles struct {
	same, coupled, uncoupled *histio.File
}

func openScans(opts Options) (*scanFiles, error) {
	var s scanFiles
	var err error
	if s.same, err = histio.Open(opts.Same); err != nil {
		return nil, err
	}
	if s.coupled, err = histio.Open(opts.Coupled); err != nil {
		s.close()
		return nil, err
	}
	if s.uncoupled, err = histio.Open(opts.Uncoupled); err != nil {
		s.close()
		return nil, err
	}
	return &s, nil
}

func (s *scanFiles) close() {
	for _, f := range []*histio.File{s.same, s.coupled, s.uncoupled} {
		if f != nil {
			f.Close()
		}
	}
}

func (s *scanFiles) read(loc histio.Locator) (eff1, eff5, eff6 *pixmap.Map, err error) {
	if eff1, err = s.same.ScanMap(loc, histio.ScanPixelAlive); err != nil {
		return nil, nil, nil, fmt.Errorf("injection type 1: %w", err)
	}
	if eff5, err = s.coupled.ScanMap(loc, histio.ScanPixelAlive); err != nil {
		return nil, nil, nil, fmt.Errorf("injection type 5: %w", err)
	}
	if eff6, err = s.uncoupled.ScanMap(loc, histio.ScanPixelAlive); err != nil {
		return nil, nil, nil, fmt.Errorf("injection type 6: %w", err)
	}
	return eff1, eff5, eff6, nil
}

// Run classifies every requested chip and writes its outputs.
func Run(opts Options) (*Output, error) {
	if len(opts.Chips) == 0 {
		return nil, errors.New("no chips requested")
	}
	scans, err := openScans(opts)
	if err != nil {
		return nil, err
	}
	defer scans.close()

	out := &Output{}
	var page *report.Page
	if opts.HTML {
		page = report.NewPage(fmt.Sprintf("xtalk %s", opts.Module))
	}

	for _, chip := range opts.Chips {
		loc := opts.Locator
		loc.Chip = chip
		eff1, eff5, eff6, err := scans.read(loc)
		if err != nil {
			return nil, fmt.Errorf("chip %d: %w", chip, err)
		}
		rows, cols := eff1.Dims()
		monitoring.Debugf("chip %d: %d rows x %d columns", chip, rows, cols)

		res, err := Classify(eff1, eff5, eff6, opts.Thresholds)
		if err != nil {
			return nil, fmt.Errorf("chip %d: %w", chip, err)
		}
		co := ChipOutput{
			Result: res,
			Summary: Summary{
				Chip:       chip,
				Thresholds: opts.Thresholds,
				Dead:       len(res.Dead),
				Suspicious: len(res.SuspiciousPixels),
				Confirmed:  len(res.ConfirmedPixels),
			},
		}
		out.Chips = append(out.Chips, co)

		files, err := writeChip(opts, chip, eff1, eff5, eff6, res)
		out.Files = append(out.Files, files...)
		if err != nil {
			return nil, err
		}

		if page != nil {
			page.AddCounts(fmt.Sprintf("Chip %d", chip), []report.Count{
				{Name: "dead", Value: co.Summary.Dead},
				{Name: "suspicious", Value: co.Summary.Suspicious},
				{Name: "confirmed", Value: co.Summary.Confirmed},
			})
			page.AddCategoryMap(fmt.Sprintf("Disconnected channels of chip %d", chip), categories(res), []report.Category{
				{Value: 0, Label: "connected", Color: plotting.White, Skip: true},
				{Value: 1, Label: "suspicious", Color: plotting.Orange},
				{Value: 2, Label: "confirmed", Color: plotting.Red},
			})
		}

		monitoring.Logger().Info().
			Str("analysis", "xtalk").
			Int("chip", chip).
			Float64("alive_eff", opts.Thresholds.Alive).
			Float64("coupled_eff", opts.Thresholds.Coupled).
			Float64("uncoupled_eff", opts.Thresholds.Uncoupled).
			Int("dead", co.Summary.Dead).
			Int("suspicious", co.Summary.Suspicious).
			Int("confirmed", co.Summary.Confirmed).
			Msg("xtalk chip complete")
	}

	if page != nil {
		htmlPath := filepath.Join(opts.OutDir, ReportFile)
		if err := page.Save(htmlPath); err != nil {
			monitoring.Warnf("xtalk: %v", err)
		} else {
			out.Files = append(out.Files, htmlPath)
		}
	}
	return out, nil
}

// categories merges the two maps: 1 suspicious, 2 confirmed.
func categories(res *Result) *pixmap.Map {
	return res.Confirmed.Apply(func(r, c int, v float64) float64 {
		if v != 0 {
			return 2
		}
		return res.Suspicious.At(r, c)
	})
}

func writeChip(opts Options, chip int, eff1, eff5, eff6 *pixmap.Map, res *Result) ([]string, error) {
	var files []string

	rootPath := filepath.Join(opts.OutDir, fmt.Sprintf("h_missing2dC%d.root", chip))
	err := histio.WriteMaps(rootPath,
		histio.NamedMap{Name: "h_confirmed2D", Title: fmt.Sprintf("confirmed disconnected channels of chip %d", chip), Map: res.Confirmed},
		histio.NamedMap{Name: "h_suspicious2D", Title: fmt.Sprintf("suspicious channels of chip %d", chip), Map: res.Suspicious},
	)
	if err != nil {
		return files, err
	}
	files = append(files, rootPath)

	csvPath := filepath.Join(opts.OutDir, fmt.Sprintf("xtalk_chip%d.csv", chip))
	err = report.WritePixelSetsCSV(csvPath,
		report.PixelSet{Label: "confirmed", Pixels: res.ConfirmedPixels},
		report.PixelSet{Label: "suspicious", Pixels: res.SuspiciousPixels},
		report.PixelSet{Label: "dead", Pixels: res.Dead},
	)
	if err != nil {
		return files, err
	}
	files = append(files, csvPath)

	effRange := plotting.MapOptions{Min: plotting.Float(0), Max: plotting.Float(1), ZLabel: "efficiency", Size: opts.PlotSize}
	plots := []struct {
		name string
		draw func(string) error
	}{
		{fmt.Sprintf("%s_pixelalive_%d.png", opts.Module, chip), func(p string) error {
			o := effRange
			o.Title = fmt.Sprintf("Efficiency when injecting in same pixel of chip %d", chip)
			return plotting.HeatMap(eff1, o, p)
		}},
		{fmt.Sprintf("%s_eff_coupled_%d.png", opts.Module, chip), func(p string) error {
			o := effRange
			o.Title = fmt.Sprintf("Efficiency when injecting in coupled pixel of chip %d", chip)
			return plotting.HeatMap(eff5, o, p)
		}},
		{fmt.Sprintf("%s_eff_uncoupled_%d.png", opts.Module, chip), func(p string) error {
			o := effRange
			o.Title = fmt.Sprintf("Efficiency when injecting in uncoupled pixel of chip %d", chip)
			return plotting.HeatMap(eff6, o, p)
		}},
		{fmt.Sprintf("%s_suspicious2D_%d.png", opts.Module, chip), func(p string) error {
			return plotting.BinaryMap(res.Suspicious, plotting.Orange, fmt.Sprintf("Suspicious channels of chip %d", chip), p, opts.PlotSize)
		}},
		{fmt.Sprintf("%s_confirmed2D_chip%d.png", opts.Module, chip), func(p string) error {
			return plotting.BinaryMap(res.Confirmed, plotting.Red, fmt.Sprintf("Confirmed disconnected channels of chip %d", chip), p, opts.PlotSize)
		}},
	}
	for _, pl := range plots {
		path, err := security.OutputPath(opts.OutDir, pl.name)
		if err != nil {
			return files, err
		}
		if err := pl.draw(path); err != nil {
			monitoring.Warnf("xtalk: %v", err)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}
