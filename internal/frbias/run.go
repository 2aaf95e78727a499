package frbias

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
	"github.com/pixlab/bumpcheck/internal/report"
)

// Options configures one frbias run.
type Options struct {
	// Forward and Reverse are SCurve ROOT files.
	Forward string
	Reverse string
	Locator histio.Locator
	Cut     float64
	// OutDir receives every output file.
	OutDir   string
	PlotSize plotting.Size
	HTML     bool
}

// Summary is the catalogue record of a run.
type Summary struct {
	Chip    int     `json:"chip"`
	Cut     float64 `json:"cut"`
	Missing int     `json:"missing"`
	Pixels  int     `json:"pixels"`
}

// Output is everything a run produced.
type Output struct {
	Result  *Result
	Summary Summary
	Files   []string
}

func readScans(path string, loc histio.Locator) (thr, noise *pixmap.Map, err error) {
	f, err := histio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	if thr, err = f.ScanMap(loc, histio.ScanThreshold); err != nil {
		return nil, nil, err
	}
	if noise, err = f.ScanMap(loc, histio.ScanNoise); err != nil {
		return nil, nil, err
	}
	return thr, noise, nil
}

// ReportFile is the name of the HTML report of a chip.
func ReportFile(chip int) string {
	return fmt.Sprintf("frbias_chip%d_report.html", chip)
}

// FormatCut renders the cut the way it appears in file names, e.g. "5".
func FormatCut(cut float64) string {
	return strconv.FormatFloat(cut, 'g', -1, 64)
}

// Run reads both scans, classifies the pixels and writes the plots, the
// histogram file, the CSV pixel list and optionally the HTML report.
func Run(opts Options) (*Output, error) {
	fThr, fNoise, err := readScans(opts.Forward, opts.Locator)
	if err != nil {
		return nil, fmt.Errorf("forward bias scan: %w", err)
	}
	rThr, rNoise, err := readScans(opts.Reverse, opts.Locator)
	if err != nil {
		return nil, fmt.Errorf("reverse bias scan: %w", err)
	}

	res, err := Analyze(fThr, fNoise, rThr, rNoise, opts.Cut)
	if err != nil {
		return nil, err
	}
	out := &Output{
		Result: res,
		Summary: Summary{
			Chip:    opts.Locator.Chip,
			Cut:     opts.Cut,
			Missing: res.Count(),
			Pixels:  res.Missing.Len(),
		},
	}

	rootPath := filepath.Join(opts.OutDir, "histograms.root")
	err = histio.WriteMaps(rootPath,
		histio.NamedMap{Name: "delta_thr", Title: "forward - reverse threshold", Map: res.DeltaThr},
		histio.NamedMap{Name: "delta_ns", Title: "forward - reverse noise", Map: res.DeltaNoise},
		histio.NamedMap{Name: "missing_map", Title: "missing map", Map: res.Missing},
	)
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files, rootPath)

	pixels := res.Pixels()
	csvPath := filepath.Join(opts.OutDir, "frbias_missing.csv")
	if err := report.WritePixelsCSV(csvPath, pixels, "missing"); err != nil {
		return nil, err
	}
	out.Files = append(out.Files, csvPath)

	cut := FormatCut(opts.Cut)
	plots := []struct {
		file string
		draw func(string) error
	}{
		{
			file: "thr" + cut + "missing_map.png",
			draw: func(p string) error {
				title := fmt.Sprintf("missing map, |Δ| <= %s (chip %d)", cut, opts.Locator.Chip)
				return plotting.BinaryMap(res.Missing, plotting.Red, title, p, opts.PlotSize)
			},
		},
		{
			file: "delta_thr.png",
			draw: func(p string) error {
				return plotting.HeatMap(res.DeltaThr, plotting.MapOptions{Title: "Δ threshold (forward - reverse)", ZLabel: "electrons", Size: opts.PlotSize}, p)
			},
		},
		{
			file: "delta_ns.png",
			draw: func(p string) error {
				return plotting.HeatMap(res.DeltaNoise, plotting.MapOptions{Title: "Δ noise (forward - reverse)", ZLabel: "electrons", Size: opts.PlotSize}, p)
			},
		},
	}
	for _, pl := range plots {
		path := filepath.Join(opts.OutDir, pl.file)
		if err := pl.draw(path); err != nil {
			monitoring.Warnf("frbias: %v", err)
			continue
		}
		out.Files = append(out.Files, path)
	}

	if opts.HTML {
		page := report.NewPage(fmt.Sprintf("frbias chip %d", opts.Locator.Chip))
		page.AddCounts("Forward/reverse bias", []report.Count{
			{Name: "missing", Value: out.Summary.Missing},
			{Name: "connected", Value: out.Summary.Pixels - out.Summary.Missing},
		})
		page.AddCategoryMap("Missing map", res.Missing, []report.Category{
			{Value: 0, Label: "connected", Color: plotting.White, Skip: true},
			{Value: 1, Label: "missing", Color: plotting.Red},
		})
		page.AddValueMap("Δ threshold", res.DeltaThr, -50, 50)
		htmlPath := filepath.Join(opts.OutDir, ReportFile(opts.Locator.Chip))
		if err := page.Save(htmlPath); err != nil {
			monitoring.Warnf("frbias: %v", err)
		} else {
			out.Files = append(out.Files, htmlPath)
		}
	}

	monitoring.Logger().Info().
		Str("analysis", "frbias").
		Int("chip", opts.Locator.Chip).
		Float64("cut", opts.Cut).
		Int("missing", out.Summary.Missing).
		Msg("frbias complete")
	for _, p := range pixels {
		monitoring.Debugf("missing pixel %s", p)
	}
	return out, nil
}
