package compare

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
	"github.com/pixlab/bumpcheck/internal/report"
	"github.com/pixlab/bumpcheck/internal/security"
)

// Default histogram names written by the three analyses.
const (
	DefaultXRayHist   = "MissingMap"
	DefaultXTalkHist  = "h_confirmed2D"
	DefaultFRBiasHist = "missing_map"
	DefaultBase       = "histogram"
)

// Options configures a comparison run.
type Options struct {
	XRayFile   string
	XTalkFile  string
	FRBiasFile string
	XRayHist   string
	XTalkHist  string
	FRBiasHist string
	// Module and Chip name the output ROOT file, {module}C{chip}Comparison.root.
	Module string
	Chip   int
	OutDir string
	// Base prefixes every PNG: {base}_{category}.png.
	Base     string
	PlotSize plotting.Size
	HTML     bool
}

func (o Options) withDefaults() Options {
	if o.XRayHist == "" {
		o.XRayHist = DefaultXRayHist
	}
	if o.XTalkHist == "" {
		o.XTalkHist = DefaultXTalkHist
	}
	if o.FRBiasHist == "" {
		o.FRBiasHist = DefaultFRBiasHist
	}
	if o.Base == "" {
		o.Base = DefaultBase
	}
	return o
}

// Summary is the catalogue record of a comparison.
type Summary struct {
	Module  string         `json:"module"`
	Chip    int            `json:"chip"`
	XRay    int            `json:"xray_flagged"`
	XTalk   int            `json:"xtalk_flagged"`
	FRBias  int            `json:"frbias_flagged"`
	Counts  map[string]int `json:"counts"`
	Flagged int            `json:"flagged"`
}

// Output is everything a comparison produced.
type Output struct {
	Result  *Result
	Summary Summary
	Files   []string
}

func readMap(path, hist string) (*pixmap.Map, error) {
	f, err := histio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Map(hist)
}

// Run reads the three maps, compares them and writes the outputs.
func Run(opts Options) (*Output, error) {
	if strings.TrimSpace(opts.Module) == "" {
		return nil, errors.New("module name is required for the comparison file name")
	}
	opts = opts.withDefaults()
	inputs := []struct {
		what, file, hist string
		m                *pixmap.Map
	}{
		{what: "xray", file: opts.XRayFile, hist: opts.XRayHist},
		{what: "xtalk", file: opts.XTalkFile, hist: opts.XTalkHist},
		{what: "frbias", file: opts.FRBiasFile, hist: opts.FRBiasHist},
	}
	for i := range inputs {
		m, err := readMap(inputs[i].file, inputs[i].hist)
		if err != nil {
			return nil, fmt.Errorf("%s map: %w", inputs[i].what, err)
		}
		inputs[i].m = m
	}
	xray, xtalk, frbias := inputs[0].m, inputs[1].m, inputs[2].m

	res, err := Compare(xray, xtalk, frbias)
	if err != nil {
		return nil, err
	}

	s := Summary{
		Module: opts.Module,
		Chip:   opts.Chip,
		XRay:   xray.Count(pixmap.NonZero),
		XTalk:  xtalk.Count(pixmap.NonZero),
		FRBias: frbias.Count(pixmap.NonZero),
		Counts: make(map[string]int, len(res.Categories)),
	}
	for i, c := range res.Categories {
		s.Counts[c.Name] = res.Counts[i]
		s.Flagged += res.Counts[i]
	}
	out := &Output{Result: res, Summary: s}

	rootName := fmt.Sprintf("%sC%dComparison.root", opts.Module, opts.Chip)
	rootPath, err := security.OutputPath(opts.OutDir, rootName)
	if err != nil {
		return nil, err
	}
	maps := make([]histio.NamedMap, len(res.Categories))
	for i, c := range res.Categories {
		maps[i] = histio.NamedMap{Name: c.Name, Title: c.Label(), Map: res.Maps[i]}
	}
	if err := histio.WriteMaps(rootPath, maps...); err != nil {
		return nil, err
	}
	out.Files = append(out.Files, rootPath)

	sets := make([]report.PixelSet, len(res.Categories))
	for i, c := range res.Categories {
		sets[i] = report.PixelSet{Label: c.Label(), Pixels: res.Pixels(i)}
	}
	csvPath := filepath.Join(opts.OutDir, "comparison.csv")
	if err := report.WritePixelSetsCSV(csvPath, sets...); err != nil {
		return nil, err
	}
	out.Files = append(out.Files, csvPath)

	out.Files = append(out.Files, writePlots(opts, res)...)

	if opts.HTML {
		if path, err := writeReport(opts, res); err != nil {
			monitoring.Warnf("compare: %v", err)
		} else {
			out.Files = append(out.Files, path)
		}
	}

	ev := monitoring.Logger().Info().
		Str("analysis", "compare").
		Str("module", opts.Module).
		Int("chip", opts.Chip)
	for i, c := range res.Categories {
		ev = ev.Int(c.Name, res.Counts[i])
	}
	ev.Msg("comparison complete")
	return out, nil
}

func writePlots(opts Options, res *Result) []string {
	var files []string
	draw := func(name string, fn func(string) error) {
		path, err := security.OutputPath(opts.OutDir, name)
		if err == nil {
			err = fn(path)
		}
		if err != nil {
			monitoring.Warnf("compare: %s: %v", name, err)
			return
		}
		files = append(files, path)
	}
	for i, c := range res.Categories {
		m := res.Maps[i]
		draw(opts.Base+"_"+c.Name+".png", func(path string) error {
			return plotting.BinaryMap(m, c.Color, c.Name, path, opts.PlotSize)
		})
	}
	draw(opts.Base+"_categories.png", func(path string) error {
		title := fmt.Sprintf("missing bump overlap, %s chip %d", opts.Module, opts.Chip)
		return plotting.CategoryMap(res.Combined, Levels(), title, path, opts.PlotSize)
	})
	return files
}

// ReportFile is the name of the HTML report of a chip.
func ReportFile(chip int) string {
	return fmt.Sprintf("comparison_chip%d_report.html", chip)
}

func writeReport(opts Options, res *Result) (string, error) {
	page := report.NewPage(fmt.Sprintf("comparison %s chip %d", opts.Module, opts.Chip))
	counts := make([]report.Count, len(res.Categories))
	cats := []report.Category{{Value: 0, Label: "none", Color: plotting.White, Skip: true}}
	for i, c := range res.Categories {
		counts[i] = report.Count{Name: c.Label(), Value: res.Counts[i]}
		cats = append(cats, report.Category{Value: i + 1, Label: c.Label(), Color: c.Color})
	}
	page.AddCounts("Pixels per category", counts)
	page.AddCategoryMap("Overlap map", res.Combined, cats)
	path := filepath.Join(opts.OutDir, ReportFile(opts.Chip))
	return path, page.Save(path)
}
