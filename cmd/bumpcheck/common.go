package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pixlab/bumpcheck/internal/config"
	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/pixmap"
	"github.com/pixlab/bumpcheck/internal/plotting"
	"github.com/pixlab/bumpcheck/internal/security"
	"github.com/pixlab/bumpcheck/internal/store"
	"github.com/pixlab/bumpcheck/internal/version"
)

const defaultOutDir = "results"

// commonFlags are shared by every analysis command.
type commonFlags struct {
	fs      *flag.FlagSet
	config  *string
	out     *string
	module  *string
	chip    *int
	board   *int
	optical *int
	hybrid  *int
	db      *string
	verbose *bool
	noHTML  *bool
}

func newCommonFlags(name string) *commonFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &commonFlags{
		fs:      fs,
		config:  fs.String("config", "", "Analysis config file (JSON)"),
		out:     fs.String("out", defaultOutDir, "Output directory"),
		module:  fs.String("module", "", "Module name (overrides config)"),
		chip:    fs.Int("chip", 0, "Chip id (overrides config)"),
		board:   fs.Int("board", 0, "Board id (overrides config)"),
		optical: fs.Int("optical-group", 0, "Optical group id (overrides config)"),
		hybrid:  fs.Int("hybrid", 0, "Hybrid id (overrides config)"),
		db:      fs.String("db", "", "Run catalogue path; empty disables recording"),
		verbose: fs.Bool("v", false, "Enable debug logging"),
		noHTML:  fs.Bool("no-html", false, "Skip the HTML report"),
	}
}

// parse parses args, applies -v and returns the merged config. Flags given
// explicitly take precedence over the config file.
func (c *commonFlags) parse(args []string) (*config.AnalysisConfig, error) {
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if *c.verbose {
		monitoring.SetLevel(zerolog.DebugLevel)
	}

	cfg := config.DefaultAnalysisConfig()
	if *c.config != "" {
		loaded, err := config.LoadAnalysisConfig(*c.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := c.setFlags()
	if set["module"] {
		v := *c.module
		cfg.Module = &v
	}
	ints := []struct {
		name string
		src  *int
		dst  **int
	}{
		{"chip", c.chip, &cfg.Chip},
		{"board", c.board, &cfg.Board},
		{"optical-group", c.optical, &cfg.OpticalGroup},
		{"hybrid", c.hybrid, &cfg.Hybrid},
	}
	for _, f := range ints {
		if set[f.name] {
			v := *f.src
			*f.dst = &v
		}
	}
	if *c.noHTML {
		v := false
		cfg.HTMLReport = &v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commonFlags) setFlags() map[string]bool {
	set := make(map[string]bool)
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func (c *commonFlags) isSet(name string) bool {
	return c.setFlags()[name]
}

func locator(cfg *config.AnalysisConfig) histio.Locator {
	return histio.Locator{
		Board:        cfg.GetBoard(),
		OpticalGroup: cfg.GetOpticalGroup(),
		Hybrid:       cfg.GetHybrid(),
		Chip:         cfg.GetChip(),
	}
}

func plotSize(cfg *config.AnalysisConfig) plotting.Size {
	return plotting.SizeInches(cfg.GetPlotWidthInches(), cfg.GetPlotHeightInches())
}

// outputDir creates the output directory, nested under the module name when
// one is set.
func outputDir(base, module string) (string, error) {
	if module == "" {
		return base, nil
	}
	return security.EnsureOutputDir(base, module)
}

func parseChips(s string) ([]int, error) {
	var chips []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid chip %q: %w", part, err)
		}
		chips = append(chips, n)
	}
	if len(chips) == 0 {
		return nil, fmt.Errorf("no chips in %q", s)
	}
	return chips, nil
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("flag -%s is not defined for %s", name, fs.Name())
		}
		if f.Value.String() == "" {
			return fmt.Errorf("-%s is required", name)
		}
	}
	return nil
}

func toPixels(pixels []pixmap.Pixel, category string) []store.RunPixel {
	out := make([]store.RunPixel, len(pixels))
	for i, p := range pixels {
		out[i] = store.RunPixel{Row: p.Row, Col: p.Col, Category: category}
	}
	return out
}

// record stores a run in the catalogue at dbPath. An empty path disables
// recording.
func record(dbPath string, run *store.Run, params, inputs, summary interface{}, pixels []store.RunPixel) error {
	if dbPath == "" {
		return nil
	}
	var err error
	if run.Params, err = json.Marshal(params); err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	if run.Inputs, err = json.Marshal(inputs); err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}
	if run.Summary, err = json.Marshal(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	run.Version = version.Version

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.RecordRun(run, pixels); err != nil {
		return err
	}
	monitoring.Logger().Info().
		Str("run_id", run.ID).
		Str("kind", run.Kind).
		Int("pixels", len(pixels)).
		Msg("run recorded")
	return nil
}
