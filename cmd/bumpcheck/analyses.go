package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixlab/bumpcheck/internal/compare"
	"github.com/pixlab/bumpcheck/internal/config"
	"github.com/pixlab/bumpcheck/internal/frbias"
	"github.com/pixlab/bumpcheck/internal/monitoring"
	"github.com/pixlab/bumpcheck/internal/store"
	"github.com/pixlab/bumpcheck/internal/toy"
	"github.com/pixlab/bumpcheck/internal/xray"
	"github.com/pixlab/bumpcheck/internal/xtalk"
)

func runFRBias(args []string) error {
	c := newCommonFlags("frbias")
	forward := c.fs.String("forward", "", "Forward bias SCurve ROOT file (required)")
	reverse := c.fs.String("reverse", "", "Reverse bias SCurve ROOT file (required)")
	cut := c.fs.Float64("cut", frbias.DefaultCut, "Missing cut on the (threshold, noise) shift")
	cfg, err := c.parse(args)
	if err != nil {
		return err
	}
	if err := required(c.fs, "forward", "reverse"); err != nil {
		return err
	}
	if !c.isSet("cut") {
		*cut = cfg.GetFRBiasCut()
	}
	outDir, err := outputDir(*c.out, cfg.GetModule())
	if err != nil {
		return err
	}

	opts := frbias.Options{
		Forward:  *forward,
		Reverse:  *reverse,
		Locator:  locator(cfg),
		Cut:      *cut,
		OutDir:   outDir,
		PlotSize: plotSize(cfg),
		HTML:     cfg.GetHTMLReport(),
	}
	out, err := frbias.Run(opts)
	if err != nil {
		return err
	}
	fmt.Printf("%d missing pixels (cut %s) written to %s\n", out.Summary.Missing, frbias.FormatCut(*cut), outDir)

	run := &store.Run{Kind: "frbias", Module: cfg.GetModule(), Chip: opts.Locator.Chip, OutputDir: outDir}
	inputs := map[string]string{"forward": *forward, "reverse": *reverse}
	return record(*c.db, run, map[string]float64{"cut": *cut}, inputs, out.Summary,
		toPixels(out.Result.Pixels(), "missing"))
}

func runXTalk(args []string) error {
	c := newCommonFlags("xtalk")
	same := c.fs.String("same", "", "PixelAlive file, injection type 1 (required)")
	coupled := c.fs.String("coupled", "", "PixelAlive file, injection type 5 (required)")
	uncoupled := c.fs.String("uncoupled", "", "PixelAlive file, injection type 6 (required)")
	chips := c.fs.String("chips", "", "Comma-separated chip ids (default: config, or -chip)")
	cfg, err := c.parse(args)
	if err != nil {
		return err
	}
	if err := required(c.fs, "same", "coupled", "uncoupled"); err != nil {
		return err
	}

	chipList := cfg.GetXTalkChips()
	switch {
	case *chips != "":
		if chipList, err = parseChips(*chips); err != nil {
			return err
		}
	case c.isSet("chip"):
		chipList = []int{cfg.GetChip()}
	}
	outDir, err := outputDir(*c.out, cfg.GetModule())
	if err != nil {
		return err
	}

	th := xtalk.Thresholds{
		Alive:     cfg.GetXTalkAliveEff(),
		Coupled:   cfg.GetXTalkCoupledEff(),
		Uncoupled: cfg.GetXTalkUncoupledEff(),
	}
	opts := xtalk.Options{
		Same:       *same,
		Coupled:    *coupled,
		Uncoupled:  *uncoupled,
		Locator:    locator(cfg),
		Chips:      chipList,
		Module:     cfg.GetModule(),
		Thresholds: th,
		OutDir:     outDir,
		PlotSize:   plotSize(cfg),
		HTML:       cfg.GetHTMLReport(),
	}
	out, err := xtalk.Run(opts)
	if err != nil {
		return err
	}

	inputs := map[string]string{"same": *same, "coupled": *coupled, "uncoupled": *uncoupled}
	for _, co := range out.Chips {
		s := co.Summary
		fmt.Printf("chip %d: %d confirmed, %d suspicious, %d dead\n", s.Chip, s.Confirmed, s.Suspicious, s.Dead)
		pixels := append(toPixels(co.Result.ConfirmedPixels, "confirmed"),
			toPixels(co.Result.SuspiciousPixels, "suspicious")...)
		run := &store.Run{Kind: "xtalk", Module: cfg.GetModule(), Chip: s.Chip, OutputDir: outDir}
		if err := record(*c.db, run, th, inputs, s, pixels); err != nil {
			return err
		}
	}
	return nil
}

func xrayParams(cfg *config.AnalysisConfig) xray.Params {
	return xray.Params{
		ThrMissing:     cfg.GetXRayThrMissing(),
		ThrStrange:     cfg.GetXRayThrStrange(),
		Bias:           cfg.GetXRayBias(),
		VRef:           cfg.GetXRayVRef(),
		Triggers:       cfg.GetXRayTriggers(),
		BunchCrossings: cfg.GetXRayBunchCrossings(),
		Fit:            cfg.GetXRayFit(),
		HitsVMax:       cfg.GetXRayHitsVMax(),
		HitsStep:       cfg.GetXRayHitsStep(),
		HistYMax:       cfg.GetXRayHistYMax(),
		ThresholdVMin:  cfg.GetXRayThresholdVMin(),
	}
}

func runXRay(args []string) error {
	c := newCommonFlags("xray")
	scurve := c.fs.String("scurve", "", "SCurve ROOT file (required)")
	xrayFile := c.fs.String("xray", "", "X-ray PixelAlive ROOT file (required)")
	mask := c.fs.String("mask", "", "CMSIT_RD53 pixel configuration of the chip (required)")
	thrMissing := c.fs.Float64("thr-missing", 0, "Hits below which an enabled pixel is missing")
	thrStrange := c.fs.Float64("thr-strange", 0, "Hits below which a pixel is low occupancy")
	bias := c.fs.String("bias", "", "Sensor bias in volts, used in file names")
	noFit := c.fs.Bool("no-fit", false, "Skip the Gaussian fits")
	cfg, err := c.parse(args)
	if err != nil {
		return err
	}
	if err := required(c.fs, "scurve", "xray", "mask"); err != nil {
		return err
	}

	p := xrayParams(cfg)
	if c.isSet("thr-missing") {
		p.ThrMissing = *thrMissing
	}
	if c.isSet("thr-strange") {
		p.ThrStrange = *thrStrange
	}
	if *bias != "" {
		p.Bias = *bias
	}
	if *noFit {
		p.Fit = false
	}
	if err := p.Validate(); err != nil {
		return err
	}
	outDir, err := outputDir(*c.out, cfg.GetModule())
	if err != nil {
		return err
	}

	opts := xray.Options{
		SCurve:   *scurve,
		XRay:     *xrayFile,
		Mask:     *mask,
		Locator:  locator(cfg),
		Rows:     cfg.GetRows(),
		Cols:     cfg.GetCols(),
		Module:   cfg.GetModule(),
		Params:   p,
		OutDir:   outDir,
		PlotSize: plotSize(cfg),
		HTML:     cfg.GetHTMLReport(),
	}
	out, err := xray.Run(opts)
	if err != nil {
		return err
	}
	res := out.Result
	if err := res.Summary.Print(os.Stdout); err != nil {
		return err
	}
	if err := xray.PrintMissing(os.Stdout, res.Missing); err != nil {
		return err
	}

	run := &store.Run{Kind: "xray", Module: opts.Module, Chip: opts.Locator.Chip, OutputDir: outDir}
	inputs := map[string]string{"scurve": *scurve, "xray": *xrayFile, "mask": *mask}
	pixels := append(toPixels(res.Missing, "missing"), toPixels(res.Low, "low_occupancy")...)
	return record(*c.db, run, p, inputs, res.Summary, pixels)
}

func runCompare(args []string) error {
	c := newCommonFlags("compare")
	xrayFile := c.fs.String("xray", "", "xray output, e.g. xrayroot12.root (required)")
	xtalkFile := c.fs.String("xtalk", "", "xtalk output, e.g. h_missing2dC12.root (required)")
	frbiasFile := c.fs.String("frbias", "", "frbias output, e.g. histograms.root (required)")
	base := c.fs.String("base", compare.DefaultBase, "Prefix of the per-category PNGs")
	cfg, err := c.parse(args)
	if err != nil {
		return err
	}
	if err := required(c.fs, "xray", "xtalk", "frbias"); err != nil {
		return err
	}
	outDir, err := outputDir(*c.out, cfg.GetModule())
	if err != nil {
		return err
	}

	opts := compare.Options{
		XRayFile:   *xrayFile,
		XTalkFile:  *xtalkFile,
		FRBiasFile: *frbiasFile,
		XRayHist:   cfg.GetCompareXRayHist(),
		XTalkHist:  cfg.GetCompareXTalkHist(),
		FRBiasHist: cfg.GetCompareFRBiasHist(),
		Module:     cfg.GetModule(),
		Chip:       cfg.GetChip(),
		OutDir:     outDir,
		Base:       *base,
		PlotSize:   plotSize(cfg),
		HTML:       cfg.GetHTMLReport(),
	}
	out, err := compare.Run(opts)
	if err != nil {
		return err
	}

	var pixels []store.RunPixel
	for i, cat := range out.Result.Categories {
		fmt.Printf("%-22s %d\n", cat.Name, out.Result.Counts[i])
		pixels = append(pixels, toPixels(out.Result.Pixels(i), cat.Name)...)
	}
	fmt.Printf("Comparison complete. Results saved to: %s\n", outDir)

	run := &store.Run{Kind: "compare", Module: opts.Module, Chip: opts.Chip, OutputDir: outDir}
	inputs := map[string]string{"xray": *xrayFile, "xtalk": *xtalkFile, "frbias": *frbiasFile}
	params := map[string]string{"xray_hist": opts.XRayHist, "xtalk_hist": opts.XTalkHist, "frbias_hist": opts.FRBiasHist}
	return record(*c.db, run, params, inputs, out.Summary, pixels)
}

func runToy(args []string) error {
	c := newCommonFlags("toy")
	split := c.fs.String("split", "", "Also write per-technique fixtures for compare into this directory")
	cfg, err := c.parse(args)
	if err != nil {
		return err
	}
	m, err := toy.Generate(toy.NX, toy.NY)
	if err != nil {
		return err
	}
	path, err := toy.Write(*c.out, m)
	if err != nil {
		return err
	}
	fmt.Printf("Toy histograms have been created and saved to %s\n", path)

	if *split == "" {
		return nil
	}
	fx, err := toy.Split(*split, cfg.GetChip(), m)
	if err != nil {
		return err
	}
	monitoring.Debugf("toy fixtures: %s %s %s", fx.XRay, fx.XTalk, fx.FRBias)
	fmt.Printf("Comparison fixtures written to %s\n", filepath.Clean(*split))
	return nil
}
