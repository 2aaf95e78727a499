package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the tunable parameters of every analysis. All fields
// are optional; the Get* methods fall back to the values used on the
// RD53 test benches.
type AnalysisConfig struct {
	// Chip addressing and geometry
	Board        *int    `json:"board,omitempty"`
	OpticalGroup *int    `json:"optical_group,omitempty"`
	Hybrid       *int    `json:"hybrid,omitempty"`
	Chip         *int    `json:"chip,omitempty"`
	Rows         *int    `json:"rows,omitempty"`
	Cols         *int    `json:"cols,omitempty"`
	Module       *string `json:"module,omitempty"`

	// Forward/reverse bias
	FRBiasCut *float64 `json:"frbias_cut,omitempty"`

	// Cross-talk
	XTalkAliveEff     *float64 `json:"xtalk_alive_eff,omitempty"`
	XTalkCoupledEff   *float64 `json:"xtalk_coupled_eff,omitempty"`
	XTalkUncoupledEff *float64 `json:"xtalk_uncoupled_eff,omitempty"`
	XTalkChips        []int    `json:"xtalk_chips,omitempty"`

	// X-ray
	XRayThrMissing     *float64 `json:"xray_thr_missing,omitempty"`
	XRayThrStrange     *float64 `json:"xray_thr_strange,omitempty"`
	XRayBias           *string  `json:"xray_bias,omitempty"` // volts, used in file names
	XRayVRef           *float64 `json:"xray_vref,omitempty"` // VRef_ADC in mV
	XRayTriggers       *float64 `json:"xray_ntrg,omitempty"` // total triggers in the scan xml
	XRayBunchCrossings *int     `json:"xray_nbx,omitempty"`  // nEventsBurst
	XRayFit            *bool    `json:"xray_fit,omitempty"`  // gaussian fit on noise/threshold
	XRayHitsVMax       *float64 `json:"xray_hits_vmax,omitempty"`
	XRayHitsStep       *float64 `json:"xray_hits_step,omitempty"`
	XRayHistYMax       *float64 `json:"xray_hist_ymax,omitempty"`
	XRayThresholdVMin  *float64 `json:"xray_threshold_vmin,omitempty"` // electrons

	// Comparison inputs
	CompareXRayHist   *string `json:"compare_xray_hist,omitempty"`
	CompareXTalkHist  *string `json:"compare_xtalk_hist,omitempty"`
	CompareFRBiasHist *string `json:"compare_frbias_hist,omitempty"`

	// Output
	PlotWidthInches  *float64 `json:"plot_width_inches,omitempty"`
	PlotHeightInches *float64 `json:"plot_height_inches,omitempty"`
	HTMLReport       *bool    `json:"html_report,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field populated from the
// Get* defaults.
func DefaultAnalysisConfig() *AnalysisConfig {
	e := EmptyAnalysisConfig()
	return &AnalysisConfig{
		Board:              ptrInt(e.GetBoard()),
		OpticalGroup:       ptrInt(e.GetOpticalGroup()),
		Hybrid:             ptrInt(e.GetHybrid()),
		Chip:               ptrInt(e.GetChip()),
		Rows:               ptrInt(e.GetRows()),
		Cols:               ptrInt(e.GetCols()),
		Module:             ptrString(e.GetModule()),
		FRBiasCut:          ptrFloat64(e.GetFRBiasCut()),
		XTalkAliveEff:      ptrFloat64(e.GetXTalkAliveEff()),
		XTalkCoupledEff:    ptrFloat64(e.GetXTalkCoupledEff()),
		XTalkUncoupledEff:  ptrFloat64(e.GetXTalkUncoupledEff()),
		XTalkChips:         e.GetXTalkChips(),
		XRayThrMissing:     ptrFloat64(e.GetXRayThrMissing()),
		XRayThrStrange:     ptrFloat64(e.GetXRayThrStrange()),
		XRayBias:           ptrString(e.GetXRayBias()),
		XRayVRef:           ptrFloat64(e.GetXRayVRef()),
		XRayTriggers:       ptrFloat64(e.GetXRayTriggers()),
		XRayBunchCrossings: ptrInt(e.GetXRayBunchCrossings()),
		XRayFit:            ptrBool(e.GetXRayFit()),
		XRayHitsVMax:       ptrFloat64(e.GetXRayHitsVMax()),
		XRayHitsStep:       ptrFloat64(e.GetXRayHitsStep()),
		XRayHistYMax:       ptrFloat64(e.GetXRayHistYMax()),
		XRayThresholdVMin:  ptrFloat64(e.GetXRayThresholdVMin()),
		CompareXRayHist:    ptrString(e.GetCompareXRayHist()),
		CompareXTalkHist:   ptrString(e.GetCompareXTalkHist()),
		CompareFRBiasHist:  ptrString(e.GetCompareFRBiasHist()),
		PlotWidthInches:    ptrFloat64(e.GetPlotWidthInches()),
		PlotHeightInches:   ptrFloat64(e.GetPlotHeightInches()),
		HTMLReport:         ptrBool(e.GetHTMLReport()),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to their defaults, so partial
// configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/bumpcheck/ or deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.Module != nil && strings.TrimSpace(*c.Module) == "" {
		return fmt.Errorf("module must not be empty")
	}
	for name, v := range map[string]*int{
		"board":         c.Board,
		"optical_group": c.OpticalGroup,
		"hybrid":        c.Hybrid,
		"chip":          c.Chip,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}
	if c.Rows != nil && *c.Rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", *c.Rows)
	}
	if c.Cols != nil && *c.Cols <= 0 {
		return fmt.Errorf("cols must be positive, got %d", *c.Cols)
	}
	if c.FRBiasCut != nil && *c.FRBiasCut < 0 {
		return fmt.Errorf("frbias_cut must be non-negative, got %f", *c.FRBiasCut)
	}

	for name, v := range map[string]*float64{
		"xtalk_alive_eff":     c.XTalkAliveEff,
		"xtalk_coupled_eff":   c.XTalkCoupledEff,
		"xtalk_uncoupled_eff": c.XTalkUncoupledEff,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}
	for _, ch := range c.XTalkChips {
		if ch < 0 {
			return fmt.Errorf("xtalk_chips must be non-negative, got %d", ch)
		}
	}

	if c.GetXRayThrStrange() < c.GetXRayThrMissing() {
		return fmt.Errorf("xray_thr_strange (%g) must not be below xray_thr_missing (%g)",
			c.GetXRayThrStrange(), c.GetXRayThrMissing())
	}
	if c.XRayVRef != nil && *c.XRayVRef <= 0 {
		return fmt.Errorf("xray_vref must be positive, got %f", *c.XRayVRef)
	}
	if c.XRayTriggers != nil && *c.XRayTriggers <= 0 {
		return fmt.Errorf("xray_ntrg must be positive, got %f", *c.XRayTriggers)
	}
	if c.XRayBunchCrossings != nil && *c.XRayBunchCrossings <= 0 {
		return fmt.Errorf("xray_nbx must be positive, got %d", *c.XRayBunchCrossings)
	}
	if c.XRayHitsVMax != nil && *c.XRayHitsVMax <= 0 {
		return fmt.Errorf("xray_hits_vmax must be positive, got %f", *c.XRayHitsVMax)
	}
	if c.XRayHitsStep != nil && *c.XRayHitsStep <= 0 {
		return fmt.Errorf("xray_hits_step must be positive, got %f", *c.XRayHitsStep)
	}

	if c.PlotWidthInches != nil && *c.PlotWidthInches <= 0 {
		return fmt.Errorf("plot_width_inches must be positive, got %f", *c.PlotWidthInches)
	}
	if c.PlotHeightInches != nil && *c.PlotHeightInches <= 0 {
		return fmt.Errorf("plot_height_inches must be positive, got %f", *c.PlotHeightInches)
	}

	return nil
}

func (c *AnalysisConfig) GetBoard() int {
	if c.Board == nil {
		return 0
	}
	return *c.Board
}

func (c *AnalysisConfig) GetOpticalGroup() int {
	if c.OpticalGroup == nil {
		return 0
	}
	return *c.OpticalGroup
}

func (c *AnalysisConfig) GetHybrid() int {
	if c.Hybrid == nil {
		return 0
	}
	return *c.Hybrid
}

// GetChip returns the chip ID or the default.
func (c *AnalysisConfig) GetChip() int {
	if c.Chip == nil {
		return 12 // default
	}
	return *c.Chip
}

// GetRows returns the chip row count or the RD53 default.
func (c *AnalysisConfig) GetRows() int {
	if c.Rows == nil {
		return 336 // default
	}
	return *c.Rows
}

// GetCols returns the chip column count or the RD53 default.
func (c *AnalysisConfig) GetCols() int {
	if c.Cols == nil {
		return 432 // default
	}
	return *c.Cols
}

// GetModule returns the module label or the default.
func (c *AnalysisConfig) GetModule() string {
	if c.Module == nil || *c.Module == "" {
		return "RH0026" // default
	}
	return *c.Module
}

// GetFRBiasCut returns the delta threshold/noise radius or the default.
func (c *AnalysisConfig) GetFRBiasCut() float64 {
	if c.FRBiasCut == nil {
		return 5.0 // default
	}
	return *c.FRBiasCut
}

func (c *AnalysisConfig) GetXTalkAliveEff() float64 {
	if c.XTalkAliveEff == nil {
		return 0.9 // default
	}
	return *c.XTalkAliveEff
}

func (c *AnalysisConfig) GetXTalkCoupledEff() float64 {
	if c.XTalkCoupledEff == nil {
		return 0.5 // default
	}
	return *c.XTalkCoupledEff
}

func (c *AnalysisConfig) GetXTalkUncoupledEff() float64 {
	if c.XTalkUncoupledEff == nil {
		return 0.3 // default
	}
	return *c.XTalkUncoupledEff
}

// GetXTalkChips returns the chips analysed by the cross-talk scan. It
// defaults to the single configured chip.
func (c *AnalysisConfig) GetXTalkChips() []int {
	if len(c.XTalkChips) == 0 {
		return []int{c.GetChip()}
	}
	return append([]int(nil), c.XTalkChips...)
}

// GetXRayThrMissing returns the hit count below which a bump is missing.
func (c *AnalysisConfig) GetXRayThrMissing() float64 {
	if c.XRayThrMissing == nil {
		return 1 // default
	}
	return *c.XRayThrMissing
}

// GetXRayThrStrange returns the hit count below which a bump has low occupancy.
func (c *AnalysisConfig) GetXRayThrStrange() float64 {
	if c.XRayThrStrange == nil {
		return 1000 // default
	}
	return *c.XRayThrStrange
}

func (c *AnalysisConfig) GetXRayBias() string {
	if c.XRayBias == nil || *c.XRayBias == "" {
		return "80" // default
	}
	return *c.XRayBias
}

func (c *AnalysisConfig) GetXRayVRef() float64 {
	if c.XRayVRef == nil {
		return 800 // default
	}
	return *c.XRayVRef
}

func (c *AnalysisConfig) GetXRayTriggers() float64 {
	if c.XRayTriggers == nil {
		return 1e7 // default
	}
	return *c.XRayTriggers
}

func (c *AnalysisConfig) GetXRayBunchCrossings() int {
	if c.XRayBunchCrossings == nil {
		return 10 // default
	}
	return *c.XRayBunchCrossings
}

func (c *AnalysisConfig) GetXRayFit() bool {
	if c.XRayFit == nil {
		return true // default
	}
	return *c.XRayFit
}

func (c *AnalysisConfig) GetXRayHitsVMax() float64 {
	if c.XRayHitsVMax == nil {
		return 7000 // default
	}
	return *c.XRayHitsVMax
}

func (c *AnalysisConfig) GetXRayHitsStep() float64 {
	if c.XRayHitsStep == nil {
		return 10 // default
	}
	return *c.XRayHitsStep
}

func (c *AnalysisConfig) GetXRayHistYMax() float64 {
	if c.XRayHistYMax == nil {
		return 1e5 // default
	}
	return *c.XRayHistYMax
}

func (c *AnalysisConfig) GetXRayThresholdVMin() float64 {
	if c.XRayThresholdVMin == nil {
		return 1200 // default
	}
	return *c.XRayThresholdVMin
}

func (c *AnalysisConfig) GetCompareXRayHist() string {
	if c.CompareXRayHist == nil || *c.CompareXRayHist == "" {
		return "MissingMap" // default
	}
	return *c.CompareXRayHist
}

func (c *AnalysisConfig) GetCompareXTalkHist() string {
	if c.CompareXTalkHist == nil || *c.CompareXTalkHist == "" {
		return "h_confirmed2D" // default
	}
	return *c.CompareXTalkHist
}

func (c *AnalysisConfig) GetCompareFRBiasHist() string {
	if c.CompareFRBiasHist == nil || *c.CompareFRBiasHist == "" {
		return "missing_map" // default
	}
	return *c.CompareFRBiasHist
}

func (c *AnalysisConfig) GetPlotWidthInches() float64 {
	if c.PlotWidthInches == nil {
		return 8 // default
	}
	return *c.PlotWidthInches
}

func (c *AnalysisConfig) GetPlotHeightInches() float64 {
	if c.PlotHeightInches == nil {
		return 7 // default
	}
	return *c.PlotHeightInches
}

// GetHTMLReport reports whether the interactive report.html is written.
func (c *AnalysisConfig) GetHTMLReport() bool {
	if c.HTMLReport == nil {
		return true // default
	}
	return *c.HTMLReport
}
