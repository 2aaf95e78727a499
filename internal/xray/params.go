package xray

import (
	"errors"
	"fmt"
	"strconv"
)

// Params are the cuts and scan settings of an X-ray analysis.
type Params struct {
	// ThrMissing is the hit count below which an enabled pixel is missing.
	ThrMissing float64 `json:"thr_missing"`
	// ThrStrange is the hit count below which a pixel is low occupancy.
	ThrStrange float64 `json:"thr_strange"`
	// Bias is the sensor bias in volts, used in file names.
	Bias string `json:"bias"`
	// VRef is VRef_ADC in mV.
	VRef           float64 `json:"vref"`
	Triggers       float64 `json:"ntrg"`
	BunchCrossings int     `json:"nbx"`
	Fit            bool    `json:"fit"`
	HitsVMax       float64 `json:"hits_vmax"`
	HitsStep       float64 `json:"hits_step"`
	HistYMax       float64 `json:"hist_ymax"`
	ThresholdVMin  float64 `json:"threshold_vmin"`
}

// DefaultParams returns the settings of a standard CROC X-ray scan.
func DefaultParams() Params {
	return Params{
		ThrMissing:     1,
		ThrStrange:     1000,
		Bias:           "80",
		VRef:           800,
		Triggers:       1e7,
		BunchCrossings: 10,
		Fit:            true,
		HitsVMax:       7000,
		HitsStep:       10,
		HistYMax:       1e5,
		ThresholdVMin:  1200,
	}
}

// Validate rejects settings that would make the classification or the
// histograms meaningless.
func (p Params) Validate() error {
	switch {
	case p.ThrMissing <= 0:
		return fmt.Errorf("thr_missing must be positive, got %g", p.ThrMissing)
	case p.ThrStrange < p.ThrMissing:
		return fmt.Errorf("thr_strange (%g) must not be below thr_missing (%g)", p.ThrStrange, p.ThrMissing)
	case p.VRef <= 0:
		return fmt.Errorf("vref must be positive, got %g", p.VRef)
	case p.Triggers <= 0 || p.BunchCrossings <= 0:
		return errors.New("ntrg and nbx must be positive")
	case p.HitsVMax <= 0 || p.HitsStep <= 0:
		return errors.New("hits_vmax and hits_step must be positive")
	case p.Bias == "":
		return errors.New("bias is required")
	}
	return nil
}

// ElConv converts VCal-like DAC units to electrons.
func (p Params) ElConv() float64 { return p.VRef / 162 }

// NoiseMax is the upper end of the noise map and histogram, in electrons.
func (p Params) NoiseMax() float64 { return 65 * p.ElConv() }

// ThrMax is the upper end of the threshold map and histogram, in electrons.
func (p Params) ThrMax() float64 { return 600 * p.ElConv() }

func (p Params) NoiseStep() float64 { return 0.1 * p.ElConv() }

func (p Params) ThrStep() float64 { return 2 * p.ElConv() }

// CutLabel renders the two hit cuts for file names, e.g. "1_1000".
func (p Params) CutLabel() string {
	return formatNumber(p.ThrMissing) + "_" + formatNumber(p.ThrStrange)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
