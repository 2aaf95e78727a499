// Package xray finds missing bumps from an X-ray occupancy scan. A pixel
// whose bump is disconnected collects no charge from the sensor, so it stays
// silent while its neighbours count photons.
package xray

import (
	"fmt"
	"math"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// Pixel category codes.
const (
	LowOccupancy = -1
	Masked       = 0
	Missing      = 1
	// Error marks a masked pixel that fired anyway.
	Error = 2
	Good  = 3
)

// Hits converts a PixelAlive occupancy map into absolute hit counts.
func Hits(occupancy *pixmap.Map, triggers float64, bunchCrossings int) *pixmap.Map {
	return occupancy.Scale(triggers * float64(bunchCrossings))
}

// Classify assigns a category code to every pixel. mask holds 1 for enabled
// and 0 for masked pixels.
func Classify(hits, mask *pixmap.Map, thrMissing, thrStrange float64) (*pixmap.Map, error) {
	if err := pixmap.CheckShape(hits, mask); err != nil {
		return nil, err
	}
	var bad error
	codes := hits.Apply(func(r, c int, h float64) float64 {
		enabled := mask.At(r, c)
		if enabled != 0 && enabled != 1 {
			bad = fmt.Errorf("mask value %v at %d,%d is neither 0 nor 1", enabled, r, c)
		}
		code := enabled
		if !(h < thrMissing) {
			code += 2
		}
		if enabled == 1 && h >= thrMissing && h < thrStrange {
			code = LowOccupancy
		}
		return code
	})
	if bad != nil {
		return nil, bad
	}
	return codes, nil
}

// Counts tallies the category codes of a map.
type Counts struct {
	LowOccupancy int `json:"low_occupancy"`
	Masked       int `json:"masked"`
	Missing      int `json:"missing"`
	Errors       int `json:"errors"`
	Good         int `json:"good"`
}

// Sum is the number of pixels carrying a known code.
func (c Counts) Sum() int {
	return c.LowOccupancy + c.Masked + c.Missing + c.Errors + c.Good
}

// Tally counts each code in codes.
func Tally(codes *pixmap.Map) Counts {
	var c Counts
	for _, v := range codes.Values() {
		switch v {
		case LowOccupancy:
			c.LowOccupancy++
		case Masked:
			c.Masked++
		case Missing:
			c.Missing++
		case Error:
			c.Errors++
		case Good:
			c.Good++
		}
	}
	return c
}

// Percent returns count as a percentage of the enabled pixels, rounded to
// four decimals. It is 0 when every pixel is masked.
func Percent(count, total, masked int) float64 {
	enabled := total - masked
	if enabled <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(enabled)*100*1e4) / 1e4
}

// Binarize keeps the missing (1) and low-occupancy (-1) codes and zeroes the
// rest. Masked pixels are already 0.
func Binarize(codes *pixmap.Map) *pixmap.Map {
	return codes.Apply(func(_, _ int, v float64) float64 {
		if v == Error || v == Good {
			return 0
		}
		return v
	})
}
