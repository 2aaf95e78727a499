// Package xtalk finds disconnected bumps from cross-talk injection scans.
//
// Charge injected into a pixel's neighbour couples into a bump-bonded pixel
// through the sensor. Three PixelAlive scans are compared: injection into the
// pixel itself (type 1), into the coupled neighbour (type 5) and into an
// uncoupled neighbour (type 6). A live pixel that sees neither neighbour has
// lost its bump.
package xtalk

import (
	"fmt"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// Thresholds are efficiency cuts in [0, 1].
type Thresholds struct {
	Alive     float64
	Coupled   float64
	Uncoupled float64
}

// DefaultThresholds returns the cuts used for RD53 modules.
func DefaultThresholds() Thresholds {
	return Thresholds{Alive: 0.9, Coupled: 0.5, Uncoupled: 0.3}
}

func (t Thresholds) validate() error {
	for name, v := range map[string]float64{"alive": t.Alive, "coupled": t.Coupled, "uncoupled": t.Uncoupled} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s efficiency %v outside [0, 1]", name, v)
		}
	}
	return nil
}

// Result is the classification of one chip.
type Result struct {
	Confirmed  *pixmap.Map
	Suspicious *pixmap.Map
	Dead       []pixmap.Pixel
	// ConfirmedPixels and SuspiciousPixels are in row-major order.
	ConfirmedPixels  []pixmap.Pixel
	SuspiciousPixels []pixmap.Pixel
}

// undetectable reports pixels whose coupled neighbour sits off the chip
// edge: even columns of the first row and odd columns of the last row.
func undetectable(row, col, rows int) bool {
	return (row == 0 && col%2 == 0) || (row == rows-1 && col%2 == 1)
}

// Classify applies the efficiency cuts pixel by pixel. eff1, eff5 and eff6
// are the type 1, 5 and 6 PixelAlive efficiencies.
func Classify(eff1, eff5, eff6 *pixmap.Map, th Thresholds) (*Result, error) {
	if err := pixmap.CheckShape(eff1, eff5, eff6); err != nil {
		return nil, err
	}
	if err := th.validate(); err != nil {
		return nil, err
	}
	rows, cols := eff1.Dims()
	res := &Result{
		Confirmed:  pixmap.New(rows, cols),
		Suspicious: pixmap.New(rows, cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			e1 := eff1.At(r, c)
			if e1 < th.Alive {
				res.Dead = append(res.Dead, pixmap.Pixel{Row: r, Col: c})
				continue
			}
			if undetectable(r, c, rows) {
				continue
			}
			// Negated so NaN efficiencies never pass.
			if !(e1 > th.Alive) || !(eff5.At(r, c) < th.Coupled) {
				continue
			}
			p := pixmap.Pixel{Row: r, Col: c}
			if eff6.At(r, c) < th.Uncoupled {
				res.Confirmed.Set(r, c, 1)
				res.ConfirmedPixels = append(res.ConfirmedPixels, p)
			} else {
				res.Suspicious.Set(r, c, 1)
				res.SuspiciousPixels = append(res.SuspiciousPixels, p)
			}
		}
	}
	return res, nil
}
