// Package frbias flags missing bumps by comparing threshold and noise scans
// taken under forward and reverse sensor bias. A pixel whose bump is not
// connected sees no sensor, so its response barely changes with bias.
package frbias

import (
	"fmt"
	"math"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// DefaultCut is the largest (Δthreshold, Δnoise) distance, in electrons,
// still counted as "unchanged".
const DefaultCut = 5.0

// Result holds the difference maps and the derived missing map.
type Result struct {
	DeltaThr   *pixmap.Map
	DeltaNoise *pixmap.Map
	// Missing is 1 where the bias change left the pixel unchanged.
	Missing *pixmap.Map
	Cut     float64
}

// Pixels lists the missing pixels in row-major order.
func (r *Result) Pixels() []pixmap.Pixel {
	return r.Missing.Where(pixmap.NonZero)
}

// Count is the number of missing pixels.
func (r *Result) Count() int {
	return r.Missing.Count(pixmap.NonZero)
}

// Analyze subtracts the reverse-bias maps from the forward-bias maps and
// marks pixels whose combined shift is within cut.
func Analyze(fwdThr, fwdNoise, revThr, revNoise *pixmap.Map, cut float64) (*Result, error) {
	if err := pixmap.CheckShape(fwdThr, fwdNoise, revThr, revNoise); err != nil {
		return nil, err
	}
	if cut < 0 || math.IsNaN(cut) {
		return nil, fmt.Errorf("invalid cut %v", cut)
	}
	dThr, err := pixmap.Sub(fwdThr, revThr)
	if err != nil {
		return nil, err
	}
	dNoise, err := pixmap.Sub(fwdNoise, revNoise)
	if err != nil {
		return nil, err
	}
	missing := dThr.Apply(func(r, c int, dt float64) float64 {
		dn := dNoise.At(r, c)
		if math.Sqrt(dt*dt+dn*dn) <= cut {
			return 1
		}
		return 0
	})
	return &Result{DeltaThr: dThr, DeltaNoise: dNoise, Missing: missing, Cut: cut}, nil
}
