// Package fit bins per-pixel calibration values and fits Gaussian peaks to
// the resulting distributions.
package fit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Hist is a fixed-width histogram. Bin i covers [Edges[i], Edges[i+1]).
type Hist struct {
	Edges  []float64
	Counts []float64
	// Dropped counts values that fell outside [Edges[0], Edges[len-1]).
	Dropped int
}

// Edges returns lo, lo+step, ... for every value strictly below hi.
func Edges(lo, hi, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("bin step must be positive, got %g", step)
	}
	if hi <= lo {
		return nil, fmt.Errorf("histogram range [%g, %g) is empty", lo, hi)
	}
	n := int(math.Ceil((hi - lo) / step))
	if n < 2 {
		return nil, fmt.Errorf("range [%g, %g) with step %g gives fewer than two edges", lo, hi, step)
	}
	edges := make([]float64, n)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	return edges, nil
}

// NewHist bins values using the edges produced by Edges(lo, hi, step).
// NaN values are dropped along with out-of-range ones.
func NewHist(values []float64, lo, hi, step float64) (*Hist, error) {
	edges, err := Edges(lo, hi, step)
	if err != nil {
		return nil, err
	}
	first, last := edges[0], edges[len(edges)-1]
	in := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= first && v < last {
			in = append(in, v)
		}
	}
	sort.Float64s(in)
	return &Hist{
		Edges:   edges,
		Counts:  stat.Histogram(nil, edges, in, nil),
		Dropped: len(values) - len(in),
	}, nil
}

// Centers returns the midpoint of every bin.
func (h *Hist) Centers() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range out {
		out[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return out
}

// Total is the number of binned values.
func (h *Hist) Total() float64 {
	return floats.Sum(h.Counts)
}

// ErrEmpty is returned when there is nothing to fit.
var ErrEmpty = errors.New("no entries to fit")

// Moments returns the count-weighted mean and standard deviation of the bin
// centres.
func (h *Hist) Moments() (mean, std float64, err error) {
	if len(h.Counts) == 0 || h.Total() <= 0 {
		return 0, 0, ErrEmpty
	}
	mean, std = stat.MeanStdDev(h.Centers(), h.Counts)
	return mean, std, nil
}
