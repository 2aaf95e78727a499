package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Gaussian is A·exp(-(x-Mean)²/(2·Sigma²)).
type Gaussian struct {
	Amplitude float64 `json:"amplitude"`
	Mean      float64 `json:"mean"`
	Sigma     float64 `json:"sigma"`
}

// Eval returns the curve value at x.
func (g Gaussian) Eval(x float64) float64 {
	d := (x - g.Mean) / g.Sigma
	return g.Amplitude * math.Exp(-0.5*d*d)
}

func (g Gaussian) String() string {
	return fmt.Sprintf("μ = %.1f σ = %.1f", g.Mean, g.Sigma)
}

// FitGaussian performs a least-squares Gaussian fit of y against x. The
// search starts from the y-weighted moments, with the amplitude seeded at
// max(y), and runs Nelder-Mead on parameters normalised to order one.
func FitGaussian(x, y []float64) (Gaussian, error) {
	if len(x) != len(y) {
		return Gaussian{}, fmt.Errorf("x and y lengths differ: %d != %d", len(x), len(y))
	}
	if len(x) < 3 || floats.Sum(y) <= 0 {
		return Gaussian{}, ErrEmpty
	}

	mean0, sd0 := stat.MeanStdDev(x, y)
	if sd0 == 0 || math.IsNaN(sd0) {
		// Single populated bin; use its width as the scale.
		sd0 = math.Abs(x[1] - x[0])
	}
	amp0 := floats.Max(y)

	// p = [a, m, s]: A = a·amp0, Mean = mean0 + m·sd0, Sigma = sd0·exp(s).
	unpack := func(p []float64) Gaussian {
		return Gaussian{
			Amplitude: p[0] * amp0,
			Mean:      mean0 + p[1]*sd0,
			Sigma:     sd0 * math.Exp(p[2]),
		}
	}
	cost := func(p []float64) float64 {
		g := unpack(p)
		var sum float64
		for i, xi := range x {
			r := (y[i] - g.Eval(xi)) / amp0
			sum += r * r
		}
		return sum
	}

	settings := &optimize.Settings{
		Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Relative: 1e-10, Iterations: 200},
		FuncEvaluations: 20000,
	}
	res, err := optimize.Minimize(optimize.Problem{Func: cost}, []float64{1, 0, 0}, settings, &optimize.NelderMead{})
	if err != nil {
		return Gaussian{}, fmt.Errorf("gaussian fit failed: %w", err)
	}
	return unpack(res.X), nil
}

// FitHist fits a Gaussian to the bin centres and counts of h.
func FitHist(h *Hist) (Gaussian, error) {
	return FitGaussian(h.Centers(), h.Counts)
}
