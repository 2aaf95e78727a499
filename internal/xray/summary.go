package xray

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// Summary is the terminal report and catalogue record of a run. Counts are
// taken from the category map before it is binarised.
type Summary struct {
	Module              string  `json:"module"`
	Chip                int     `json:"chip"`
	ThrMissing          float64 `json:"thr_missing"`
	ThrStrange          float64 `json:"thr_strange"`
	FitErrors           float64 `json:"fit_errors"`
	ReadoutErrors       float64 `json:"readout_errors"`
	ReadoutErrorsXRay   float64 `json:"readout_errors_xray"`
	Masked              int     `json:"masked"`
	Missing             int     `json:"missing"`
	MissingPercent      float64 `json:"missing_percent"`
	LowOccupancy        int     `json:"low_occupancy"`
	LowOccupancyPercent float64 `json:"low_occupancy_percent"`
	Check               Counts  `json:"check"`
	Total               int     `json:"total"`
}

// Summarize builds the summary of a classified chip. mask is the enable map
// the codes were derived from.
func Summarize(codes, mask *pixmap.Map, p Params) Summary {
	check := Tally(codes)
	total := codes.Len()
	masked := mask.Count(pixmap.Equal(0))
	return Summary{
		ThrMissing:          p.ThrMissing,
		ThrStrange:          p.ThrStrange,
		Masked:              masked,
		Missing:             check.Missing,
		MissingPercent:      Percent(check.Missing, total, masked),
		LowOccupancy:        check.LowOccupancy,
		LowOccupancyPercent: Percent(check.LowOccupancy, total, masked),
		Check:               check,
		Total:               total,
	}
}

// Title is the two-line heading of the missing-bump figure.
func (s Summary) Title() string {
	return fmt.Sprintf("Sensor: %s chip_%d -- Masked pixels: %d -- Fit errors: %g\n"+
		"Missing bumps (<%g hits): %d (%g%%) -- Low Occ bumps (<%g hits): %d (%g%%)",
		s.Module, s.Chip, s.Masked, s.FitErrors,
		s.ThrMissing, s.Missing, s.MissingPercent, s.ThrStrange, s.LowOccupancy, s.LowOccupancyPercent)
}

const rule = "##############################################################"

// Print writes the human-readable summary block.
func (s Summary) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n INFO\n%s\n", rule, rule)
	fmt.Fprintf(tw, "Failed fits (thr):\t%g\n", s.FitErrors)
	fmt.Fprintf(tw, "Readout errors (thr):\t%g\n", s.ReadoutErrors)
	fmt.Fprintf(tw, "Readout errors (xray):\t%g\n", s.ReadoutErrorsXRay)
	fmt.Fprintf(tw, "Masked before:\t%d\n", s.Masked)
	fmt.Fprintf(tw, "Missing (<%g):\t%d (%g%%)\n", s.ThrMissing, s.Missing, s.MissingPercent)
	fmt.Fprintf(tw, "Low occupancy (<%g):\t%d (%g%%)\n", s.ThrStrange, s.LowOccupancy, s.LowOccupancyPercent)
	fmt.Fprintln(tw, "Check from final matrix:")
	fmt.Fprintf(tw, "Masked:\t%d\n", s.Check.Masked)
	fmt.Fprintf(tw, "Missing:\t%d\n", s.Check.Missing)
	fmt.Fprintf(tw, "Low occupancy:\t%d\n", s.Check.LowOccupancy)
	fmt.Fprintf(tw, "Errors:\t%d\n", s.Check.Errors)
	fmt.Fprintf(tw, "Good:\t%d\n", s.Check.Good)
	fmt.Fprintf(tw, "Sum:\t%d\n", s.Check.Sum())
	fmt.Fprintf(tw, "Total # of pixels:\t%d\n", s.Total)
	fmt.Fprintf(tw, "%s\n", rule)
	return tw.Flush()
}

// PrintMissing lists missing pixels as (row, column).
func PrintMissing(w io.Writer, pixels []pixmap.Pixel) error {
	if _, err := fmt.Fprintln(w, "Missing pixels (row, column):"); err != nil {
		return err
	}
	for _, p := range pixels {
		if _, err := fmt.Fprintf(w, "(%d, %d)\n", p.Row, p.Col); err != nil {
			return err
		}
	}
	return nil
}
