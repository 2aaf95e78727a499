package histio

import "fmt"

// Scan names used by the Ph2_ACF calibrations.
const (
	ScanThreshold     = "Threshold2D"
	ScanNoise         = "Noise2D"
	ScanToT           = "ToT2D"
	ScanPixelAlive    = "PixelAlive"
	ScanReadoutErrors = "ReadoutErrors"
	ScanFitErrors     = "FitErrors"
)

// Locator identifies one chip in the Ph2_ACF detector tree.
type Locator struct {
	Board        int
	OpticalGroup int
	Hybrid       int
	Chip         int
}

// ChipLocator returns the locator for chip on board 0, optical group 0.
func ChipLocator(hybrid, chip int) Locator {
	return Locator{Hybrid: hybrid, Chip: chip}
}

// Name returns the canvas/histogram name of a scan, for example
// "D_B(0)_O(0)_H(0)_Threshold2D_Chip(12)".
func (l Locator) Name(scan string) string {
	return fmt.Sprintf("D_B(%d)_O(%d)_H(%d)_%s_Chip(%d)", l.Board, l.OpticalGroup, l.Hybrid, scan, l.Chip)
}

// Dir returns the directory holding the chip's scan canvases.
func (l Locator) Dir() string {
	return fmt.Sprintf("Detector/Board_%d/OpticalGroup_%d/Hybrid_%d/Chip_%d", l.Board, l.OpticalGroup, l.Hybrid, l.Chip)
}

// Path returns the full object path of a scan.
func (l Locator) Path(scan string) string {
	return l.Dir() + "/" + l.Name(scan)
}

func (l Locator) String() string {
	return fmt.Sprintf("B%d/O%d/H%d/C%d", l.Board, l.OpticalGroup, l.Hybrid, l.Chip)
}
