// Package plotting renders chip maps and calibration histograms to PNG.
package plotting

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI of every rendered PNG.
const DPI = 150

// Size is the physical size of an output image.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize fits a single 432x336 chip map with its colour bar.
var DefaultSize = Size{Width: 8 * vg.Inch, Height: 7 * vg.Inch}

// HistSize matches the wide layout used for distributions.
var HistSize = Size{Width: 11 * vg.Inch, Height: 7.8 * vg.Inch}

// SizeInches builds a Size from inch dimensions.
func SizeInches(w, h float64) Size {
	return Size{Width: vg.Length(w) * vg.Inch, Height: vg.Length(h) * vg.Inch}
}

func (s Size) orDefault(d Size) Size {
	if s.Width <= 0 || s.Height <= 0 {
		return d
	}
	return s
}

// Named colours used by the category maps.
var (
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black   = color.RGBA{A: 255}
	Blue    = color.RGBA{B: 255, A: 255}
	Red     = color.RGBA{R: 255, A: 255}
	Green   = color.RGBA{G: 255, A: 255}
	Magenta = color.RGBA{R: 255, B: 255, A: 255}
	Cyan    = color.RGBA{G: 255, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, A: 255}
	Orange  = color.RGBA{R: 255, G: 165, A: 255}
)

func newImage(size Size) *vgimg.Canvas {
	return vgimg.NewWith(vgimg.UseWH(size.Width, size.Height), vgimg.UseDPI(DPI))
}

// savePNG writes img to file, creating the parent directory.
func savePNG(img *vgimg.Canvas, file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", file, err)
	}
	return nil
}
