package plotting

import (
	"errors"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// colourBarHeight is the strip reserved below a panel for its colour bar.
const colourBarHeight = vg.Length(55)

// Panel is one plot of a figure with an optional horizontal colour bar
// underneath it.
type Panel struct {
	Plot *plot.Plot
	Bar  *plot.Plot
}

// Render lays panels out left to right under an optional (multi-line)
// title and writes the figure to file as PNG.
func Render(file string, size Size, title string, panels ...Panel) error {
	if len(panels) == 0 {
		return errors.New("figure has no panels")
	}
	img := newImage(size)
	dc := draw.New(img)

	if title != "" {
		lines := strings.Count(title, "\n") + 1
		th := vg.Points(16)*vg.Length(lines) + vg.Points(8)
		tp := plot.New()
		tp.Title.Text = title
		tp.HideAxes()
		tp.Draw(draw.Crop(dc, 0, 0, size.Height-th, 0))
		dc = draw.Crop(dc, 0, 0, 0, -th)
	}

	n := vg.Length(len(panels))
	w := (dc.Max.X - dc.Min.X) / n
	for i, pn := range panels {
		left := vg.Length(i) * w
		right := -(n - 1 - vg.Length(i)) * w
		col := draw.Crop(dc, left, right, 0, 0)
		if pn.Bar == nil {
			pn.Plot.Draw(col)
			continue
		}
		h := col.Max.Y - col.Min.Y
		pn.Plot.Draw(draw.Crop(col, 0, 0, colourBarHeight, 0))
		pn.Bar.Draw(draw.Crop(col, 0, 0, 0, -(h - colourBarHeight)))
	}

	return savePNG(img, file)
}
