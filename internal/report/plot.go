package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrNoFrames is returned when rendering an empty recording.
var ErrNoFrames = errors.New("no frames recorded")

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

func newSeriesPlot(title, yLabel string, frames []Frame, ss []series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = yLabel

	for i, s := range ss {
		pts := make(plotter.XYs, len(frames))
		for j, f := range frames {
			pts[j] = plotter.XY{X: float64(f.Index), Y: s.get(f)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePlot renders the recording as a two-panel PNG: positions on top,
// speed, slider and framing below.
func WritePlot(path string, frames []Frame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	top, err := newSeriesPlot("Camera target", "X (px)", frames, positionSeries)
	if err != nil {
		return err
	}
	bottom, err := newSeriesPlot("Dynamics", "value", frames, dynamicsSeries)
	if err != nil {
		return err
	}

	const width, height = 14 * vg.Inch, 10 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	png := vgimg.PngCanvas{Canvas: img}
	return writeTo(path, png.WriteTo)
}
