package report

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func newLineChart(title, subtitle, yName string, frames []Frame, ss []series) *charts.Line {
	x := make([]int, len(frames))
	for i, f := range frames {
		x[i] = f.Index
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Camera target", Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	line.SetXAxis(x)
	for _, s := range ss {
		data := make([]opts.LineData, len(frames))
		for i, f := range frames {
			data[i] = opts.LineData{Value: s.get(f)}
		}
		line.AddSeries(s.name, data)
	}
	return line
}

// RenderChart writes the recording as a self-contained HTML page.
func RenderChart(w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	subtitle := fmt.Sprintf("frames=%d", len(frames))

	page := components.NewPage()
	page.AddCharts(
		newLineChart("Camera target", subtitle, "X (px)", frames, positionSeries),
		newLineChart("Dynamics", subtitle, "value", frames, dynamicsSeries),
	)
	return page.Render(w)
}

// WriteChart renders the HTML chart to path.
func WriteChart(path string, frames []Frame) error {
	var buf bytes.Buffer
	if err := RenderChart(&buf, frames); err != nil {
		return err
	}
	return writeTo(path, buf.WriteTo)
}

func writeTo(path string, write func(io.Writer) (int64, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
