// Package report records per-frame engine output and renders it as a PNG
// time series (gonum/plot) or an interactive HTML chart (go-echarts).
package report

import (
	"github.com/banshee-data/cameraman/internal/cameraman"
)

// Frame is one Predict result with its framing.
type Frame struct {
	Index   int
	Target  float64
	Framing cameraman.Framing
	Debug   cameraman.DebugInfo
}

// Recorder accumulates frames in order. It is not safe for concurrent use.
type Recorder struct {
	frames []Frame
}

// Add appends a frame and assigns its index.
func (r *Recorder) Add(target float64, framing cameraman.Framing, debug cameraman.DebugInfo) {
	r.frames = append(r.frames, Frame{
		Index:   len(r.frames),
		Target:  target,
		Framing: framing,
		Debug:   debug,
	})
}

// Frames returns the recorded frames.
func (r *Recorder) Frames() []Frame {
	return r.frames
}

// series is one named line across all frames.
type series struct {
	name string
	get  func(Frame) float64
}

// positionSeries share the pixel axis.
var positionSeries = []series{
	{"target", func(f Frame) float64 { return f.Target }},
	{"mean player", func(f Frame) float64 { return f.Debug.MeanPlayerPos }},
}

// dynamicsSeries are plotted on their own axis.
var dynamicsSeries = []series{
	{"speed (px/s)", func(f Frame) float64 { return f.Debug.CalculatedSpeed }},
	{"focus slider", func(f Frame) float64 { return f.Debug.FocusSlider }},
	{"fov", func(f Frame) float64 { return f.Framing.FOV }},
	{"y offset", func(f Frame) float64 { return f.Framing.Y }},
}
