package cameraman

import (
	"sync/atomic"
	"testing"

	"github.com/banshee-data/cameraman/internal/config"
	"github.com/banshee-data/cameraman/internal/geom"
	"github.com/banshee-data/cameraman/internal/monitoring"
)

// staticSource is a ParamSource whose snapshot tests can swap.
type staticSource struct {
	p atomic.Pointer[config.Params]
}

func newSource(p *config.Params) *staticSource {
	s := &staticSource{}
	s.p.Store(p)
	return s
}

func (s *staticSource) Params() *config.Params { return s.p.Load() }

// exampleParams matches the worked example: 1s window at 1 fps,
// speed_max 100, 50px buffer, even merge, court [0, 1000].
func exampleParams() *config.Params {
	return &config.Params{
		Base:   config.FilterTuning{VariancePosition: 1, VarianceMeasurement: 1, ProcessNoise: 0.01},
		Slider: config.FilterTuning{VariancePosition: 1, VarianceMeasurement: 1, ProcessNoise: 0.01},
		Camera: config.CameraParams{
			MemoryLength:       1,
			FPS:                1,
			SpeedMax:           100,
			BufferPixels:       50,
			PositionMergeRatio: 0.5,
			SpeedSliderGain:    1,
		},
		Safety:      config.SafetyParams{NoiseThreshold: 5, MinPlayers: 2, BoundaryMargin: 20},
		Transfer:    config.TransferParams{XMin: 0, XMax: 1000, YMin: 10, YMax: 90, FOVMin: 30, FOVMax: 60},
		CourtPoints: []geom.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}},
	}
}

func pts(xs ...float64) []geom.Point {
	out := make([]geom.Point, len(xs))
	for i, x := range xs {
		out[i] = geom.Point{X: x}
	}
	return out
}

func quietLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(original) })
}
