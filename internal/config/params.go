package config

import (
	"github.com/banshee-data/cameraman/internal/geom"
	"github.com/banshee-data/cameraman/internal/kalman"
)

// FilterTuning is a resolved filter section.
type FilterTuning struct {
	VariancePosition    float64
	VarianceMeasurement float64
	ProcessNoise        float64
}

// KalmanParams converts the tuning into filter parameters.
func (f FilterTuning) KalmanParams() kalman.Params {
	return kalman.Params{
		ProcessNoise:        f.ProcessNoise,
		MeasurementVariance: f.VarianceMeasurement,
		InitialVariance:     f.VariancePosition,
	}
}

// CameraParams holds the camera behaviour constants.
type CameraParams struct {
	MemoryLength       float64 // seconds of position history
	FPS                float64
	SpeedMax           float64 // px/s, speed clamp
	BufferPixels       float64 // margin beyond the court extent
	PositionMergeRatio float64 // players vs ball weight
	SpeedSliderGain    float64
}

// HistoryCapacity is round(MemoryLength * FPS).
func (c CameraParams) HistoryCapacity() int {
	return historyCapacity(c.MemoryLength, c.FPS)
}

// SafetyParams holds detection safety thresholds.
type SafetyParams struct {
	NoiseThreshold float64
	MinPlayers     int
	BoundaryMargin float64
}

// TransferParams are the framing curve domain and range endpoints.
type TransferParams struct {
	XMin, XMax     float64
	YMin, YMax     float64
	FOVMin, FOVMax float64
}

// Params is an immutable snapshot of every tuning value plus the current
// court boundary. Holders must not mutate it; the provider swaps in a new
// snapshot instead.
type Params struct {
	Base     FilterTuning
	Slider   FilterTuning
	Camera   CameraParams
	Safety   SafetyParams
	Transfer TransferParams

	CourtPoints []geom.Point
	// BoundaryVersion increases every time CourtPoints changes.
	BoundaryVersion uint64
}

func filterTuning(f *FilterSection) FilterTuning {
	return FilterTuning{
		VariancePosition:    *f.VariancePosition,
		VarianceMeasurement: *f.VarianceMeasurement,
		ProcessNoise:        *f.ProcessNoise,
	}
}

// Params resolves a validated config into a snapshot with no court points.
// It must only be called on a config that passed Validate.
func (c *TuningConfig) Params() *Params {
	return &Params{
		Base:   filterTuning(c.Kalman.Base),
		Slider: filterTuning(c.Kalman.Slider),
		Camera: CameraParams{
			MemoryLength:       *c.Camera.MemoryLength,
			FPS:                *c.Camera.FPS,
			SpeedMax:           *c.Camera.SpeedMax,
			BufferPixels:       *c.Camera.BufferPixels,
			PositionMergeRatio: *c.Camera.PositionMergeRatio,
			SpeedSliderGain:    *c.Camera.SpeedSliderGain,
		},
		Safety: SafetyParams{
			NoiseThreshold: *c.Safety.NoiseThreshold,
			MinPlayers:     *c.Safety.MinPlayers,
			BoundaryMargin: *c.Safety.BoundaryMargin,
		},
		Transfer: TransferParams{
			XMin:   *c.Transfer.XMin,
			XMax:   *c.Transfer.XMax,
			YMin:   *c.Transfer.YMin,
			YMax:   *c.Transfer.YMax,
			FOVMin: *c.Transfer.FOVMin,
			FOVMax: *c.Transfer.FOVMax,
		},
	}
}

// withCourt returns a copy of p carrying pts and the next boundary version.
func (p *Params) withCourt(pts []geom.Point) *Params {
	next := *p
	next.CourtPoints = append([]geom.Point(nil), pts...)
	next.BoundaryVersion = p.BoundaryVersion + 1
	return &next
}
