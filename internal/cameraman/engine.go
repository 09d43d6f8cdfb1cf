package cameraman

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/cameraman/internal/config"
	"github.com/banshee-data/cameraman/internal/geom"
	"github.com/banshee-data/cameraman/internal/kalman"
	"github.com/banshee-data/cameraman/internal/monitoring"
)

// Default court range used when no boundary points are known.
const (
	DefaultLeftBound  = 0.0
	DefaultRightBound = 1920.0
)

// sliderSeed is the initial focus slider estimate: no lateral bias.
const sliderSeed = 0.5

var (
	// ErrInvalidCapacity is returned when the memory window and frame rate
	// do not give a positive history capacity.
	ErrInvalidCapacity = errors.New("invalid history capacity")

	// ErrInvalidSpeedMax is returned for a non-positive speed clamp.
	ErrInvalidSpeedMax = errors.New("speed_max must be positive")

	// ErrNoHistory is returned when the first frame has no players, so
	// there is nothing to seed the history from.
	ErrNoHistory = errors.New("cannot initialise history from an empty frame")
)

// ParamSource supplies the current tuning snapshot. *config.Provider
// implements it.
type ParamSource interface {
	Params() *config.Params
}

// DebugInfo is the state computed by the most recent Predict call.
type DebugInfo struct {
	RawTarget       float64
	FilteredTarget  float64
	MeanPlayerPos   float64
	CalculatedSpeed float64
	FocusSlider     float64
}

// Engine is the per-feed prediction state machine. It is uninitialised
// until the first Predict call sizes and seeds its history.
type Engine struct {
	id     string
	src    ParamSource
	cam    config.CameraParams
	slider *kalman.Filter1D

	capacity int
	meanHist *History
	maxHist  *History
	minHist  *History

	left, right     float64
	boundaryVersion uint64

	debug    DebugInfo
	hasDebug bool
}

// NewEngine builds an engine for one camera feed. Court bounds come from
// the X extent of courtPoints, or the default range when empty.
func NewEngine(src ParamSource, courtPoints []geom.Point) (*Engine, error) {
	params := src.Params()
	cam := params.Camera

	if cam.MemoryLength <= 0 || cam.FPS <= 0 {
		return nil, fmt.Errorf("%w: memory_length=%v fps=%v must be positive", ErrInvalidCapacity, cam.MemoryLength, cam.FPS)
	}
	capacity := cam.HistoryCapacity()
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: round(%v*%v) = %d", ErrInvalidCapacity, cam.MemoryLength, cam.FPS, capacity)
	}
	if !(cam.SpeedMax > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSpeedMax, cam.SpeedMax)
	}

	slider, err := kalman.New1D(sliderSeed, params.Slider.KalmanParams())
	if err != nil {
		return nil, fmt.Errorf("slider filter: %w", err)
	}

	e := &Engine{
		id:              uuid.NewString(),
		src:             src,
		cam:             cam,
		slider:          slider,
		capacity:        capacity,
		left:            DefaultLeftBound,
		right:           DefaultRightBound,
		boundaryVersion: params.BoundaryVersion,
	}
	if !e.setBounds(courtPoints) {
		monitoring.Logf("[engine %s] no court points, using default bounds (%.0f, %.0f)", e.id, e.left, e.right)
	}
	monitoring.Logf("[engine %s] ready: capacity=%d bounds=(%.1f, %.1f) slider Q=%g R=%g",
		e.id, capacity, e.left, e.right, params.Slider.ProcessNoise, params.Slider.VarianceMeasurement)
	return e, nil
}

// setBounds updates the court extent; an empty point set leaves it as is.
func (e *Engine) setBounds(pts []geom.Point) bool {
	lo, hi, ok := geom.XRange(pts)
	if !ok {
		return false
	}
	e.left, e.right = lo, hi
	return true
}

// ID identifies the engine in log output.
func (e *Engine) ID() string { return e.id }

// Bounds returns the current court extent in X.
func (e *Engine) Bounds() (left, right float64) { return e.left, e.right }

// Capacity returns the history capacity in frames.
func (e *Engine) Capacity() int { return e.capacity }

// HistoryLen returns the number of samples in the mean position history,
// or 0 before the first Predict.
func (e *Engine) HistoryLen() int {
	if e.meanHist == nil {
		return 0
	}
	return e.meanHist.Len()
}

// DebugInfo returns the snapshot from the last successful Predict. ok is
// false until Predict has succeeded once.
func (e *Engine) DebugInfo() (info DebugInfo, ok bool) {
	return e.debug, e.hasDebug
}

// Predict consumes one frame of detections and returns the target X.
// Empty player or ball lists are replaced by a single point at the last
// known mean player position.
func (e *Engine) Predict(players, balls []geom.Point) (float64, error) {
	params := e.src.Params()
	if params.BoundaryVersion != e.boundaryVersion {
		e.boundaryVersion = params.BoundaryVersion
		if e.setBounds(params.CourtPoints) {
			monitoring.Logf("[engine %s] court bounds updated to (%.1f, %.1f)", e.id, e.left, e.right)
		}
	}

	if len(players) == 0 {
		last, ok := e.lastMean()
		if !ok {
			return 0, ErrNoHistory
		}
		players = []geom.Point{{X: last}}
	}

	xs := geom.Xs(players)
	meanX := runningMean(xs)
	maxX := floats.Max(xs)
	minX := floats.Min(xs)

	if e.meanHist == nil {
		e.initHistory(meanX, maxX, minX)
	}

	if len(balls) == 0 {
		last, _ := e.lastMean()
		balls = []geom.Point{{X: last}}
	}

	evicted, wasEvicted := e.meanHist.Push(meanX)
	e.maxHist.Push(maxX)
	e.minHist.Push(minX)

	speedMax := e.cam.SpeedMax
	speed := clamp(e.meanHist.Displacement(evicted, wasEvicted)*e.cam.FPS, -speedMax, speedMax)

	sliderRaw := 0.5 * (speed/speedMax + 1)
	sliderFiltered := e.slider.Update(sliderRaw)

	r := e.cam.PositionMergeRatio
	buffer := e.cam.BufferPixels
	target := clamp(r*meanX+(1-r)*balls[0].X, e.left-buffer, e.right+buffer)

	e.debug = DebugInfo{
		RawTarget:       target,
		FilteredTarget:  target,
		MeanPlayerPos:   meanX,
		CalculatedSpeed: speed,
		FocusSlider:     sliderFiltered,
	}
	e.hasDebug = true

	monitoring.Debugf("[engine %s] players=%d balls=%d mean=%.1f speed=%.1f slider=%.3f->%.3f target=%.1f",
		e.id, len(players), len(balls), meanX, speed, sliderRaw, sliderFiltered, target)
	return target, nil
}

// runningMean averages xs incrementally so large finite inputs cannot
// overflow the way a sum-then-divide would.
func runningMean(xs []float64) float64 {
	m := 0.0
	for i, x := range xs {
		n := float64(i + 1)
		m += x/n - m/n
	}
	return m
}

// lastMean returns the newest mean player position in the history.
func (e *Engine) lastMean() (float64, bool) {
	if e.meanHist == nil {
		return 0, false
	}
	return e.meanHist.Last()
}

// initHistory sizes the three histories and seeds each with the first
// frame's own statistic (mean into meanHist, max into maxHist, min into
// minHist) so the first speed estimate is zero. Together with
// Displacement counting the evicted sample, speed covers the last
// capacity frame intervals: with capacity 1 a 100px step at 1 fps reads
// as 100 px/s on the second frame.
func (e *Engine) initHistory(meanX, maxX, minX float64) {
	e.meanHist = NewHistory(e.capacity)
	e.maxHist = NewHistory(e.capacity)
	e.minHist = NewHistory(e.capacity)
	e.meanHist.Fill(meanX)
	e.maxHist.Fill(maxX)
	e.minHist.Fill(minX)
	monitoring.Logf("[engine %s] history initialised: capacity=%d seed=%.1f", e.id, e.capacity, meanX)
}

// Transfer maps a target X through the framing curve configured in the
// current tuning snapshot.
func (e *Engine) Transfer(x float64) (Framing, error) {
	m, err := NewTransferMapper(e.src.Params().Transfer)
	if err != nil {
		return Framing{}, err
	}
	return m.Transfer(x)
}
