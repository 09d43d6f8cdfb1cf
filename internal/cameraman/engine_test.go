package cameraman

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cameraman/internal/config"
	"github.com/banshee-data/cameraman/internal/geom"
)

func newExampleEngine(t *testing.T) (*Engine, *staticSource) {
	t.Helper()
	quietLogs(t)
	src := newSource(exampleParams())
	e, err := NewEngine(src, src.Params().CourtPoints)
	require.NoError(t, err)
	return e, src
}

func TestNewEngineBounds(t *testing.T) {
	quietLogs(t)

	t.Run("from court points", func(t *testing.T) {
		src := newSource(exampleParams())
		e, err := NewEngine(src, pts(300, -20, 1700, 950))
		require.NoError(t, err)
		left, right := e.Bounds()
		assert.Equal(t, -20.0, left)
		assert.Equal(t, 1700.0, right)
	})

	t.Run("default without points", func(t *testing.T) {
		src := newSource(exampleParams())
		e, err := NewEngine(src, nil)
		require.NoError(t, err)
		left, right := e.Bounds()
		assert.Equal(t, DefaultLeftBound, left)
		assert.Equal(t, DefaultRightBound, right)
	})
}

func TestNewEngineRejectsBadCamera(t *testing.T) {
	quietLogs(t)

	tests := []struct {
		name   string
		mutate func(p *config.Params)
		want   error
	}{
		{name: "zero memory", mutate: func(p *config.Params) { p.Camera.MemoryLength = 0 }, want: ErrInvalidCapacity},
		{name: "negative fps", mutate: func(p *config.Params) { p.Camera.FPS = -1 }, want: ErrInvalidCapacity},
		{name: "capacity rounds to zero", mutate: func(p *config.Params) { p.Camera.MemoryLength = 0.2 }, want: ErrInvalidCapacity},
		{name: "zero speed max", mutate: func(p *config.Params) { p.Camera.SpeedMax = 0 }, want: ErrInvalidSpeedMax},
		{name: "bad slider tuning", mutate: func(p *config.Params) { p.Slider.VarianceMeasurement = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := exampleParams()
			tt.mutate(p)
			e, err := NewEngine(newSource(p), p.CourtPoints)
			assert.Nil(t, e)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestPredictWorkedExample(t *testing.T) {
	e, _ := newExampleEngine(t)

	_, ok := e.DebugInfo()
	assert.False(t, ok, "no debug info before the first Predict")

	target, err := e.Predict(pts(500, 600), pts(550))
	require.NoError(t, err)
	assert.Equal(t, 550.0, target)

	info, ok := e.DebugInfo()
	require.True(t, ok)
	assert.Equal(t, 550.0, info.MeanPlayerPos)
	assert.Equal(t, 0.0, info.CalculatedSpeed)
	assert.Equal(t, info.RawTarget, info.FilteredTarget)
	firstSlider := info.FocusSlider
	assert.InDelta(t, 0.5, firstSlider, 1e-12, "zero speed keeps the slider at its seed")

	_, err = e.Predict(pts(600, 700), pts(650))
	require.NoError(t, err)

	info, _ = e.DebugInfo()
	assert.Equal(t, 100.0, info.CalculatedSpeed)
	assert.Greater(t, info.FocusSlider, firstSlider)
	assert.Less(t, info.FocusSlider, 1.0)
}

func TestPredictSpeedClamps(t *testing.T) {
	e, _ := newExampleEngine(t)

	_, err := e.Predict(pts(100), pts(100))
	require.NoError(t, err)
	_, err = e.Predict(pts(900), pts(900))
	require.NoError(t, err)
	info, _ := e.DebugInfo()
	assert.Equal(t, 100.0, info.CalculatedSpeed)

	_, err = e.Predict(pts(0), pts(0))
	require.NoError(t, err)
	info, _ = e.DebugInfo()
	assert.Equal(t, -100.0, info.CalculatedSpeed)
}

func TestPredictTargetClamped(t *testing.T) {
	e, _ := newExampleEngine(t)

	target, err := e.Predict(pts(5000, 6000), pts(7000))
	require.NoError(t, err)
	assert.Equal(t, 1050.0, target)

	target, err = e.Predict(pts(-900), pts(-3000))
	require.NoError(t, err)
	assert.Equal(t, -50.0, target)
}

func TestPredictClampInvariants(t *testing.T) {
	p := exampleParams()
	p.Camera.MemoryLength = 2
	p.Camera.FPS = 5
	quietLogs(t)
	e, err := NewEngine(newSource(p), p.CourtPoints)
	require.NoError(t, err)

	inputs := []float64{-1e6, 12, 980, 1e7, 500, -3, 1000, 0, 64, 2e4, -2e4}
	for i, x := range inputs {
		target, err := e.Predict(pts(x, x+30), pts(inputs[(i+3)%len(inputs)]))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, target, -50.0)
		assert.LessOrEqual(t, target, 1050.0)

		info, _ := e.DebugInfo()
		assert.GreaterOrEqual(t, info.CalculatedSpeed, -100.0)
		assert.LessOrEqual(t, info.CalculatedSpeed, 100.0)
		assert.GreaterOrEqual(t, info.FocusSlider, 0.0)
		assert.LessOrEqual(t, info.FocusSlider, 1.0)
	}
}

func TestPredictEmptyInputsUseLastMean(t *testing.T) {
	e, _ := newExampleEngine(t)

	_, err := e.Predict(pts(400, 600), pts(900))
	require.NoError(t, err)

	// No players and no ball: both collapse onto the last mean (500).
	target, err := e.Predict(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 500.0, target)

	info, _ := e.DebugInfo()
	assert.Equal(t, 500.0, info.MeanPlayerPos)
	assert.Equal(t, 0.0, info.CalculatedSpeed)

	// Only the ball is missing.
	target, err = e.Predict(pts(700), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5*700+0.5*500, target)
}

func TestPredictFirstFrameWithoutBall(t *testing.T) {
	e, _ := newExampleEngine(t)

	target, err := e.Predict(pts(200, 400), nil)
	require.NoError(t, err)
	assert.Equal(t, 300.0, target)
}

func TestPredictFirstFrameWithoutPlayers(t *testing.T) {
	e, _ := newExampleEngine(t)

	_, err := e.Predict(nil, pts(500))
	assert.True(t, errors.Is(err, ErrNoHistory))

	_, ok := e.DebugInfo()
	assert.False(t, ok)
	assert.Equal(t, 0, e.HistoryLen())

	// The engine is still usable once players show up.
	_, err = e.Predict(pts(500), pts(500))
	assert.NoError(t, err)
}

func TestPredictHistoryBound(t *testing.T) {
	p := exampleParams()
	p.Camera.MemoryLength = 0.5
	p.Camera.FPS = 8
	p.Camera.SpeedMax = 1000
	quietLogs(t)
	e, err := NewEngine(newSource(p), p.CourtPoints)
	require.NoError(t, err)
	require.Equal(t, 4, e.Capacity())

	for i := 0; i < 3*e.Capacity(); i++ {
		_, err := e.Predict(pts(float64(10*i), float64(10*i+50)), pts(float64(10*i)))
		require.NoError(t, err)
		assert.Equal(t, e.Capacity(), e.HistoryLen())
		assert.Equal(t, e.Capacity(), e.maxHist.Len())
		assert.Equal(t, e.Capacity(), e.minHist.Len())
	}

	// Steady linear motion of 10 px/frame over a 4 frame window at 8 fps.
	info, _ := e.DebugInfo()
	assert.InDelta(t, 10*4*8.0, info.CalculatedSpeed, 1e-9)
	assert.Equal(t, []float64{105, 115, 125, 135}, e.meanHist.Values())
	assert.Equal(t, []float64{130, 140, 150, 160}, e.maxHist.Values())
	assert.Equal(t, []float64{80, 90, 100, 110}, e.minHist.Values())
}

func TestPredictDeterministic(t *testing.T) {
	quietLogs(t)
	frames := []struct{ players, balls []geom.Point }{
		{pts(500, 600), pts(550)},
		{pts(600, 700), pts(570)},
		{nil, pts(580)},
		{pts(700, 800), nil},
		{pts(650), pts(640)},
	}

	run := func() ([]float64, []DebugInfo) {
		src := newSource(exampleParams())
		e, err := NewEngine(src, src.Params().CourtPoints)
		require.NoError(t, err)
		var targets []float64
		var infos []DebugInfo
		for _, f := range frames {
			target, err := e.Predict(f.players, f.balls)
			require.NoError(t, err)
			info, _ := e.DebugInfo()
			targets = append(targets, target)
			infos = append(infos, info)
		}
		return targets, infos
	}

	t1, i1 := run()
	t2, i2 := run()
	if diff := cmp.Diff(t1, t2); diff != "" {
		t.Errorf("targets differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(i1, i2); diff != "" {
		t.Errorf("debug info differs (-first +second):\n%s", diff)
	}
}

func TestPredictRepeatedInputConverges(t *testing.T) {
	e, _ := newExampleEngine(t)

	_, err := e.Predict(pts(0), pts(0))
	require.NoError(t, err)

	// A constant +100 px/frame drift holds the raw slider at 1.0.
	prev := 0.5
	for i := 1; i <= 10; i++ {
		_, err := e.Predict(pts(float64(100*i)), pts(float64(100*i)))
		require.NoError(t, err)
		info, _ := e.DebugInfo()
		assert.Equal(t, 100.0, info.CalculatedSpeed)
		assert.Greater(t, info.FocusSlider, prev, "frame %d", i)
		assert.Less(t, info.FocusSlider, 1.0, "frame %d", i)
		prev = info.FocusSlider
	}
}

func TestPredictSameInputDifferentSlider(t *testing.T) {
	e, _ := newExampleEngine(t)

	var sliders []float64
	for _, x := range []float64{100, 300, 300, 300} {
		_, err := e.Predict(pts(x), pts(x))
		require.NoError(t, err)
		info, _ := e.DebugInfo()
		sliders = append(sliders, info.FocusSlider)
	}
	// Frames 3 and 4 share identical input but the filter keeps moving
	// back toward the neutral slider.
	assert.NotEqual(t, sliders[2], sliders[3])
	assert.Less(t, sliders[3], sliders[2])
	assert.Greater(t, sliders[3], 0.5)
}

func TestPredictPicksUpBoundaryChange(t *testing.T) {
	e, src := newExampleEngine(t)

	next := *src.Params()
	next.CourtPoints = pts(200, 400)
	next.BoundaryVersion++
	src.p.Store(&next)

	target, err := e.Predict(pts(900), pts(900))
	require.NoError(t, err)
	assert.Equal(t, 450.0, target)

	left, right := e.Bounds()
	assert.Equal(t, 200.0, left)
	assert.Equal(t, 400.0, right)

	// An empty replacement set keeps the last bounds.
	empty := next
	empty.CourtPoints = nil
	empty.BoundaryVersion++
	src.p.Store(&empty)
	_, err = e.Predict(pts(900), pts(900))
	require.NoError(t, err)
	left, right = e.Bounds()
	assert.Equal(t, 200.0, left)
	assert.Equal(t, 400.0, right)
}

func TestPredictIgnoresUnchangedBoundaryVersion(t *testing.T) {
	quietLogs(t)
	src := newSource(exampleParams())
	// Engine built from explicit points that differ from the snapshot.
	e, err := NewEngine(src, pts(100, 200))
	require.NoError(t, err)

	_, err = e.Predict(pts(150), pts(150))
	require.NoError(t, err)
	left, right := e.Bounds()
	assert.Equal(t, 100.0, left)
	assert.Equal(t, 200.0, right)
}

func TestEngineTransfer(t *testing.T) {
	e, src := newExampleEngine(t)

	f, err := e.Transfer(500)
	require.NoError(t, err)
	assert.InDelta(t, 90, f.Y, 1e-12)
	assert.InDelta(t, 60, f.FOV, 1e-12)

	bad := *src.Params()
	bad.Transfer.XMax = bad.Transfer.XMin
	src.p.Store(&bad)
	_, err = e.Transfer(500)
	assert.True(t, errors.Is(err, ErrDegenerateDomain))
}

func TestEngineIDsAreUnique(t *testing.T) {
	a, _ := newExampleEngine(t)
	b, _ := newExampleEngine(t)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestPredictNoNaNForFiniteInput(t *testing.T) {
	e, _ := newExampleEngine(t)
	speedMax := exampleParams().Camera.SpeedMax
	frames := []struct{ players, balls []geom.Point }{
		{pts(0), pts(0)},
		{pts(1e-300), pts(1e-300)},
		{pts(1e300), pts(1e300)},
		{pts(-1e300), pts(-1e300)},
		{pts(math.MaxFloat64, math.MaxFloat64), pts(math.MaxFloat64)},
		{pts(-math.MaxFloat64, math.MaxFloat64), pts(-math.MaxFloat64)},
		{pts(-math.MaxFloat64), pts(math.MaxFloat64)},
		{pts(500, 500), pts(500)},
		{pts(500, 500), pts(500)},
	}
	for i, f := range frames {
		target, err := e.Predict(f.players, f.balls)
		require.NoError(t, err)
		info, ok := e.DebugInfo()
		require.True(t, ok)

		assert.False(t, math.IsNaN(target), "frame %d target", i)
		assert.False(t, math.IsNaN(info.MeanPlayerPos), "frame %d mean", i)
		assert.False(t, math.IsNaN(info.CalculatedSpeed), "frame %d speed", i)
		assert.GreaterOrEqual(t, info.CalculatedSpeed, -speedMax, "frame %d speed", i)
		assert.LessOrEqual(t, info.CalculatedSpeed, speedMax, "frame %d speed", i)
		assert.False(t, math.IsNaN(info.FocusSlider), "frame %d slider", i)
		assert.GreaterOrEqual(t, info.FocusSlider, 0.0, "frame %d slider", i)
		assert.LessOrEqual(t, info.FocusSlider, 1.0, "frame %d slider", i)
	}
}

func TestPredictHugeFirstFrameKeepsSliderUsable(t *testing.T) {
	e, _ := newExampleEngine(t)

	_, err := e.Predict(pts(1e308, 1e308), pts(1e308))
	require.NoError(t, err)
	info, _ := e.DebugInfo()
	assert.Equal(t, 1e308, info.MeanPlayerPos)
	assert.Equal(t, 0.0, info.CalculatedSpeed)

	for i := 0; i < 2; i++ {
		_, err = e.Predict(pts(500, 500), pts(500))
		require.NoError(t, err)
	}
	info, _ = e.DebugInfo()
	assert.Equal(t, 0.0, info.CalculatedSpeed)
	assert.False(t, math.IsNaN(info.FocusSlider))
	assert.InDelta(t, 0.5, info.FocusSlider, 0.5)
}
