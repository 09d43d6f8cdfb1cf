// Package kalman provides a scalar Kalman filter for smoothing noisy
// one-dimensional measurements.
//
// The state is modelled as a random walk: the predict step leaves the
// estimate unchanged and only grows the variance by the process noise.
package kalman

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned when a filter cannot be built from the
// supplied tuning.
var ErrInvalidParams = errors.New("invalid kalman parameters")

// Params tunes a Filter1D.
type Params struct {
	ProcessNoise        float64 // Q, variance added per step
	MeasurementVariance float64 // R, must be > 0
	InitialVariance     float64 // P at construction
}

// Validate reports whether p describes a usable filter.
func (p Params) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"process_noise", p.ProcessNoise},
		{"variance_measurement", p.MeasurementVariance},
		{"variance_position", p.InitialVariance},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParams, f.name, f.v)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidParams, f.name, f.v)
		}
	}
	if p.MeasurementVariance == 0 {
		return fmt.Errorf("%w: variance_measurement must be positive", ErrInvalidParams)
	}
	return nil
}

// Filter1D is a one-dimensional Kalman filter with identity dynamics.
// It is not safe for concurrent use.
type Filter1D struct {
	x float64 // estimate
	p float64 // estimate variance
	q float64
	r float64
}

// New1D creates a filter seeded at initial.
func New1D(initial float64, params Params) (*Filter1D, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(initial) || math.IsInf(initial, 0) {
		return nil, fmt.Errorf("%w: initial estimate must be finite, got %v", ErrInvalidParams, initial)
	}
	return &Filter1D{
		x: initial,
		p: params.InitialVariance,
		q: params.ProcessNoise,
		r: params.MeasurementVariance,
	}, nil
}

// Update fuses measurement z into the estimate and returns the new
// estimate. Order matters: there is no way to rewind a filter.
func (f *Filter1D) Update(z float64) float64 {
	// Predict
	f.p += f.q

	// Correct. With p >= 0 and r > 0 the gain stays in [0, 1) so
	// (1-k)*p never goes negative.
	k := f.p / (f.p + f.r)
	f.x += k * (z - f.x)
	f.p = (1 - k) * f.p
	return f.x
}

// Estimate returns the current estimate.
func (f *Filter1D) Estimate() float64 { return f.x }

// Variance returns the current estimate variance.
func (f *Filter1D) Variance() float64 { return f.p }
