package cameraman

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/cameraman/internal/config"
)

// ErrDegenerateDomain is returned when the transfer curve's X domain is
// empty or not finite.
var ErrDegenerateDomain = errors.New("transfer domain x_min equals x_max")

// Framing is the output of the transfer curve.
type Framing struct {
	Y   float64 // vertical offset
	FOV float64 // field of view
}

// TransferMapper maps a horizontal target into a Framing along an inverted
// parabola: maximal at the domain centre, minimal at both edges.
type TransferMapper struct {
	p config.TransferParams
}

// NewTransferMapper validates the endpoints and returns a mapper.
func NewTransferMapper(p config.TransferParams) (TransferMapper, error) {
	if err := checkDomain(p); err != nil {
		return TransferMapper{}, err
	}
	return TransferMapper{p: p}, nil
}

func checkDomain(p config.TransferParams) error {
	for _, v := range []float64{p.XMin, p.XMax, p.YMin, p.YMax, p.FOVMin, p.FOVMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: endpoints must be finite", ErrDegenerateDomain)
		}
	}
	if p.XMax == p.XMin {
		return fmt.Errorf("%w: both are %v", ErrDegenerateDomain, p.XMin)
	}
	return nil
}

// Transfer maps x to a Framing. X outside the domain clamps to the nearest
// edge.
func (m TransferMapper) Transfer(x float64) (Framing, error) {
	t := m.p
	if err := checkDomain(t); err != nil {
		return Framing{}, err
	}

	norm := clamp((x-t.XMin)/(t.XMax-t.XMin), 0, 1)
	d := 2*norm - 1
	shape := 1 - d*d

	return Framing{
		Y:   t.YMin + (t.YMax-t.YMin)*shape,
		FOV: t.FOVMin + (t.FOVMax-t.FOVMin)*shape,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
