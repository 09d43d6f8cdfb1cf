package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/cameraman/internal/fsutil"
	"github.com/banshee-data/cameraman/internal/geom"
)

// ErrNoBoundaryFile is returned when neither the user nor the default
// court boundary file exists.
var ErrNoBoundaryFile = errors.New("no court boundary file found")

// LoadCourtPoints reads a court boundary file: a JSON array of {"x","y"}
// points.
func LoadCourtPoints(fsys fsutil.FileSystem, path string) ([]geom.Point, error) {
	data, err := readBounded(fsys, path)
	if err != nil {
		return nil, err
	}

	var pts []geom.Point
	if err := json.Unmarshal(data, &pts); err != nil {
		return nil, fmt.Errorf("failed to parse court boundary %s: %w", path, err)
	}
	for i, p := range pts {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("court boundary %s: point %d is not finite", path, i)
		}
	}
	return pts, nil
}
