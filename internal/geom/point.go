// Package geom holds the image-space coordinate types shared by the
// configuration layer and the prediction engine.
package geom

// Point is a detection or court boundary coordinate in image pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XRange returns the smallest and largest X across pts. ok is false when
// pts is empty.
func XRange(pts []Point) (minX, maxX float64, ok bool) {
	if len(pts) == 0 {
		return 0, 0, false
	}
	minX, maxX = pts[0].X, pts[0].X
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
	}
	return minX, maxX, true
}

// Xs extracts the X coordinate of every point.
func Xs(pts []Point) []float64 {
	xs := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.X
	}
	return xs
}
