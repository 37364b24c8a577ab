// Package measure computes real-world measurement values from
// document-space points and a calibration ratio. All functions are pure
// and total over their documented preconditions.
package measure

import (
	"math"

	"blueprint-measure/pkg/geometry"
)

// DefaultRatio is the fallback real-units-per-pixel ratio used while the
// document is uncalibrated: 100 document pixels correspond to 1 meter.
// Values computed with it must be displayed as approximate.
const DefaultRatio = 1.0 / 100.0

// DefaultUnit is the unit implied by DefaultRatio.
const DefaultUnit = Meters

// Distance returns the real-world distance between two document-space
// points under the given ratio (real units per document pixel).
func Distance(p1, p2 geometry.Point2D, ratio float64) float64 {
	return p1.Distance(p2) * ratio
}

// Area returns the real-world area of the polygon under the given ratio.
// Area scales with the square of the linear ratio. The polygon needs at
// least 3 vertices; fewer yields 0, which callers treat as degenerate and
// must not commit.
func Area(points []geometry.Point2D, ratio float64) float64 {
	return geometry.PolygonArea(points) * ratio * ratio
}

// Angle returns the angle in degrees at vertex between the rays
// vertex→a and vertex→b, in [0, 180]. Angles are independent of the
// calibration ratio. Coincident points yield 0.
func Angle(a, vertex, b geometry.Point2D) float64 {
	u := a.Sub(vertex)
	w := b.Sub(vertex)

	dot := u.X*w.X + u.Y*w.Y
	cross := u.X*w.Y - u.Y*w.X

	if dot == 0 && cross == 0 {
		return 0
	}
	deg := math.Atan2(math.Abs(cross), dot) * 180 / math.Pi
	return deg
}

// Centroid returns the label anchor for a set of document-space points.
// It is used for placement only and never persisted.
func Centroid(points []geometry.Point2D) geometry.Point2D {
	return geometry.Centroid(points)
}
