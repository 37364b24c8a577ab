package measure

import (
	"math"
	"testing"

	"blueprint-measure/pkg/geometry"
)

func TestDistance345(t *testing.T) {
	d := Distance(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 3, Y: 4}, 1)
	if math.Abs(d-5.0) > 1e-12 {
		t.Errorf("Distance failed: expected 5, got %v", d)
	}
}

func TestDistanceScalesLinearly(t *testing.T) {
	p1 := geometry.Point2D{X: 0, Y: 0}
	p2 := geometry.Point2D{X: 3, Y: 4}

	d := Distance(p1, p2, 0.5)
	if math.Abs(d-2.5) > 1e-12 {
		t.Errorf("Distance with ratio 0.5: expected 2.5, got %v", d)
	}
}

func TestAreaUnitSquare(t *testing.T) {
	square := []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	if a := Area(square, 1); math.Abs(a-1.0) > 1e-12 {
		t.Errorf("unit square with ratio 1: expected 1, got %v", a)
	}
	// Area scales with the square of the linear ratio.
	if a := Area(square, 2); math.Abs(a-4.0) > 1e-12 {
		t.Errorf("unit square with ratio 2: expected 4, got %v", a)
	}
}

func TestAreaScalingLaw(t *testing.T) {
	points := []geometry.Point2D{{X: 0, Y: 0}, {X: 7, Y: 1}, {X: 5, Y: 6}, {X: -2, Y: 4}}

	base := Area(points, 1)
	for _, ratio := range []float64{0.25, 0.5, 3, 17.5} {
		got := Area(points, ratio)
		want := base * ratio * ratio
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("ratio %v: expected %v, got %v", ratio, want, got)
		}
	}
}

func TestAreaTriangle(t *testing.T) {
	triangle := []geometry.Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}}

	if a := Area(triangle, 1); math.Abs(a-6.0) > 1e-12 {
		t.Errorf("3-4-5 triangle: expected 6, got %v", a)
	}
}

func TestAngleRightAngle(t *testing.T) {
	a := Angle(geometry.Point2D{X: 1, Y: 0}, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 0, Y: 1})
	if math.Abs(a-90.0) > 1e-9 {
		t.Errorf("expected 90 degrees, got %v", a)
	}
}

func TestAngleStraightLine(t *testing.T) {
	a := Angle(geometry.Point2D{X: -1, Y: 0}, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 1, Y: 0})
	if math.Abs(a-180.0) > 1e-9 {
		t.Errorf("expected 180 degrees, got %v", a)
	}
}

func TestAngleRatioInvariant(t *testing.T) {
	p1 := geometry.Point2D{X: 3, Y: 1}
	vertex := geometry.Point2D{X: 1, Y: 1}
	p2 := geometry.Point2D{X: 1, Y: 5}

	m1 := NewAngle(p1, vertex, p2, 1, Meters)
	m2 := NewAngle(p1, vertex, p2, 42, Feet)
	if math.Abs(m1.Value-m2.Value) > 1e-12 {
		t.Errorf("angle should ignore ratio: %v vs %v", m1.Value, m2.Value)
	}
}

func TestAngleCoincidentPoints(t *testing.T) {
	p := geometry.Point2D{X: 2, Y: 2}
	if a := Angle(p, p, p); a != 0 {
		t.Errorf("coincident points should yield 0, got %v", a)
	}
}

func TestAreaUnitLabels(t *testing.T) {
	cases := map[LengthUnit]string{
		Meters:      "m²",
		Centimeters: "cm²",
		Millimeters: "mm²",
		Feet:        "ft²",
		Inches:      "in²",
	}
	for unit, want := range cases {
		if got := AreaUnit(unit); got != want {
			t.Errorf("AreaUnit(%s) = %s, want %s", unit, got, want)
		}
	}
}

func TestUncalibratedFormatting(t *testing.T) {
	if got := FormatLength(2.5, Meters, false); got != "~2.50 m" {
		t.Errorf("uncalibrated length label: got %q", got)
	}
	if got := FormatLength(2.5, Meters, true); got != "2.50 m" {
		t.Errorf("calibrated length label: got %q", got)
	}
	if got := FormatArea(9, Feet, false); got != "~9.00 ft²" {
		t.Errorf("uncalibrated area label: got %q", got)
	}
}

func TestRecompute(t *testing.T) {
	m := NewDistance(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 3, Y: 4}, 1, Meters)

	updated := m.Recompute(2, Feet)
	if math.Abs(updated.Value-10.0) > 1e-12 {
		t.Errorf("recomputed value: expected 10, got %v", updated.Value)
	}
	if updated.Unit != "ft" {
		t.Errorf("recomputed unit: expected ft, got %s", updated.Unit)
	}
	// Points and identity are untouched.
	if updated.ID != m.ID || len(updated.Points) != 2 {
		t.Error("recompute must not change identity or points")
	}
}

func TestRecomputeAreaSquaresRatio(t *testing.T) {
	square := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	m := NewArea(square, 1, Meters)

	updated := m.Recompute(3, Meters)
	if math.Abs(updated.Value-900.0) > 1e-9 {
		t.Errorf("area recompute should square the ratio: got %v", updated.Value)
	}
}

func TestNewMeasurementsHaveDistinctIDs(t *testing.T) {
	a := NewDistance(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 1, Y: 0}, 1, Meters)
	b := NewDistance(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 1, Y: 0}, 1, Meters)
	if a.ID == b.ID || a.ID == "" {
		t.Error("measurements must get distinct non-empty IDs")
	}
}
