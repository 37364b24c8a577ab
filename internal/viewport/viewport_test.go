package viewport

import (
	"math"
	"testing"

	"blueprint-measure/pkg/geometry"
)

func TestRoundTrip(t *testing.T) {
	v := New(800, 600)
	v.Pan(37, -120)
	v.Rotate()
	v.Zoom(2.5)

	points := []geometry.Point2D{
		{X: 0, Y: 0},
		{X: 100, Y: 250},
		{X: -40.5, Y: 7.125},
		{X: 5000, Y: -3000},
	}

	for _, p := range points {
		back := v.ToDocument(v.ToScreen(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round-trip failed for %v: got %v", p, back)
		}
	}
}

func TestRoundTripAllRotations(t *testing.T) {
	v := New(1024, 768)
	p := geometry.Point2D{X: 123.4, Y: -56.7}

	for i := 0; i < 4; i++ {
		v.Rotate()
		back := v.ToDocument(v.ToScreen(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round-trip failed at rotation %v: got %v", v.Rotation(), back)
		}
	}
}

func TestZoomClamp(t *testing.T) {
	v := New(800, 600)

	v.Zoom(1000)
	if v.Scale() != MaxScale {
		t.Errorf("zoom not clamped to max: got %v", v.Scale())
	}

	v.Zoom(1e-6)
	if v.Scale() != MinScale {
		t.Errorf("zoom not clamped to min: got %v", v.Scale())
	}
}

func TestRotateWraps(t *testing.T) {
	v := New(800, 600)

	for i := 0; i < 4; i++ {
		v.Rotate()
	}
	if v.Rotation() != 0 {
		t.Errorf("four quarter turns should wrap to 0, got %v", v.Rotation())
	}

	v.Rotate()
	if v.Rotation() != 90 {
		t.Errorf("expected 90 after one turn, got %v", v.Rotation())
	}
}

func TestPanUnconstrained(t *testing.T) {
	v := New(800, 600)
	v.Pan(1e6, -1e6)

	dx, dy := v.Translation()
	if dx != 1e6 || dy != -1e6 {
		t.Errorf("pan should be unconstrained, got (%v, %v)", dx, dy)
	}
}

func TestReset(t *testing.T) {
	v := New(800, 600)
	v.Pan(50, 60)
	v.Rotate()
	v.Zoom(3)
	v.Reset()

	if v.Scale() != 1 || v.Rotation() != 0 {
		t.Errorf("reset failed: scale=%v rotation=%v", v.Scale(), v.Rotation())
	}
	dx, dy := v.Translation()
	if dx != 0 || dy != 0 {
		t.Errorf("reset failed: translation (%v, %v)", dx, dy)
	}

	// At identity the document origin lands on the view center
	screen := v.ToScreen(geometry.Point2D{})
	if screen.X != 400 || screen.Y != 300 {
		t.Errorf("identity should center the origin, got %v", screen)
	}
}

func TestZoomKeepsDocumentPointsFixed(t *testing.T) {
	// A committed point's document coordinates are view-state independent:
	// converting any screen point to document space and back must be stable
	// regardless of intermediate zooming.
	v := New(800, 600)
	doc := v.ToDocument(geometry.Point2D{X: 200, Y: 150})

	v.Zoom(4)
	back := v.ToDocument(v.ToScreen(doc))
	if math.Abs(back.X-doc.X) > 1e-9 || math.Abs(back.Y-doc.Y) > 1e-9 {
		t.Errorf("document point drifted under zoom: %v -> %v", doc, back)
	}
}
