package tool

import (
	"errors"
	"math"
	"testing"

	"blueprint-measure/internal/calibration"
	"blueprint-measure/internal/measure"
	"blueprint-measure/internal/viewport"
	"blueprint-measure/pkg/geometry"
)

func newTestMachine() (*Machine, *viewport.Viewport, *calibration.Store, *[]measure.Measurement) {
	vp := viewport.New(800, 600)
	calib := calibration.NewStore()
	m := NewMachine(vp, calib)

	committed := &[]measure.Measurement{}
	m.OnMeasurement(func(meas measure.Measurement) {
		*committed = append(*committed, meas)
	})
	return m, vp, calib, committed
}

func TestDistanceTwoClicks(t *testing.T) {
	m, vp, calib, committed := newTestMachine()
	_, _ = calib.Complete(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 100, Y: 0}, 1, measure.Meters)
	m.SetTool(ToolDistance)

	// Click two screen points 500 px apart: (3,4)*100 scaled triangle.
	p1 := vp.ToScreen(geometry.Point2D{X: 0, Y: 0})
	p2 := vp.ToScreen(geometry.Point2D{X: 300, Y: 400})
	m.PointerDown(p1)
	if m.State() != StateCollecting {
		t.Fatalf("after first click: state %v", m.State())
	}
	m.PointerDown(p2)

	if len(*committed) != 1 {
		t.Fatalf("expected 1 committed measurement, got %d", len(*committed))
	}
	meas := (*committed)[0]
	if meas.Kind != measure.KindDistance {
		t.Errorf("kind: got %v", meas.Kind)
	}
	// 500 px at 1 m / 100 px
	if math.Abs(meas.Value-5.0) > 1e-9 {
		t.Errorf("value: expected 5, got %v", meas.Value)
	}
	if meas.Unit != "m" {
		t.Errorf("unit: got %s", meas.Unit)
	}
}

func TestDistanceRepeatsWithoutReselect(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolDistance)

	clicks := []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 50}, {X: 0, Y: 150}}
	for _, doc := range clicks {
		m.PointerDown(vp.ToScreen(doc))
	}

	if len(*committed) != 2 {
		t.Fatalf("expected 2 independent measurements, got %d", len(*committed))
	}
	if (*committed)[0].ID == (*committed)[1].ID {
		t.Error("consecutive measurements must be distinct records")
	}
	if len(m.InProgress()) != 0 {
		t.Error("buffer should be empty after each commit")
	}
}

func TestToolSwitchDiscardsBuffer(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolDistance)
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 10, Y: 10}))

	m.SetTool(ToolArea)

	if len(*committed) != 0 {
		t.Errorf("no measurement should be committed, got %d", len(*committed))
	}
	if len(m.InProgress()) != 0 {
		t.Error("buffer must be discarded on tool switch")
	}
	if m.State() != StateIdle {
		t.Errorf("expected Idle after tool switch, got %v", m.State())
	}
}

func TestAreaPolygonFinish(t *testing.T) {
	m, vp, calib, committed := newTestMachine()
	_, _ = calib.Complete(geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 1, Y: 0}, 1, measure.Meters)
	m.SetTool(ToolArea)

	// 3-4-5 right triangle, area 6 at ratio 1
	for _, doc := range []geometry.Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}} {
		m.PointerDown(vp.ToScreen(doc))
	}
	m.Finish()

	if len(*committed) != 1 {
		t.Fatalf("expected 1 area measurement, got %d", len(*committed))
	}
	meas := (*committed)[0]
	if meas.Kind != measure.KindArea {
		t.Errorf("kind: got %v", meas.Kind)
	}
	if math.Abs(meas.Value-6.0) > 1e-9 {
		t.Errorf("area: expected 6, got %v", meas.Value)
	}
	if meas.Unit != "m²" {
		t.Errorf("unit: got %s", meas.Unit)
	}
	if len(m.InProgress()) != 0 {
		t.Error("buffer should clear after finish")
	}
}

func TestAreaFinishUnderThreePointsIsNoOp(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolArea)

	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 4, Y: 0}))
	m.Finish()

	if len(*committed) != 0 {
		t.Errorf("finish with 2 points must be a no-op, got %d measurements", len(*committed))
	}
	if len(m.InProgress()) != 2 {
		t.Error("a no-op finish must keep the buffer")
	}
}

func TestAngleThreeClicks(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolAngle)

	for _, doc := range []geometry.Point2D{{X: 10, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 10}} {
		m.PointerDown(vp.ToScreen(doc))
	}

	if len(*committed) != 1 {
		t.Fatalf("expected 1 angle measurement, got %d", len(*committed))
	}
	meas := (*committed)[0]
	if math.Abs(meas.Value-90.0) > 1e-6 {
		t.Errorf("angle: expected 90, got %v", meas.Value)
	}
}

func TestAngleCoincidentEndpointsDropped(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolAngle)

	// Both ray endpoints on the same point, distinct vertex.
	for _, doc := range []geometry.Point2D{{X: 10, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}} {
		m.PointerDown(vp.ToScreen(doc))
	}

	if len(*committed) != 0 {
		t.Fatalf("coincident ray endpoints must not commit, got %d measurement(s)", len(*committed))
	}
	if len(m.InProgress()) != 0 {
		t.Errorf("buffer should be cleared after the dropped pick, got %d points", len(m.InProgress()))
	}
}

func TestCoincidentClickIgnored(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolDistance)

	screen := vp.ToScreen(geometry.Point2D{X: 5, Y: 5})
	m.PointerDown(screen)
	m.PointerDown(screen)

	if len(*committed) != 0 {
		t.Error("coincident second click must not commit a zero-length measurement")
	}
	if len(m.InProgress()) != 1 {
		t.Errorf("first pick should remain buffered, got %d points", len(m.InProgress()))
	}
}

func TestCalibrationFlow(t *testing.T) {
	m, vp, calib, _ := newTestMachine()

	var reqP1, reqP2 geometry.Point2D
	requested := false
	m.OnCalibrationRequest(func(p1, p2 geometry.Point2D) {
		reqP1, reqP2 = p1, p2
		requested = true
	})

	m.SetTool(ToolCalibrate)
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	if m.State() != StateAwaitingCalibration {
		t.Fatalf("after first pick: state %v", m.State())
	}
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 200, Y: 0}))

	if !requested {
		t.Fatal("second pick should request calibration input")
	}
	if reqP1.Distance(reqP2) != 200 {
		t.Errorf("picked document span: expected 200 px, got %v", reqP1.Distance(reqP2))
	}

	rec, err := m.FinishCalibration(4, measure.Meters)
	if err != nil {
		t.Fatalf("FinishCalibration failed: %v", err)
	}
	if math.Abs(rec.Ratio()-0.02) > 1e-12 {
		t.Errorf("ratio: expected 0.02, got %v", rec.Ratio())
	}
	if !calib.IsCalibrated() {
		t.Error("store should be calibrated")
	}
	// Calibration is one-shot: machine returns to pan.
	if m.Tool() != ToolPan || m.State() != StateIdle {
		t.Errorf("expected Idle(Pan) after calibration, got %v(%v)", m.State(), m.Tool())
	}
}

func TestCalibrationInvalidInputRetries(t *testing.T) {
	m, vp, calib, _ := newTestMachine()
	m.OnCalibrationRequest(func(p1, p2 geometry.Point2D) {})
	m.SetTool(ToolCalibrate)
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 100, Y: 0}))

	_, err := m.FinishCalibration(-1, measure.Meters)
	if !errors.Is(err, calibration.ErrInvalidCalibration) {
		t.Fatalf("expected ErrInvalidCalibration, got %v", err)
	}
	// Machine stays in the calibration sub-state; the picks survive.
	if m.State() != StateAwaitingCalibration || len(m.InProgress()) != 2 {
		t.Errorf("failed input must keep state: %v with %d points", m.State(), len(m.InProgress()))
	}

	rec, err := m.FinishCalibration(2, measure.Meters)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if math.Abs(rec.Ratio()-0.02) > 1e-12 {
		t.Errorf("retry ratio: expected 0.02, got %v", rec.Ratio())
	}
	_ = calib
}

func TestCalibrationSegmentFit(t *testing.T) {
	m, vp, calib, _ := newTestMachine()
	m.OnCalibrationRequest(func(p1, p2 geometry.Point2D) {})
	m.SetTool(ToolCalibrate)

	// Two consistent reference segments: 100 px = 2 m, 200 px = 4 m.
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 100, Y: 0}))
	if err := m.AddCalibrationSegment(2); err != nil {
		t.Fatalf("first segment: %v", err)
	}
	if m.Tool() != ToolCalibrate {
		t.Fatal("calibrate tool must stay armed between segment picks")
	}

	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 50}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 200, Y: 50}))
	if err := m.AddCalibrationSegment(4); err != nil {
		t.Fatalf("second segment: %v", err)
	}
	if m.SegmentCount() != 2 {
		t.Fatalf("segment count: expected 2, got %d", m.SegmentCount())
	}

	rec, err := m.FinishCalibrationFit(measure.Meters)
	if err != nil {
		t.Fatalf("FinishCalibrationFit failed: %v", err)
	}
	if math.Abs(rec.Ratio()-0.02) > 1e-9 {
		t.Errorf("fitted ratio: expected 0.02, got %v", rec.Ratio())
	}
	if !calib.IsCalibrated() {
		t.Error("store should be calibrated after the fit")
	}
	if m.Tool() != ToolPan || m.SegmentCount() != 0 {
		t.Errorf("expected Pan with cleared segments, got %v with %d segments", m.Tool(), m.SegmentCount())
	}
}

func TestAddCalibrationSegmentRequiresTwoPicks(t *testing.T) {
	m, vp, _, _ := newTestMachine()
	m.OnCalibrationRequest(func(p1, p2 geometry.Point2D) {})
	m.SetTool(ToolCalibrate)

	if err := m.AddCalibrationSegment(2); !errors.Is(err, calibration.ErrInvalidCalibration) {
		t.Fatalf("no picks: expected ErrInvalidCalibration, got %v", err)
	}

	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 100, Y: 0}))
	if err := m.AddCalibrationSegment(-1); !errors.Is(err, calibration.ErrInvalidCalibration) {
		t.Fatalf("negative distance: expected ErrInvalidCalibration, got %v", err)
	}
	// The picks survive a rejected distance.
	if len(m.InProgress()) != 2 {
		t.Errorf("rejected input must keep the picks, got %d points", len(m.InProgress()))
	}

	// Switching tools discards collected segments.
	if err := m.AddCalibrationSegment(2); err != nil {
		t.Fatalf("valid segment: %v", err)
	}
	m.SetTool(ToolDistance)
	if m.SegmentCount() != 0 {
		t.Errorf("tool switch must discard segments, got %d", m.SegmentCount())
	}
}

func TestCalibrationZoomInvariance(t *testing.T) {
	// Calibrating, zooming, and measuring must agree with measuring first:
	// the stored ratio only ever sees document-space distances.
	m, vp, calib, _ := newTestMachine()
	m.OnCalibrationRequest(func(p1, p2 geometry.Point2D) {})
	m.SetTool(ToolCalibrate)
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 100, Y: 0}))
	_, _ = m.FinishCalibration(1, measure.Meters)

	before, _ := calib.Ratio()
	vp.Zoom(5)
	after, _ := calib.Ratio()
	if before != after {
		t.Errorf("zoom changed the stored ratio: %v -> %v", before, after)
	}
}

func TestUncalibratedMeasurementUsesFallback(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolDistance)

	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 100, Y: 0}))

	if len(*committed) != 1 {
		t.Fatal("expected a measurement")
	}
	// Fallback: 100 px = 1 m, labeled approximate by the caller.
	if math.Abs((*committed)[0].Value-1.0) > 1e-12 {
		t.Errorf("fallback value: expected 1, got %v", (*committed)[0].Value)
	}
}

func TestPanDragMovesViewport(t *testing.T) {
	m, vp, _, _ := newTestMachine()
	m.SetTool(ToolPan)

	m.PointerDown(geometry.Point2D{X: 100, Y: 100})
	m.PointerMove(geometry.Point2D{X: 130, Y: 80})
	m.PointerUp(geometry.Point2D{X: 130, Y: 80})

	dx, dy := vp.Translation()
	if dx != 30 || dy != -20 {
		t.Errorf("pan delta: expected (30,-20), got (%v,%v)", dx, dy)
	}
	if len(m.InProgress()) != 0 {
		t.Error("pan must not buffer points")
	}
}

func TestRotationDoesNotAffectCommittedPoints(t *testing.T) {
	m, vp, _, committed := newTestMachine()
	m.SetTool(ToolDistance)
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 0, Y: 0}))
	m.PointerDown(vp.ToScreen(geometry.Point2D{X: 30, Y: 40}))

	meas := (*committed)[0]
	pointsBefore := append([]geometry.Point2D(nil), meas.Points...)
	valueBefore := meas.Value

	vp.Rotate()

	if meas.Value != valueBefore {
		t.Error("rotation must not change a committed value")
	}
	for i, p := range meas.Points {
		if p != pointsBefore[i] {
			t.Error("rotation must not change stored document points")
		}
	}
}
