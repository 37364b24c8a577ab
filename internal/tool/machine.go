package tool

import (
	"fmt"
	"log"

	"blueprint-measure/internal/calibration"
	"blueprint-measure/internal/measure"
	"blueprint-measure/internal/viewport"
	"blueprint-measure/pkg/geometry"
)

// Machine is the interaction state machine. All methods run on the UI
// event loop; the single point buffer serializes tool interactions, so no
// locking is needed.
type Machine struct {
	vp    *viewport.Viewport
	calib *calibration.Store

	tool   Tool
	state  State
	points []geometry.Point2D // document space

	// Reference segments collected for a multi-segment scale fit.
	segments []calibration.Segment

	// Pan drag, tracked in screen space. Panning is intentionally not
	// inverse-transformed: the view moves with the pointer.
	dragging  bool
	lastDragX float64
	lastDragY float64

	// Current pointer position in document space, for rubber-band preview.
	cursor    geometry.Point2D
	hasCursor bool

	onMeasurement        func(measure.Measurement)
	onCalibrationRequest func(p1, p2 geometry.Point2D)
}

// NewMachine creates a state machine in Idle with the pan tool active.
func NewMachine(vp *viewport.Viewport, calib *calibration.Store) *Machine {
	return &Machine{
		vp:    vp,
		calib: calib,
		tool:  ToolPan,
		state: StateIdle,
	}
}

// OnMeasurement sets the callback for committed measurements.
func (m *Machine) OnMeasurement(callback func(measure.Measurement)) {
	m.onMeasurement = callback
}

// OnCalibrationRequest sets the callback invoked once both calibration
// points are picked; the caller prompts for the real distance and unit,
// then calls FinishCalibration.
func (m *Machine) OnCalibrationRequest(callback func(p1, p2 geometry.Point2D)) {
	m.onCalibrationRequest = callback
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool {
	return m.tool
}

// State returns the current interaction state.
func (m *Machine) State() State {
	return m.state
}

// InProgress returns a copy of the buffered document-space points.
func (m *Machine) InProgress() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(m.points))
	copy(pts, m.points)
	return pts
}

// Cursor returns the latest pointer position in document space, for the
// rubber-band preview. The second return is false before the first move.
func (m *Machine) Cursor() (geometry.Point2D, bool) {
	return m.cursor, m.hasCursor
}

// SetTool switches the active tool, discarding any in-progress buffer.
func (m *Machine) SetTool(t Tool) {
	m.tool = t
	m.reset()
}

// Cancel discards the in-progress buffer without switching tools.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.points = m.points[:0]
	m.segments = m.segments[:0]
	m.dragging = false
	m.state = StateIdle
}

// PointerDown handles a press at a screen-space position. Non-finite
// coordinates are ignored; callers pre-validate pointer events, this is
// the last line of defense.
func (m *Machine) PointerDown(screen geometry.Point2D) {
	if !screen.IsFinite() {
		return
	}

	if m.tool == ToolPan {
		m.dragging = true
		m.lastDragX = screen.X
		m.lastDragY = screen.Y
		return
	}

	doc := m.vp.ToDocument(screen)

	// A click coincident with the previous pick carries no geometry;
	// ignore it rather than emit a degenerate measurement.
	if n := len(m.points); n > 0 && m.points[n-1] == doc {
		return
	}

	switch m.tool {
	case ToolDistance:
		m.points = append(m.points, doc)
		m.state = StateCollecting
		if len(m.points) == 2 {
			m.commitDistance()
		}

	case ToolArea:
		m.points = append(m.points, doc)
		m.state = StateCollecting

	case ToolAngle:
		m.points = append(m.points, doc)
		m.state = StateCollecting
		if len(m.points) == 3 {
			m.commitAngle()
		}

	case ToolCalibrate:
		m.points = append(m.points, doc)
		m.state = StateAwaitingCalibration
		if len(m.points) == 2 && m.onCalibrationRequest != nil {
			m.onCalibrationRequest(m.points[0], m.points[1])
		}
	}
}

// PointerMove handles pointer motion. While the pan tool is dragging it
// pans the viewport by the screen delta; otherwise it just tracks the
// cursor for preview drawing.
func (m *Machine) PointerMove(screen geometry.Point2D) {
	if !screen.IsFinite() {
		return
	}

	if m.dragging {
		m.vp.Pan(screen.X-m.lastDragX, screen.Y-m.lastDragY)
		m.lastDragX = screen.X
		m.lastDragY = screen.Y
		return
	}

	m.cursor = m.vp.ToDocument(screen)
	m.hasCursor = true
}

// PointerUp ends a pan drag. Other tools commit on clicks, not releases.
func (m *Machine) PointerUp(screen geometry.Point2D) {
	m.dragging = false
}

// Finish closes the current area polygon, triggered by double-click or an
// explicit finish action. With fewer than 3 points it is a silent no-op so
// a stray double-click never produces a broken measurement.
func (m *Machine) Finish() {
	if m.tool != ToolArea {
		return
	}
	if len(m.points) < 3 {
		return
	}

	ratio, unit, _ := m.calib.RatioOrDefault()
	meas := measure.NewArea(m.points, ratio, unit)
	m.points = m.points[:0]
	m.state = StateCollecting // ready for the next polygon
	if m.onMeasurement != nil {
		m.onMeasurement(meas)
	}
}

// FinishCalibration completes the calibrate flow with the user-supplied
// real distance and unit. On ErrInvalidCalibration the machine stays in
// AwaitingCalibration with the picked points intact so the user can retry
// the input without re-picking. On success the machine returns to the pan
// tool; calibration is a one-shot action per invocation.
func (m *Machine) FinishCalibration(realDistance float64, unit measure.LengthUnit) (calibration.Record, error) {
	if m.state != StateAwaitingCalibration || len(m.points) != 2 {
		return calibration.Record{}, calibration.ErrInvalidCalibration
	}

	rec, err := m.calib.Complete(m.points[0], m.points[1], realDistance, unit)
	if err != nil {
		return calibration.Record{}, err
	}

	m.SetTool(ToolPan)
	return rec, nil
}

// AddCalibrationSegment records the current two-point pick as one
// reference segment for a multi-segment scale fit and readies the
// machine for the next pick. The calibrate tool stays active; the fit is
// applied by FinishCalibrationFit once enough segments are collected.
func (m *Machine) AddCalibrationSegment(realDistance float64) error {
	if m.state != StateAwaitingCalibration || len(m.points) != 2 {
		return calibration.ErrInvalidCalibration
	}
	if m.points[0].Distance(m.points[1]) <= 0 {
		return fmt.Errorf("%w: degenerate zero-length pick", calibration.ErrInvalidCalibration)
	}
	if realDistance <= 0 {
		return fmt.Errorf("%w: real distance must be positive, got %v", calibration.ErrInvalidCalibration, realDistance)
	}

	m.segments = append(m.segments, calibration.Segment{
		P1:           m.points[0],
		P2:           m.points[1],
		RealDistance: realDistance,
	})
	m.points = m.points[:0]
	m.state = StateIdle
	return nil
}

// SegmentCount returns the number of collected reference segments.
func (m *Machine) SegmentCount() int {
	return len(m.segments)
}

// FinishCalibrationFit installs a calibration least-squares fitted from
// the collected reference segments. On error the segments are kept so
// the user can add more or retry; on success the machine returns to the
// pan tool and the segment buffer is cleared.
func (m *Machine) FinishCalibrationFit(unit measure.LengthUnit) (calibration.Record, error) {
	rec, err := m.calib.CompleteFit(m.segments, unit)
	if err != nil {
		return calibration.Record{}, err
	}

	m.SetTool(ToolPan)
	return rec, nil
}

func (m *Machine) commitDistance() {
	ratio, unit, _ := m.calib.RatioOrDefault()
	meas := measure.NewDistance(m.points[0], m.points[1], ratio, unit)
	// Stay ready for the next measurement without re-selecting the tool.
	m.points = m.points[:0]
	m.state = StateCollecting

	if m.onMeasurement != nil {
		m.onMeasurement(meas)
	}
}

func (m *Machine) commitAngle() {
	p1, vertex, p2 := m.points[0], m.points[1], m.points[2]
	m.points = m.points[:0]
	m.state = StateCollecting

	if p1 == vertex || p2 == vertex || p1 == p2 {
		// Degenerate rays; drop silently.
		log.Printf("tool: discarding degenerate angle pick")
		return
	}

	ratio, unit, _ := m.calib.RatioOrDefault()
	meas := measure.NewAngle(p1, vertex, p2, ratio, unit)
	if m.onMeasurement != nil {
		m.onMeasurement(meas)
	}
}
