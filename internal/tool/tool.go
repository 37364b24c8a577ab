// Package tool turns raw pointer events into committed measurements and
// calibration requests. It owns the in-progress point buffer and is the
// only component that buffers interaction state.
package tool

// Tool represents the current interaction tool. Exactly one is active at
// a time; switching tools discards any uncommitted point buffer.
type Tool int

const (
	ToolPan Tool = iota
	ToolDistance
	ToolArea
	ToolAngle
	ToolCalibrate
)

func (t Tool) String() string {
	switch t {
	case ToolPan:
		return "Pan"
	case ToolDistance:
		return "Distance"
	case ToolArea:
		return "Area"
	case ToolAngle:
		return "Angle"
	case ToolCalibrate:
		return "Calibrate"
	default:
		return "Unknown"
	}
}

// State identifies the machine's interaction phase.
type State int

const (
	// StateIdle: no points buffered for the active tool.
	StateIdle State = iota
	// StateCollecting: one or more points buffered, measurement pending.
	StateCollecting
	// StateAwaitingCalibration: calibration points picked (or being
	// picked), pending the user-supplied real distance and unit.
	StateAwaitingCalibration
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCollecting:
		return "Collecting"
	case StateAwaitingCalibration:
		return "AwaitingCalibration"
	default:
		return "Unknown"
	}
}
