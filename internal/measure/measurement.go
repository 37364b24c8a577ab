package measure

import (
	"github.com/google/uuid"

	"blueprint-measure/pkg/geometry"
)

// Kind identifies the type of a committed measurement.
type Kind string

const (
	KindDistance Kind = "distance"
	KindArea     Kind = "area"
	KindAngle    Kind = "angle"
)

// Default overlay colors per kind, as hex strings for JSON persistence.
const (
	ColorDistance = "#2e7dd1"
	ColorArea     = "#2ea44f"
	ColorAngle    = "#d19a2e"
)

// Measurement is a committed, persistable annotation. Points are stored
// in document space so they stay valid across viewport changes. Value is
// always derived from Points and the calibration ratio, never hand-edited;
// edits replace the record wholesale.
type Measurement struct {
	ID     string             `json:"id"`
	Kind   Kind               `json:"kind"`
	Points []geometry.Point2D `json:"points"`
	Value  float64            `json:"value"`
	Unit   string             `json:"unit"`
	Color  string             `json:"color,omitempty"`
	Name   string             `json:"name,omitempty"`
}

// NewDistance builds a distance measurement from two document-space points.
func NewDistance(p1, p2 geometry.Point2D, ratio float64, unit LengthUnit) Measurement {
	return Measurement{
		ID:     uuid.NewString(),
		Kind:   KindDistance,
		Points: []geometry.Point2D{p1, p2},
		Value:  Distance(p1, p2, ratio),
		Unit:   string(unit),
		Color:  ColorDistance,
	}
}

// NewArea builds an area measurement from at least 3 document-space points.
func NewArea(points []geometry.Point2D, ratio float64, unit LengthUnit) Measurement {
	pts := make([]geometry.Point2D, len(points))
	copy(pts, points)
	return Measurement{
		ID:     uuid.NewString(),
		Kind:   KindArea,
		Points: pts,
		Value:  Area(pts, ratio),
		Unit:   AreaUnit(unit),
		Color:  ColorArea,
	}
}

// NewAngle builds an angle measurement from three points: two ray
// endpoints around the middle vertex.
func NewAngle(p1, vertex, p2 geometry.Point2D, ratio float64, unit LengthUnit) Measurement {
	_ = ratio // angles are ratio-invariant
	return Measurement{
		ID:     uuid.NewString(),
		Kind:   KindAngle,
		Points: []geometry.Point2D{p1, vertex, p2},
		Value:  Angle(p1, vertex, p2),
		Unit:   "°",
		Color:  ColorAngle,
	}
}

// Recompute derives a fresh Value and Unit from the stored points and a
// new calibration ratio, returning an updated copy. The owning store calls
// this for every measurement when the calibration is replaced.
func (m Measurement) Recompute(ratio float64, unit LengthUnit) Measurement {
	switch m.Kind {
	case KindDistance:
		if len(m.Points) >= 2 {
			m.Value = Distance(m.Points[0], m.Points[1], ratio)
			m.Unit = string(unit)
		}
	case KindArea:
		m.Value = Area(m.Points, ratio)
		m.Unit = AreaUnit(unit)
	case KindAngle:
		// Unitless; unaffected by recalibration.
	}
	return m
}

// Label returns the formatted display value for the measurement.
func (m Measurement) Label(calibrated bool) string {
	switch m.Kind {
	case KindArea:
		return FormatArea(m.Value, LengthUnit(trimSquared(m.Unit)), calibrated)
	case KindAngle:
		return FormatAngle(m.Value)
	default:
		return FormatLength(m.Value, LengthUnit(m.Unit), calibrated)
	}
}

// LabelAnchor returns the document-space point labels are placed at.
func (m Measurement) LabelAnchor() geometry.Point2D {
	return Centroid(m.Points)
}

func trimSquared(unit string) string {
	if n := len(unit); n > 0 {
		// Unit labels store the squared marker as a suffix ("m²").
		const squared = "²"
		if n >= len(squared) && unit[n-len(squared):] == squared {
			return unit[:n-len(squared)]
		}
	}
	return unit
}
