package measure

import "fmt"

// LengthUnit identifies the linear unit a calibration was entered in.
type LengthUnit string

const (
	Meters      LengthUnit = "m"
	Centimeters LengthUnit = "cm"
	Millimeters LengthUnit = "mm"
	Feet        LengthUnit = "ft"
	Inches      LengthUnit = "in"
)

// Units lists the supported length units in display order.
var Units = []LengthUnit{Meters, Centimeters, Millimeters, Feet, Inches}

// Valid reports whether the unit is one of the supported length units.
func (u LengthUnit) Valid() bool {
	switch u {
	case Meters, Centimeters, Millimeters, Feet, Inches:
		return true
	}
	return false
}

func (u LengthUnit) String() string {
	return string(u)
}

// AreaUnit returns the squared-unit label for a linear unit. The label is
// derived directly from the stored unit rather than bucketing into
// metric/imperial.
func AreaUnit(u LengthUnit) string {
	return string(u) + "²"
}

// FormatLength renders a linear measurement value with its unit.
// Uncalibrated values are prefixed with "~" so they read as approximate.
func FormatLength(value float64, u LengthUnit, calibrated bool) string {
	if calibrated {
		return fmt.Sprintf("%.2f %s", value, u)
	}
	return fmt.Sprintf("~%.2f %s", value, u)
}

// FormatArea renders an area measurement value with its squared unit.
func FormatArea(value float64, u LengthUnit, calibrated bool) string {
	if calibrated {
		return fmt.Sprintf("%.2f %s", value, AreaUnit(u))
	}
	return fmt.Sprintf("~%.2f %s", value, AreaUnit(u))
}

// FormatAngle renders an angle in degrees. Angles are ratio-invariant so
// they carry no calibration marker.
func FormatAngle(degrees float64) string {
	return fmt.Sprintf("%.1f°", degrees)
}
