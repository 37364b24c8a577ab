// Package calibration converts a user-picked known distance into a
// persistent real-units-per-pixel ratio for a document.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"blueprint-measure/internal/measure"
	"blueprint-measure/pkg/geometry"
)

// ErrInvalidCalibration reports non-positive or non-finite calibration
// input. It is recoverable: the caller surfaces it for re-entry and the
// picked points remain valid.
var ErrInvalidCalibration = errors.New("invalid calibration")

// Record holds one completed calibration. PixelDistance is measured in
// document space, before the viewport's runtime scale, so the derived
// ratio is invariant under pan, zoom, and rotation. A record is immutable;
// recalibrating replaces it wholesale.
type Record struct {
	PixelDistance float64            `json:"pixel_distance"`
	RealDistance  float64            `json:"real_distance"`
	Unit          measure.LengthUnit `json:"unit"`
}

// Ratio returns real units per document pixel.
func (r Record) Ratio() float64 {
	return r.RealDistance / r.PixelDistance
}

// Store owns the optional calibration record for one document.
type Store struct {
	record *Record
}

// NewStore creates an uncalibrated store.
func NewStore() *Store {
	return &Store{}
}

// Complete turns a two-point pick plus a user-supplied real distance into
// a calibration record, replacing any existing one. The points are in
// document space. Replacing a calibration invalidates the cached value of
// every existing measurement; recomputing them is the caller's job.
func (s *Store) Complete(p1, p2 geometry.Point2D, realDistance float64, unit measure.LengthUnit) (Record, error) {
	if !p1.IsFinite() || !p2.IsFinite() {
		return Record{}, fmt.Errorf("%w: non-finite pick point", ErrInvalidCalibration)
	}
	if math.IsNaN(realDistance) || math.IsInf(realDistance, 0) || realDistance <= 0 {
		return Record{}, fmt.Errorf("%w: real distance must be positive, got %v", ErrInvalidCalibration, realDistance)
	}
	if !unit.Valid() {
		return Record{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidCalibration, unit)
	}

	pixelDistance := p1.Distance(p2)
	if pixelDistance <= 0 {
		return Record{}, fmt.Errorf("%w: degenerate zero-length pick", ErrInvalidCalibration)
	}

	rec := Record{
		PixelDistance: pixelDistance,
		RealDistance:  realDistance,
		Unit:          unit,
	}
	s.record = &rec
	return rec, nil
}

// Set installs a previously persisted record, e.g. when a project loads.
func (s *Store) Set(rec Record) error {
	if rec.PixelDistance <= 0 || rec.RealDistance <= 0 || !rec.Unit.Valid() {
		return fmt.Errorf("%w: stored record %+v", ErrInvalidCalibration, rec)
	}
	s.record = &rec
	return nil
}

// Clear removes the calibration, returning the store to the uncalibrated
// state.
func (s *Store) Clear() {
	s.record = nil
}

// Ratio returns the current real-units-per-pixel ratio. The second return
// is false while uncalibrated.
func (s *Store) Ratio() (float64, bool) {
	if s.record == nil {
		return 0, false
	}
	return s.record.Ratio(), true
}

// RatioOrDefault returns the calibrated ratio and unit, or the documented
// fallback (100 px = 1 m) while uncalibrated. Callers must label values
// computed from the fallback as approximate.
func (s *Store) RatioOrDefault() (ratio float64, unit measure.LengthUnit, calibrated bool) {
	if s.record == nil {
		return measure.DefaultRatio, measure.DefaultUnit, false
	}
	return s.record.Ratio(), s.record.Unit, true
}

// IsCalibrated reports whether a calibration record exists.
func (s *Store) IsCalibrated() bool {
	return s.record != nil
}

// Record returns a copy of the current record, if any.
func (s *Store) Record() (Record, bool) {
	if s.record == nil {
		return Record{}, false
	}
	return *s.record, true
}
