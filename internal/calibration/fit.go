package calibration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"blueprint-measure/internal/measure"
	"blueprint-measure/pkg/geometry"
)

// Segment is one reference distance for a multi-segment scale fit: a
// document-space span whose real-world length is known.
type Segment struct {
	P1           geometry.Point2D `json:"p1"`
	P2           geometry.Point2D `json:"p2"`
	RealDistance float64          `json:"real_distance"`
}

// FitRatio computes the least-squares real-units-per-pixel ratio from
// several reference segments of the same unit. A single inaccurate pick
// averages out across segments. Solves the overdetermined system
// pixel_i * ratio = real_i with QR decomposition.
func FitRatio(segments []Segment) (float64, error) {
	if len(segments) == 0 {
		return 0, fmt.Errorf("%w: no reference segments", ErrInvalidCalibration)
	}

	n := len(segments)
	A := mat.NewDense(n, 1, nil)
	B := mat.NewVecDense(n, nil)

	for i, seg := range segments {
		pixel := seg.P1.Distance(seg.P2)
		if pixel <= 0 {
			return 0, fmt.Errorf("%w: segment %d has zero pixel length", ErrInvalidCalibration, i)
		}
		if seg.RealDistance <= 0 {
			return 0, fmt.Errorf("%w: segment %d has non-positive real distance", ErrInvalidCalibration, i)
		}
		A.Set(i, 0, pixel)
		B.SetVec(i, seg.RealDistance)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}

	ratio := params.AtVec(0)
	if ratio <= 0 {
		return 0, fmt.Errorf("%w: fitted ratio %v is not positive", ErrInvalidCalibration, ratio)
	}
	return ratio, nil
}

// CompleteFit installs a calibration fitted from multiple reference
// segments. The stored record uses the combined pixel and real lengths so
// its derived ratio equals the fitted one.
func (s *Store) CompleteFit(segments []Segment, unit measure.LengthUnit) (Record, error) {
	if !unit.Valid() {
		return Record{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidCalibration, unit)
	}

	ratio, err := FitRatio(segments)
	if err != nil {
		return Record{}, err
	}

	var totalPixels float64
	for _, seg := range segments {
		totalPixels += seg.P1.Distance(seg.P2)
	}

	rec := Record{
		PixelDistance: totalPixels,
		RealDistance:  totalPixels * ratio,
		Unit:          unit,
	}
	s.record = &rec
	return rec, nil
}
