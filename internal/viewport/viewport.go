// Package viewport owns the affine transform between document space and
// screen space. All coordinate conversion goes through ToScreen/ToDocument;
// no other code is allowed to hand-roll the transform math.
package viewport

import (
	"math"

	"blueprint-measure/pkg/geometry"
)

const (
	// MinScale and MaxScale bound the zoom factor.
	MinScale = 0.1
	MaxScale = 10.0

	// ZoomStep is the multiplicative factor for a single zoom action.
	ZoomStep = 1.25
)

// Viewport holds the view transform for one open document view:
// uniform scale, rotation in degrees, and a translation relative to
// the view center. Document points map to screen points by applying
// scale, then rotation about the view center, then translation.
type Viewport struct {
	translateX float64
	translateY float64
	rotation   float64 // degrees, [0, 360)
	scale      float64

	viewSize geometry.Size

	forward geometry.AffineTransform
	inverse geometry.AffineTransform
}

// New creates a viewport at the identity transform for a view of the
// given size.
func New(viewWidth, viewHeight float64) *Viewport {
	v := &Viewport{
		scale:    1.0,
		viewSize: geometry.NewSize(viewWidth, viewHeight),
	}
	v.rebuild()
	return v
}

// rebuild recomputes the cached forward and inverse matrices.
// Forward: translate(center + pan) * rotate * scale.
func (v *Viewport) rebuild() {
	center := v.viewSize.Center()
	v.forward = geometry.Translation(center.X+v.translateX, center.Y+v.translateY).
		Compose(geometry.Rotation(v.rotation * math.Pi / 180)).
		Compose(geometry.Scaling(v.scale))

	// Scale is clamped to [MinScale, MaxScale], so the forward matrix is
	// always invertible.
	v.inverse, _ = v.forward.Inverse()
}

// ToScreen maps a document-space point to screen space.
func (v *Viewport) ToScreen(p geometry.Point2D) geometry.Point2D {
	return v.forward.Apply(p)
}

// ToDocument maps a screen-space point back to document space. It is the
// exact algebraic inverse of ToScreen.
func (v *Viewport) ToDocument(p geometry.Point2D) geometry.Point2D {
	return v.inverse.Apply(p)
}

// Transform returns the current forward transform matrix. The overlay
// renderer consumes this read-only.
func (v *Viewport) Transform() geometry.AffineTransform {
	return v.forward
}

// Zoom multiplies the scale by factor, clamped to [MinScale, MaxScale].
func (v *Viewport) Zoom(factor float64) {
	s := v.scale * factor
	if s < MinScale {
		s = MinScale
	}
	if s > MaxScale {
		s = MaxScale
	}
	v.scale = s
	v.rebuild()
}

// ZoomIn increases the zoom by one step.
func (v *Viewport) ZoomIn() {
	v.Zoom(ZoomStep)
}

// ZoomOut decreases the zoom by one step.
func (v *Viewport) ZoomOut() {
	v.Zoom(1 / ZoomStep)
}

// Rotate advances the rotation by 90 degrees, wrapping at 360. The
// transform math supports arbitrary angles but only quarter turns are
// exposed as an action.
func (v *Viewport) Rotate() {
	v.rotation = math.Mod(v.rotation+90, 360)
	v.rebuild()
}

// Pan shifts the view by a screen-space delta. Translation is
// unconstrained; documents may be panned fully off-screen.
func (v *Viewport) Pan(dx, dy float64) {
	v.translateX += dx
	v.translateY += dy
	v.rebuild()
}

// Reset returns the transform to identity: no pan, no rotation, scale 1.
func (v *Viewport) Reset() {
	v.translateX = 0
	v.translateY = 0
	v.rotation = 0
	v.scale = 1
	v.rebuild()
}

// SetViewSize updates the view dimensions the transform is centered on.
func (v *Viewport) SetViewSize(width, height float64) {
	v.viewSize = geometry.NewSize(width, height)
	v.rebuild()
}

// ViewSize returns the current view dimensions.
func (v *Viewport) ViewSize() geometry.Size {
	return v.viewSize
}

// Scale returns the current zoom factor.
func (v *Viewport) Scale() float64 {
	return v.scale
}

// Rotation returns the current rotation in degrees, [0, 360).
func (v *Viewport) Rotation() float64 {
	return v.rotation
}

// Translation returns the current pan offset in screen pixels.
func (v *Viewport) Translation() (dx, dy float64) {
	return v.translateX, v.translateY
}
