// Package canvas provides the blueprint view: a widget that renders the
// current page under the viewport transform and forwards pointer events
// to the interaction state machine.
package canvas

import (
	"image"
	"sync"

	"blueprint-measure/internal/tool"
	"blueprint-measure/internal/viewport"
	"blueprint-measure/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// MeasureCanvas displays a document page with measurement overlays.
// All drawing reads the viewport transform; all pointer input goes
// through the state machine. The canvas itself holds no decision logic.
type MeasureCanvas struct {
	widget.BaseWidget

	vp      *viewport.Viewport
	machine *tool.Machine

	raster *fynecanvas.Raster

	// Guards frame and overlay content: frames arrive on the loader's
	// render goroutine while the draw callback reads on the UI loop.
	mu sync.RWMutex

	// Current page frame
	frame      image.Image
	frameScale float64

	// Overlay content, replaced wholesale by the owner on every change
	overlay Overlay

	dragging bool

	onChanged func() // fired after any event that alters the view
}

// NewMeasureCanvas creates a canvas bound to a viewport and state machine.
func NewMeasureCanvas(vp *viewport.Viewport, machine *tool.Machine) *MeasureCanvas {
	c := &MeasureCanvas{
		vp:         vp,
		machine:    machine,
		frameScale: 1,
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels
	c.ExtendBaseWidget(c)
	return c
}

// SetFrame sets the page bitmap to display, with the render scale it was
// rasterized at. Frame pixels divided by the scale are document pixels.
// Safe to call from the loader's render goroutine.
func (c *MeasureCanvas) SetFrame(frame image.Image, renderScale float64) {
	if renderScale <= 0 {
		renderScale = 1
	}
	c.mu.Lock()
	c.frame = frame
	c.frameScale = renderScale
	c.mu.Unlock()
	c.Refresh()
}

// SetOverlay replaces the overlay content.
func (c *MeasureCanvas) SetOverlay(overlay Overlay) {
	c.mu.Lock()
	c.overlay = overlay
	c.mu.Unlock()
	c.Refresh()
}

// OnChanged sets a callback fired after pointer events that change
// the view or the in-progress buffer.
func (c *MeasureCanvas) OnChanged(callback func()) {
	c.onChanged = callback
}

// Refresh redraws the canvas.
func (c *MeasureCanvas) Refresh() {
	c.raster.Refresh()
	c.BaseWidget.Refresh()
}

func (c *MeasureCanvas) changed() {
	if c.onChanged != nil {
		c.onChanged()
	}
	c.Refresh()
}

// Resize keeps the viewport's view size in sync with the widget.
func (c *MeasureCanvas) Resize(size fyne.Size) {
	c.BaseWidget.Resize(size)
	c.vp.SetViewSize(float64(size.Width), float64(size.Height))
}

// Tapped adds a point for the active measuring tool. The pan tool only
// reacts to drags.
func (c *MeasureCanvas) Tapped(ev *fyne.PointEvent) {
	if c.machine.Tool() == tool.ToolPan {
		return
	}
	p := eventPoint(ev)
	c.machine.PointerDown(p)
	c.machine.PointerUp(p)
	c.changed()
}

// DoubleTapped closes the in-progress area polygon.
func (c *MeasureCanvas) DoubleTapped(ev *fyne.PointEvent) {
	c.machine.Finish()
	c.changed()
}

// Dragged pans the view with the pan tool.
func (c *MeasureCanvas) Dragged(ev *fyne.DragEvent) {
	p := eventPoint(&ev.PointEvent)
	if !c.dragging {
		c.dragging = true
		// Anchor the drag where it started, not where the first event fired.
		start := geometry.NewPoint2D(p.X-float64(ev.Dragged.DX), p.Y-float64(ev.Dragged.DY))
		c.machine.PointerDown(start)
	}
	c.machine.PointerMove(p)
	c.changed()
}

// DragEnd finishes a pan drag.
func (c *MeasureCanvas) DragEnd() {
	c.dragging = false
	c.machine.PointerUp(geometry.Point2D{})
	c.changed()
}

// Scrolled zooms with the wheel, matching the usual map interaction.
func (c *MeasureCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		c.vp.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		c.vp.ZoomOut()
	}
	c.changed()
}

// MouseIn implements desktop.Hoverable.
func (c *MeasureCanvas) MouseIn(ev *desktop.MouseEvent) {}

// MouseMoved tracks the cursor for the rubber-band preview.
func (c *MeasureCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if c.dragging {
		return
	}
	c.machine.PointerMove(eventPoint(&ev.PointEvent))
	if len(c.machine.InProgress()) > 0 {
		c.Refresh()
	}
}

// MouseOut implements desktop.Hoverable.
func (c *MeasureCanvas) MouseOut() {}

// CreateRenderer implements fyne.Widget.
func (c *MeasureCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

func eventPoint(ev *fyne.PointEvent) geometry.Point2D {
	return geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
}
