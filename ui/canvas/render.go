package canvas

import (
	"image"
	"image/color"

	"blueprint-measure/internal/measure"
	"blueprint-measure/internal/tool"
	"blueprint-measure/pkg/geometry"
)

var (
	backgroundColor  = color.RGBA{40, 40, 40, 255}
	previewColor     = color.RGBA{255, 210, 60, 255}
	calibrationColor = color.RGBA{230, 80, 80, 255}
)

// draw is the raster drawing function: composite the page frame through
// the viewport transform, then the overlays on top. Frame and overlay are
// snapshotted under the lock; frames may land mid-draw otherwise.
func (c *MeasureCanvas) draw(w, h int) image.Image {
	c.mu.RLock()
	frame := c.frame
	frameScale := c.frameScale
	overlay := c.overlay
	c.mu.RUnlock()

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Background
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = backgroundColor.R
		output.Pix[i+1] = backgroundColor.G
		output.Pix[i+2] = backgroundColor.B
		output.Pix[i+3] = 255
	}

	if frame != nil {
		c.compositeFrame(output, frame, frameScale, w, h)
	}

	c.drawOverlay(output, overlay)
	return output
}

// compositeFrame maps every output pixel back to document space with the
// viewport's inverse transform and samples the page frame there. The
// frame may be rasterized at a non-unit scale; document pixels times the
// frame scale are frame pixels.
func (c *MeasureCanvas) compositeFrame(output *image.RGBA, frame image.Image, frameScale float64, w, h int) {
	bounds := frame.Bounds()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			doc := c.vp.ToDocument(geometry.NewPoint2D(float64(x), float64(y)))
			srcX := int(doc.X*frameScale) + bounds.Min.X
			srcY := int(doc.Y*frameScale) + bounds.Min.Y

			if srcX < bounds.Min.X || srcX >= bounds.Max.X ||
				srcY < bounds.Min.Y || srcY >= bounds.Max.Y {
				continue
			}
			output.Set(x, y, frame.At(srcX, srcY))
		}
	}
}

// drawOverlay renders committed measurements, the in-progress buffer, and
// the rubber-band preview, all converted through the viewport transform.
func (c *MeasureCanvas) drawOverlay(output *image.RGBA, overlay Overlay) {
	for _, m := range overlay.Measurements {
		c.drawMeasurement(output, m, overlay.Calibrated)
	}

	points := overlay.InProgress
	if len(points) == 0 {
		return
	}

	col := previewColor
	if overlay.Tool == tool.ToolCalibrate {
		col = calibrationColor
	}

	screen := make([]geometry.Point2D, len(points))
	for i, p := range points {
		screen[i] = c.vp.ToScreen(p)
		drawMarker(output, screen[i], col)
	}
	for i := 1; i < len(screen); i++ {
		drawLine(output, screen[i-1], screen[i], col)
	}

	// Rubber band from the last committed pick to the cursor.
	if overlay.Cursor != nil {
		cursor := c.vp.ToScreen(*overlay.Cursor)
		drawLine(output, screen[len(screen)-1], cursor, col)
		if overlay.Tool == tool.ToolArea && len(screen) >= 2 {
			drawLine(output, cursor, screen[0], col)
		}
	}
}

func (c *MeasureCanvas) drawMeasurement(output *image.RGBA, m measure.Measurement, calibrated bool) {
	if len(m.Points) < 2 {
		return
	}
	col := parseHexColor(m.Color, previewColor)

	screen := make([]geometry.Point2D, len(m.Points))
	for i, p := range m.Points {
		screen[i] = c.vp.ToScreen(p)
		drawMarker(output, screen[i], col)
	}
	for i := 1; i < len(screen); i++ {
		drawLine(output, screen[i-1], screen[i], col)
	}
	if m.Kind == measure.KindArea {
		drawLine(output, screen[len(screen)-1], screen[0], col)
	}

	anchor := c.vp.ToScreen(m.LabelAnchor())
	drawLabel(output, m.Label(calibrated), int(anchor.X), int(anchor.Y), col, 2)
}
