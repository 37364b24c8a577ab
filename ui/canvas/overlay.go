// Overlay content types for the measure canvas.
package canvas

import (
	"blueprint-measure/internal/measure"
	"blueprint-measure/internal/tool"
	"blueprint-measure/pkg/geometry"
)

// Overlay is the read-only input to the overlay renderer: everything
// drawn on top of the page for one frame. The owner rebuilds it whenever
// the committed measurements or the in-progress buffer change; the
// renderer feeds nothing back.
type Overlay struct {
	Measurements []measure.Measurement
	InProgress   []geometry.Point2D
	Cursor       *geometry.Point2D
	Tool         tool.Tool
	Calibrated   bool
}
