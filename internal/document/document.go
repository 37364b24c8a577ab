// Package document models the paginated document being measured and the
// asynchronous boundary to the page rasterizer. The engine treats each
// page as an opaque bitmap; it never parses document formats itself.
package document

import (
	"fmt"
	"image"
	"log"
	"sync"
)

// Rasterizer renders one page of a document into a bitmap. Implementations
// live outside the interaction path and may be slow.
type Rasterizer interface {
	// PageCount returns the number of pages in the document.
	PageCount() int
	// RenderPage renders the page at the given index, scaled by
	// renderScale relative to the page's native pixel size.
	RenderPage(pageIndex int, renderScale float64) (image.Image, error)
}

// Frame is one completed page rasterization.
type Frame struct {
	PageIndex int
	Scale     float64
	Image     image.Image
}

// Loader serializes page rasterization with latest-request-wins
// semantics: a new request implicitly supersedes any in-flight one, and a
// stale result is dropped instead of overwriting a newer frame. The
// viewport and state machine keep working on whatever frame is current
// while a render is in flight.
type Loader struct {
	mu         sync.Mutex
	rasterizer Rasterizer
	generation uint64
	page       int
	current    *Frame
	onFrame    func(Frame)
}

// NewLoader creates a loader for the given rasterizer.
func NewLoader(r Rasterizer) *Loader {
	return &Loader{rasterizer: r}
}

// OnFrame sets the callback invoked when a fresh frame is published. It
// runs on the render goroutine, so the callback must be safe to call off
// the UI loop.
func (l *Loader) OnFrame(callback func(Frame)) {
	l.mu.Lock()
	l.onFrame = callback
	l.mu.Unlock()
}

// PageCount returns the document's page count.
func (l *Loader) PageCount() int {
	return l.rasterizer.PageCount()
}

// Page returns the most recently requested page index.
func (l *Loader) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// CurrentFrame returns the latest completed frame, if any. While a render
// is in flight this keeps returning the previous frame.
func (l *Loader) CurrentFrame() (Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return Frame{}, false
	}
	return *l.current, true
}

// RequestPage starts rasterizing a page at the given scale, superseding
// any in-flight request. Returns an error only for an out-of-range index;
// render failures are logged and leave the current frame in place.
func (l *Loader) RequestPage(pageIndex int, renderScale float64) error {
	if pageIndex < 0 || pageIndex >= l.rasterizer.PageCount() {
		return fmt.Errorf("document: page %d out of range [0,%d)", pageIndex, l.rasterizer.PageCount())
	}

	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.page = pageIndex
	l.mu.Unlock()

	go l.render(gen, pageIndex, renderScale)
	return nil
}

func (l *Loader) render(gen uint64, pageIndex int, renderScale float64) {
	img, err := l.rasterizer.RenderPage(pageIndex, renderScale)
	if err != nil {
		log.Printf("document: render page %d failed: %v", pageIndex, err)
		return
	}

	l.mu.Lock()
	if gen != l.generation {
		// A newer request superseded this one; drop the stale frame.
		l.mu.Unlock()
		return
	}
	frame := Frame{PageIndex: pageIndex, Scale: renderScale, Image: img}
	l.current = &frame
	callback := l.onFrame
	l.mu.Unlock()

	if callback != nil {
		callback(frame)
	}
}
