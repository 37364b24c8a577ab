// Package raster provides concrete page rasterizers for the measurement
// engine. A FileDocument treats a list of image files as a paginated
// document, one bitmap per page.
package raster

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// Page is one scanned sheet of a blueprint document.
type Page struct {
	Path string  // source file path
	DPI  float64 // scanner resolution, 0 if unknown
}

// FileDocument rasterizes a set of image files as document pages. It
// implements document.Rasterizer.
type FileDocument struct {
	pages []Page
}

// Open builds a FileDocument from image file paths, one page per file,
// in the given order. Fails if any path has an unsupported extension.
func Open(paths []string) (*FileDocument, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("raster: no pages")
	}

	pages := make([]Page, len(paths))
	for i, path := range paths {
		if !IsSupportedFormat(path) {
			return nil, fmt.Errorf("raster: unsupported page format %q", path)
		}
		page := Page{Path: path}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".tiff" || ext == ".tif" {
			if dpi, err := extractTIFFDPI(path); err == nil {
				page.DPI = dpi
			}
		}
		pages[i] = page
	}
	return &FileDocument{pages: pages}, nil
}

// PageCount returns the number of pages.
func (d *FileDocument) PageCount() int {
	return len(d.pages)
}

// Pages returns the page descriptors.
func (d *FileDocument) Pages() []Page {
	return d.pages
}

// RenderPage decodes a page and scales it by renderScale using bilinear
// interpolation. A renderScale of 1 returns the native pixel size.
func (d *FileDocument) RenderPage(pageIndex int, renderScale float64) (image.Image, error) {
	if pageIndex < 0 || pageIndex >= len(d.pages) {
		return nil, fmt.Errorf("raster: page %d out of range [0,%d)", pageIndex, len(d.pages))
	}
	if renderScale <= 0 {
		return nil, fmt.Errorf("raster: render scale %v must be positive", renderScale)
	}

	file, err := os.Open(d.pages[pageIndex].Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("raster: decode %s: %w", d.pages[pageIndex].Path, err)
	}

	if renderScale == 1 {
		return src, nil
	}

	bounds := src.Bounds()
	w := int(float64(bounds.Dx()) * renderScale)
	h := int(float64(bounds.Dy()) * renderScale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst, nil
}

// SupportedFormats returns the list of supported page image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// extractTIFFDPI reads the resolution tags from a TIFF header. Scanned
// blueprints usually carry the scanner DPI here.
func extractTIFFDPI(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches unless stated otherwise

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 { // RATIONAL
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 { // RATIONAL
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT
				resUnit = uint16(valueOffset)
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if resUnit == 3 {
		// Resolution was per centimeter
		dpi *= 2.54
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	return dpi, nil
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
