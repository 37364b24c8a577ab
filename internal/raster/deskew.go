package raster

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Deskew rotates a scanned page by a small angle (degrees, positive =
// counter-clockwise) to level tilted scans before measuring. The output
// keeps the input dimensions; corners exposed by the rotation are black.
func Deskew(img image.Image, angleDegrees float64) (image.Image, error) {
	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("raster: deskew: %w", err)
	}
	defer mat.Close()

	bounds := img.Bounds()
	center := image.Point{X: bounds.Dx() / 2, Y: bounds.Dy() / 2}

	rotation := gocv.GetRotationMatrix2D(center, angleDegrees, 1.0)
	defer rotation.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpAffine(mat, &dst, rotation, image.Point{X: bounds.Dx(), Y: bounds.Dy()})

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("raster: deskew: %w", err)
	}
	return out, nil
}

// RotateQuarter rotates a page by 90, 180, or 270 degrees. Any other
// angle returns the image unchanged; quarter turns of the page content
// are the only baked-in rotations, view rotation stays in the viewport.
func RotateQuarter(img image.Image, degrees int) (image.Image, error) {
	var code gocv.RotateFlag
	switch degrees {
	case 90:
		code = gocv.Rotate90Clockwise
	case 180:
		code = gocv.Rotate180Clockwise
	case 270:
		code = gocv.Rotate90CounterClockwise
	default:
		return img, nil
	}

	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("raster: rotate: %w", err)
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Rotate(mat, &dst, code)

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("raster: rotate: %w", err)
	}
	return out, nil
}
