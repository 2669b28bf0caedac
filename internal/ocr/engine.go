package ocr

import (
	"context"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Quad is the quadrilateral enclosing one recognized text region, corners in
// top-left, top-right, bottom-right, bottom-left order.
type Quad [4]image.Point

// Area approximates the enclosed area from the side lengths of the
// quadrilateral.
func (q Quad) Area() float64 {
	w := math.Hypot(float64(q[1].X-q[0].X), float64(q[1].Y-q[0].Y))
	h := math.Hypot(float64(q[2].X-q[1].X), float64(q[2].Y-q[1].Y))
	return w * h
}

// Result is a single raw recognition from the OCR engine.
type Result struct {
	Quad       Quad
	Text       string
	Confidence float64 // [0,1]
}

// Engine is the external OCR capability. A failed invocation is treated by
// the consensus step as yielding zero results; implementations are not
// retried.
type Engine interface {
	Recognize(ctx context.Context, img gocv.Mat) ([]Result, error)
	Close() error
}
