// Package detect runs frames through an external detection model and
// overlays the results. The model is loaded once at startup and read-only
// thereafter; its absence is a valid permanent state, not an error.
package detect

import (
	"image"

	"github.com/visiona/streamview/internal/capture"
)

// DefaultMinConfidence is the draw threshold: detections scoring below it
// are never overlaid.
const DefaultMinConfidence = 0.3

// Detection is a single classified region of a frame.
type Detection struct {
	// Label is the class name
	Label string
	// Confidence is the model's score in [0,1]
	Confidence float64
	// Box is the bounding box in frame pixel coordinates
	Box image.Rectangle
}

// Detector is the injected capability boundary around the external model.
// Tests substitute a fake returning fixed detections, decoupling the viewer
// loop from the real model's latency and availability.
type Detector interface {
	// Detect analyzes a frame and returns detections. The frame remains
	// owned by the caller.
	Detect(f *capture.Frame) ([]Detection, error)
	// Close releases model resources.
	Close() error
}
