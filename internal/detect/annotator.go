package detect

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/visiona/streamview/internal/capture"
	"gocv.io/x/gocv"
)

var (
	boxColor   = color.RGBA{G: 255, A: 0}
	labelColor = color.RGBA{G: 255, A: 0}
)

// Annotator overlays detections onto frames. It is a pure overlay stage:
// boxes and labels are drawn onto the frame, pixel content outside the drawn
// marks is never altered, and a frame is never withheld from the caller.
//
// Detection runs synchronously in the render path. A slow model degrades the
// displayed frame rate but cannot stall acquisition indefinitely, since the
// cost is bounded by one inference per displayed frame.
type Annotator struct {
	det           Detector
	minConfidence float64
}

// NewAnnotator wraps a detector. A nil detector means the model is
// unavailable: every Annotate call becomes a no-op and the viewer behaves
// identically to having no annotation capability. minConfidence <= 0 falls
// back to DefaultMinConfidence.
func NewAnnotator(det Detector, minConfidence float64) *Annotator {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Annotator{det: det, minConfidence: minConfidence}
}

// Available reports whether a model is loaded.
func (a *Annotator) Available() bool {
	return a != nil && a.det != nil
}

// Annotate draws detections above the confidence threshold onto the frame.
// Detector errors are logged and swallowed; the frame passes through
// unannotated.
func (a *Annotator) Annotate(f *capture.Frame) {
	if !a.Available() || f == nil || f.Image == nil {
		return
	}

	detections, err := a.det.Detect(f)
	if err != nil {
		slog.Warn("detect: annotation failed, passing frame through",
			"error", err,
			"trace_id", f.TraceID,
		)
		return
	}

	for _, d := range filterDetections(detections, a.minConfidence) {
		drawDetection(f.Image, d)
	}
}

// Close releases the underlying detector, if any.
func (a *Annotator) Close() error {
	if !a.Available() {
		return nil
	}
	return a.det.Close()
}

// filterDetections keeps detections at or above the confidence threshold.
func filterDetections(in []Detection, minConfidence float64) []Detection {
	out := in[:0]
	for _, d := range in {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}

func drawDetection(img *gocv.Mat, d Detection) {
	gocv.Rectangle(img, d.Box, boxColor, 2)

	label := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
	org := image.Pt(d.Box.Min.X, d.Box.Min.Y-6)
	if org.Y < 16 {
		org.Y = d.Box.Min.Y + 20
	}
	gocv.PutText(img, label, org, gocv.FontHersheySimplex, 0.6, labelColor, 2)
}
