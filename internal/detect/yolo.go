package detect

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/visiona/streamview/internal/capture"
	"gocv.io/x/gocv"
)

const (
	defaultInputSize    = 416
	defaultNMSThreshold = 0.4
)

// YOLOConfig configures a darknet-style YOLO detector.
type YOLOConfig struct {
	// ModelPath is the weights file (e.g. yolov3-tiny.weights)
	ModelPath string
	// ConfigPath is the network definition (e.g. yolov3-tiny.cfg)
	ConfigPath string
	// LabelsPath is a newline-separated class name file (e.g. coco.names)
	LabelsPath string
	// InputSize is the square network input in pixels (default 416)
	InputSize int
	// Confidence is the minimum objectness*class score to keep (default 0.3)
	Confidence float64
	// NMSThreshold is the non-maximum-suppression IoU threshold (default 0.4)
	NMSThreshold float64
}

// YOLODetector implements Detector with an OpenCV DNN network, CPU backend.
// Loaded once at startup, read-only afterwards.
type YOLODetector struct {
	net       gocv.Net
	outNames  []string
	labels    []string
	inputSize int
	conf      float32
	nms       float32
}

// NewYOLODetector loads the network and class labels.
func NewYOLODetector(cfg YOLOConfig) (*YOLODetector, error) {
	if cfg.ModelPath == "" || cfg.ConfigPath == "" {
		return nil, fmt.Errorf("detect: model and config paths are required")
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = defaultInputSize
	}
	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultMinConfidence
	}
	if cfg.NMSThreshold <= 0 {
		cfg.NMSThreshold = defaultNMSThreshold
	}

	labels, err := loadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("detect: failed to load model %q", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:       net,
		outNames:  outputLayerNames(&net),
		labels:    labels,
		inputSize: cfg.InputSize,
		conf:      float32(cfg.Confidence),
		nms:       float32(cfg.NMSThreshold),
	}, nil
}

// Detect runs one forward pass and returns kept detections in frame pixel
// coordinates.
func (d *YOLODetector) Detect(f *capture.Frame) ([]Detection, error) {
	if f == nil || f.Image == nil || f.Image.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	blob := gocv.BlobFromImage(*f.Image, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outNames)
	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()

	return d.decode(outs, f.Width, f.Height), nil
}

// decode parses darknet output rows [cx cy w h objectness class...], scales
// boxes to frame coordinates, and applies non-maximum suppression.
func (d *YOLODetector) decode(outs []gocv.Mat, frameW, frameH int) []Detection {
	var (
		boxes  []image.Rectangle
		scores []float32
		ids    []int
	)

	for _, out := range outs {
		for r := 0; r < out.Rows(); r++ {
			objectness := out.GetFloatAt(r, 4)

			bestClass, bestScore := 0, float32(0)
			for c := 5; c < out.Cols(); c++ {
				if sc := out.GetFloatAt(r, c); sc > bestScore {
					bestScore = sc
					bestClass = c - 5
				}
			}

			score := objectness * bestScore
			if score < d.conf {
				continue
			}

			cx := out.GetFloatAt(r, 0) * float32(frameW)
			cy := out.GetFloatAt(r, 1) * float32(frameH)
			w := out.GetFloatAt(r, 2) * float32(frameW)
			h := out.GetFloatAt(r, 3) * float32(frameH)

			boxes = append(boxes, image.Rect(
				int(cx-w/2), int(cy-h/2),
				int(cx+w/2), int(cy+h/2),
			))
			scores = append(scores, score)
			ids = append(ids, bestClass)
		}
	}

	if len(boxes) == 0 {
		return nil
	}

	var detections []Detection
	for _, i := range gocv.NMSBoxes(boxes, scores, d.conf, d.nms) {
		detections = append(detections, Detection{
			Label:      d.label(ids[i]),
			Confidence: float64(scores[i]),
			Box:        boxes[i].Intersect(image.Rect(0, 0, frameW, frameH)),
		})
	}
	return detections
}

func (d *YOLODetector) label(id int) string {
	if id >= 0 && id < len(d.labels) {
		return d.labels[id]
	}
	return fmt.Sprintf("class %d", id)
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}

// outputLayerNames resolves the network's unconnected output layers, which
// for YOLO are the detection heads. Layer indices are 1-based.
func outputLayerNames(net *gocv.Net) []string {
	names := net.GetLayerNames()

	var out []string
	for _, i := range net.GetUnconnectedOutLayers() {
		if i-1 >= 0 && i-1 < len(names) {
			out = append(out, names[i-1])
		}
	}
	return out
}

// loadLabels reads newline-separated class names.
func loadLabels(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("labels path is required")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			labels = append(labels, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %q is empty", path)
	}
	return labels, nil
}
