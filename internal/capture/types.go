package capture

import (
	"time"

	"gocv.io/x/gocv"
)

// Transport selects how the RTSP payload is carried.
type Transport int

const (
	// TransportTCP forces RTSP interleaved over TCP. Ordered delivery avoids
	// the smearing artifacts UDP loss produces, which is why it is the default.
	TransportTCP Transport = iota
	// TransportUDP leaves the FFmpeg default (RTP over UDP) in place.
	TransportUDP
)

// String returns a human-readable string representation of the transport.
func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "tcp"
	case TransportUDP:
		return "udp"
	default:
		return "tcp"
	}
}

// ParseTransport maps a configuration string to a Transport.
// Anything that is not "udp" resolves to TCP.
func ParseTransport(s string) Transport {
	if s == "udp" {
		return TransportUDP
	}
	return TransportTCP
}

// Source identifies a stream to connect to. Immutable after construction;
// a fresh copy is handed to the connector on every open attempt.
type Source struct {
	// URL is the RTSP stream URL (required)
	URL string
	// Transport is the preferred transport mode (default: TCP)
	Transport Transport
	// TargetFPS is a frame rate hint passed to the decoder, 0 = source-paced
	TargetFPS float64
}

// Frame is a single decoded video frame with metadata.
//
// Ownership moves one way: connector to acquisition loop to annotator to
// display. Each stage either consumes-and-forwards or calls Close; nothing
// retains a frame past its use.
type Frame struct {
	// Seq is the monotonic sequence number within a connection
	Seq uint64
	// Timestamp is when the frame was decoded
	Timestamp time.Time
	// TraceID is a unique identifier for log correlation
	TraceID string
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Image holds the decoded pixel data (BGR)
	Image *gocv.Mat
}

// Close releases the underlying image buffer. Safe on a nil frame or a frame
// without pixel data, and idempotent.
func (f *Frame) Close() {
	if f == nil || f.Image == nil {
		return
	}
	f.Image.Close()
	f.Image = nil
}
