// Package capture opens RTSP stream sources and pulls decoded frames from
// them through OpenCV's FFmpeg backend.
//
// The connector owns nothing beyond the capture handle: it performs no
// retries and applies no pacing. Reconnection policy belongs to the session
// state machine, latency control to the session's flush policy. The only
// latency measures taken here are transport-level: RTSP over TCP is forced
// when requested and the FFmpeg receive buffer is pinned to a single frame.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// ffmpegCaptureOptionsEnv is read by OpenCV's FFmpeg backend at open time.
const ffmpegCaptureOptionsEnv = "OPENCV_FFMPEG_CAPTURE_OPTIONS"

// socketTimeout bounds a single RTSP socket operation so a hung transport
// surfaces as a read failure instead of blocking the loop forever. FFmpeg's
// stimeout option takes microseconds.
const socketTimeout = "stimeout;5000000"

// Connection is an open handle to a stream. The acquisition loop is the
// exclusive owner; at most one live connection exists per session.
type Connection interface {
	// Read pulls the next decoded frame. Errors wrap ErrRead or
	// ErrEndOfStream; the caller owns the returned frame.
	Read() (*Frame, error)
	// Close releases the transport handle. Idempotent.
	Close() error
}

// Connector establishes connections to a stream source.
type Connector interface {
	// Open connects to the source and negotiates the transport. Errors
	// wrap ErrConnect. No retries happen here.
	Open(ctx context.Context, src Source) (Connection, error)
}

// FFmpegConnector implements Connector on top of gocv's VideoCapture with
// the FFmpeg API preference.
type FFmpegConnector struct{}

// Open connects to the RTSP source.
//
// Transport selection goes through the OPENCV_FFMPEG_CAPTURE_OPTIONS
// environment variable, which the FFmpeg backend reads when the capture is
// created. The setting is process-wide; every connection in this process
// shares one transport preference.
func (FFmpegConnector) Open(ctx context.Context, src Source) (Connection, error) {
	if src.URL == "" {
		return nil, fmt.Errorf("%w: source URL is required", ErrConnect)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if src.Transport == TransportTCP {
		os.Setenv(ffmpegCaptureOptionsEnv, "rtsp_transport;tcp|"+socketTimeout)
	} else {
		os.Setenv(ffmpegCaptureOptionsEnv, socketTimeout)
	}

	cap, err := gocv.OpenVideoCaptureWithAPI(src.URL, gocv.VideoCaptureFFmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w: handshake incomplete or source reports no media", ErrConnect)
	}

	// The session's flush policy is the latency-control mechanism, not
	// transport buffering. Anything deeper than one frame here just adds
	// staleness the flush has to discard.
	cap.Set(gocv.VideoCaptureBufferSize, 1)
	if src.TargetFPS > 0 {
		cap.Set(gocv.VideoCaptureFPS, src.TargetFPS)
	}

	slog.Info("capture: stream opened",
		"url", src.URL,
		"transport", src.Transport.String(),
		"width", int(cap.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(cap.Get(gocv.VideoCaptureFrameHeight)),
		"source_fps", cap.Get(gocv.VideoCaptureFPS),
	)

	return &ffmpegConnection{cap: cap, url: src.URL}, nil
}

type ffmpegConnection struct {
	cap    *gocv.VideoCapture
	url    string
	seq    uint64
	closed bool
}

// Read pulls and decodes the next frame.
//
// A failed read with the capture handle still open is a decode failure or
// dropped packet (ErrRead); a failed read with the handle gone is the source
// having closed the stream (ErrEndOfStream). The session treats both as
// reconnect-triggering failures, but logs tell them apart.
func (c *ffmpegConnection) Read() (*Frame, error) {
	if c.closed {
		return nil, fmt.Errorf("%w: connection closed", ErrRead)
	}

	img := gocv.NewMat()
	if ok := c.cap.Read(&img); !ok || img.Empty() {
		img.Close()
		if !c.cap.IsOpened() {
			return nil, fmt.Errorf("%w: source closed the stream", ErrEndOfStream)
		}
		return nil, fmt.Errorf("%w: no frame decoded", ErrRead)
	}

	c.seq++
	return &Frame{
		Seq:       c.seq,
		Timestamp: time.Now(),
		TraceID:   uuid.New().String(),
		Width:     img.Cols(),
		Height:    img.Rows(),
		Image:     &img,
	}, nil
}

func (c *ffmpegConnection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	slog.Debug("capture: connection closed", "url", c.url, "frames_read", c.seq)
	return c.cap.Close()
}
