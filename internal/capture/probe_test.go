package capture

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type probeConn struct {
	readErr error
	closed  bool
}

func (c *probeConn) Read() (*Frame, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return &Frame{Seq: 1}, nil
}

func (c *probeConn) Close() error {
	c.closed = true
	return nil
}

type probeConnector struct {
	conn    *probeConn
	openErr error
}

func (c *probeConnector) Open(ctx context.Context, src Source) (Connection, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.conn, nil
}

func TestProbe_Unreachable(t *testing.T) {
	connector := &probeConnector{
		openErr: fmt.Errorf("%w: connection refused", ErrConnect),
	}

	status := Probe(context.Background(), connector, Source{URL: "rtsp://down.local/s"})

	if status.Reachable {
		t.Error("Reachable = true for failed open")
	}
	if !strings.Contains(status.Reason, "connection refused") {
		t.Errorf("Reason = %q, want the open failure surfaced", status.Reason)
	}
}

func TestProbe_ConnectedButNoFrames(t *testing.T) {
	conn := &probeConn{readErr: fmt.Errorf("%w: no frame decoded", ErrRead)}
	connector := &probeConnector{conn: conn}

	status := Probe(context.Background(), connector, Source{URL: "rtsp://idle.local/s"})

	if status.Reachable {
		t.Error("Reachable = true despite failed read")
	}
	if !strings.Contains(status.Reason, "no frames") {
		t.Errorf("Reason = %q, want a no-frames reason", status.Reason)
	}
	if !conn.closed {
		t.Error("probe connection left open")
	}
}

func TestProbe_Reachable(t *testing.T) {
	conn := &probeConn{}
	connector := &probeConnector{conn: conn}

	status := Probe(context.Background(), connector, Source{URL: "rtsp://live.local/s"})

	if !status.Reachable {
		t.Errorf("Reachable = false, reason %q", status.Reason)
	}
	if status.Reason != "" {
		t.Errorf("Reason = %q, want empty on success", status.Reason)
	}
	if !conn.closed {
		t.Error("probe connection left open")
	}
}
