package capture

import (
	"context"
	"fmt"
	"log/slog"
)

// Status is the answer to "is the source currently reachable and yielding
// frames". Reason is populated when Reachable is false.
type Status struct {
	Reachable bool
	Reason    string
}

// Probe performs an on-demand connectivity check: open, one read, close.
//
// The probe never shares state with a long-running session; it opens its own
// short-lived connection and never returns an error. A control-plane layer
// can call this as often as it likes without disturbing the live loop.
func Probe(ctx context.Context, c Connector, src Source) Status {
	conn, err := c.Open(ctx, src)
	if err != nil {
		slog.Debug("capture: probe open failed", "url", src.URL, "error", err)
		return Status{Reason: err.Error()}
	}
	defer conn.Close()

	frame, err := conn.Read()
	if err != nil {
		slog.Debug("capture: probe read failed", "url", src.URL, "error", err)
		return Status{Reason: fmt.Sprintf("connected but no frames: %v", err)}
	}
	frame.Close()

	return Status{Reachable: true}
}
