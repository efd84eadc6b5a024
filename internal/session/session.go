package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/visiona/streamview/internal/capture"
)

const (
	// defaultFlushDepth is K: reads per iteration, all but the last discarded
	defaultFlushDepth = 3
	// defaultFailThreshold is N: consecutive failed iterations before reconnect
	defaultFailThreshold = 30
	// defaultIdleWait paces retries while below the failure threshold,
	// roughly one source frame interval at 30 FPS
	defaultIdleWait = 33 * time.Millisecond
	// statsLogInterval is how many frames pass between periodic debug logs
	statsLogInterval = 100
)

// Command is one element of the viewer's fixed command alphabet. Absence of
// input is CommandNone, not an error.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandFullscreen
	CommandReset
	CommandSnapshot
)

// Sink renders frames and surfaces user commands. The session calls it
// strictly sequentially from its own loop; implementations need no locking.
type Sink interface {
	// Render displays the frame. The frame remains owned by the session.
	Render(f *capture.Frame) error
	// Poll returns the pending command, or CommandNone. Must not block
	// beyond a single key check.
	Poll() Command
	// ToggleFullscreen flips between fullscreen and windowed mode.
	ToggleFullscreen()
	// Reset restores the default windowed geometry.
	Reset()
	// Snapshot persists the frame verbatim, overlay included, and returns
	// the file it wrote.
	Snapshot(f *capture.Frame) (string, error)
}

// Annotator overlays detections onto a frame. Implementations must treat an
// unavailable model as a permanent no-op, never a per-frame error.
type Annotator interface {
	Annotate(f *capture.Frame)
}

// TransitionFunc observes state transitions. Called synchronously from the
// session loop; keep it cheap.
type TransitionFunc func(from, to State, reason string)

// Config assembles a session. Connector and Sink are required; everything
// else has a default.
type Config struct {
	Source    capture.Source
	Connector capture.Connector
	Sink      Sink
	// Annotator is optional; nil disables annotation entirely
	Annotator Annotator
	Policy    RetryPolicy
	// FlushDepth is the max reads per iteration (default 3)
	FlushDepth int
	// FailThreshold is the consecutive-failure count that triggers
	// reconnection (default 30)
	FailThreshold int
	// IdleWait paces the loop while reads fail below threshold (default 33ms)
	IdleWait time.Duration
	// OnTransition, when set, observes every state transition
	OnTransition TransitionFunc
}

// Stats is a point-in-time snapshot of session counters.
type Stats struct {
	State               State
	Frames              uint64
	Flushed             uint64
	Reconnects          uint32
	ConsecutiveFailures int
	Uptime              time.Duration
	SinceLastFrame      time.Duration
}

// Session owns the single live connection and drives the cooperative loop:
// acquisition, annotation, rendering and input handling happen sequentially
// on the goroutine that calls Run. All session state lives here, passed by
// ownership rather than ambient globals, so multiple sessions can coexist
// and tests stay deterministic.
type Session struct {
	cfg  Config
	conn capture.Connection

	mu          sync.Mutex
	state       State
	consecFails int
	frames      uint64
	snapshots   uint64
	flushed     uint64
	reconnects  uint32
	started     time.Time
	lastFrameAt time.Time
}

// New validates the configuration and builds a session.
func New(cfg Config) (*Session, error) {
	if cfg.Connector == nil {
		return nil, fmt.Errorf("session: connector is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("session: sink is required")
	}
	if cfg.Source.URL == "" {
		return nil, fmt.Errorf("session: source URL is required")
	}

	if cfg.FlushDepth <= 0 {
		cfg.FlushDepth = defaultFlushDepth
	}
	if cfg.FailThreshold <= 0 {
		cfg.FailThreshold = defaultFailThreshold
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = defaultIdleWait
	}
	if cfg.Policy.Delay <= 0 {
		cfg.Policy.Delay = DefaultRetryPolicy().Delay
	}
	if cfg.Policy.MaxDelay < cfg.Policy.Delay {
		cfg.Policy.MaxDelay = cfg.Policy.Delay
	}

	return &Session{cfg: cfg, state: StateConnecting}, nil
}

// Run drives the session until the sink requests quit, the context is
// cancelled, the initial open fails, or the retry policy is exhausted.
// Quit returns nil; everything else returns the terminating error.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	if err := s.open(ctx); err != nil {
		s.setState(StateFailed, err.Error())
		return err
	}
	defer s.closeConn()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame := s.acquire()
		if frame == nil {
			if s.failCount() >= s.cfg.FailThreshold {
				if err := s.reconnect(ctx); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					s.setState(StateFailed, err.Error())
					return err
				}
			} else {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.cfg.IdleWait):
				}
			}
			continue
		}

		if s.currentState() != StateStreaming {
			s.setState(StateStreaming, "frame received")
		}

		s.mu.Lock()
		s.frames++
		s.lastFrameAt = frame.Timestamp
		frames := s.frames
		s.mu.Unlock()

		if s.cfg.Annotator != nil {
			s.cfg.Annotator.Annotate(frame)
		}
		if err := s.cfg.Sink.Render(frame); err != nil {
			slog.Warn("session: render failed", "error", err, "trace_id", frame.TraceID)
		}

		stop := s.handleCommand(s.cfg.Sink.Poll(), frame)
		frame.Close()
		if stop {
			return nil
		}

		if frames%statsLogInterval == 0 {
			st := s.Stats()
			slog.Debug("session: stats",
				"frames", st.Frames,
				"flushed", st.Flushed,
				"reconnects", st.Reconnects,
				"since_last_frame", st.SinceLastFrame,
			)
		}
	}
}

// acquire runs one flush cycle: up to FlushDepth consecutive reads, keeping
// only the last successfully decoded frame and exiting early on failure.
//
// The transport and decoder buffer frames faster than a render loop consumes
// them; without discarding, perceived latency grows without bound. Bounded
// staleness wins over frame completeness in a live viewer.
//
// Returns nil when no read in the batch succeeded; that counts as one
// failure against the consecutive-failure counter. Any success resets it.
func (s *Session) acquire() *capture.Frame {
	var latest *capture.Frame

	for i := 0; i < s.cfg.FlushDepth; i++ {
		frame, err := s.conn.Read()
		if err != nil {
			if latest == nil && s.failCount() == 0 {
				slog.Warn("session: read failed",
					"error", err,
					"category", capture.Classify(err).String(),
				)
			}
			break
		}
		if latest != nil {
			latest.Close()
			s.mu.Lock()
			s.flushed++
			s.mu.Unlock()
		}
		latest = frame
	}

	s.mu.Lock()
	if latest == nil {
		s.consecFails++
	} else {
		s.consecFails = 0
	}
	s.mu.Unlock()

	return latest
}

// open establishes the initial connection. A failure here is terminal for
// the session (Connecting to Failed); the caller may retry a whole new
// session if it wants to.
func (s *Session) open(ctx context.Context) error {
	slog.Info("session: connecting", "url", s.cfg.Source.URL, "transport", s.cfg.Source.Transport.String())

	conn, err := s.cfg.Connector.Open(ctx, s.cfg.Source)
	if err != nil {
		return fmt.Errorf("session: open failed: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// reconnect tears down the dead connection and reopens per the retry policy.
// Runs between acquisition iterations only; the connection handle is never
// touched concurrently.
func (s *Session) reconnect(ctx context.Context) error {
	s.setState(StateReconnecting, fmt.Sprintf("%d consecutive read failures", s.failCount()))
	s.closeConn()

	for attempt := 1; ; attempt++ {
		if s.cfg.Policy.Exhausted(attempt) {
			return fmt.Errorf("session: reconnect attempts exhausted after %d", attempt-1)
		}

		delay := s.cfg.Policy.Backoff(attempt)
		slog.Warn("session: reconnecting",
			"url", s.cfg.Source.URL,
			"attempt", attempt,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		conn, err := s.cfg.Connector.Open(ctx, s.cfg.Source)
		if err != nil {
			slog.Error("session: reconnect failed",
				"error", err,
				"category", capture.Classify(err).String(),
				"attempt", attempt,
			)
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.consecFails = 0
		s.reconnects++
		s.mu.Unlock()

		s.setState(StateStreaming, "reconnected")
		return nil
	}
}

func (s *Session) handleCommand(cmd Command, frame *capture.Frame) (stop bool) {
	switch cmd {
	case CommandQuit:
		slog.Info("session: quit requested")
		return true
	case CommandFullscreen:
		s.cfg.Sink.ToggleFullscreen()
	case CommandReset:
		s.cfg.Sink.Reset()
	case CommandSnapshot:
		name, err := s.cfg.Sink.Snapshot(frame)
		if err != nil {
			slog.Error("session: snapshot failed", "error", err)
			break
		}
		s.mu.Lock()
		s.snapshots++
		s.mu.Unlock()
		slog.Info("session: snapshot saved", "file", name)
	}
	return false
}

// setState performs a state transition. This is the single side-effect point
// for session-level state: it logs and notifies the transition hook.
func (s *Session) setState(to State, reason string) {
	s.mu.Lock()
	from := s.state
	if from == to {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.mu.Unlock()

	slog.Info("session: state transition",
		"from", from.String(),
		"to", to.String(),
		"reason", reason,
	)

	if s.cfg.OnTransition != nil {
		s.cfg.OnTransition(from, to, reason)
	}
}

func (s *Session) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			slog.Warn("session: close failed", "error", err)
		}
	}
}

func (s *Session) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) failCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecFails
}

// State reports the machine state. The failure counter does not move it:
// a session below the failure threshold still reports Streaming, matching
// the implicit-degradation design. See Degraded.
func (s *Session) State() State {
	return s.currentState()
}

// Degraded reports whether reads are currently failing without the
// reconnection threshold having been crossed.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateStreaming && s.consecFails > 0
}

// Stats returns a snapshot of the session counters. Safe to call from any
// goroutine.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		State:               s.state,
		Frames:              s.frames,
		Flushed:             s.flushed,
		Reconnects:          s.reconnects,
		ConsecutiveFailures: s.consecFails,
	}
	if !s.started.IsZero() {
		st.Uptime = time.Since(s.started)
	}
	if !s.lastFrameAt.IsZero() {
		st.SinceLastFrame = time.Since(s.lastFrameAt)
	}
	return st
}
