package session

// State is the connection state of a session. Exactly one state is active
// per session; transitions are the only place session-level side effects
// (logging, the external transition hook) occur.
type State int

const (
	// StateConnecting is the initial state, before the first successful read
	StateConnecting State = iota
	// StateStreaming means frames are arriving
	StateStreaming
	// StateDegraded means reads are failing but the threshold has not been
	// crossed. The machine itself stays in Streaming; Degraded is the
	// externally derived view of a nonzero failure counter.
	StateDegraded
	// StateReconnecting means the connection was torn down after sustained
	// read failure and reopen attempts are in progress
	StateReconnecting
	// StateFailed is terminal for the session: the initial open failed or
	// the retry policy was exhausted
	StateFailed
)

// String returns a human-readable string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDegraded:
		return "degraded"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
