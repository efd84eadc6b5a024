package display

import (
	"testing"

	"github.com/visiona/streamview/internal/session"
)

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name string
		key  int
		want session.Command
	}{
		{"quit", 'q', session.CommandQuit},
		{"fullscreen", 'f', session.CommandFullscreen},
		{"reset", 'r', session.CommandReset},
		{"snapshot", 's', session.CommandSnapshot},
		{"no key", -1, session.CommandNone},
		{"unmapped letter", 'x', session.CommandNone},
		{"uppercase not mapped", 'Q', session.CommandNone},
		{"modifier bits stripped", 'q' | 0x100000, session.CommandQuit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyCommand(tt.key); got != tt.want {
				t.Errorf("keyCommand(%#x) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
