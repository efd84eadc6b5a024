package display

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/visiona/streamview/internal/capture"
)

func TestSnapshotName(t *testing.T) {
	tests := []struct {
		dir    string
		prefix string
		n      int
		want   string
	}{
		{"", "stream_snapshot", 1, "stream_snapshot_001.jpg"},
		{"", "stream_snapshot", 42, "stream_snapshot_042.jpg"},
		{"", "snap", 999, "snap_999.jpg"},
		{"", "snap", 1000, "snap_1000.jpg"}, // padding grows, never truncates
		{"out", "cam", 7, filepath.Join("out", "cam_007.jpg")},
	}

	for _, tt := range tests {
		if got := snapshotName(tt.dir, tt.prefix, tt.n); got != tt.want {
			t.Errorf("snapshotName(%q, %q, %d) = %q, want %q",
				tt.dir, tt.prefix, tt.n, got, tt.want)
		}
	}
}

// TestSnapshotName_SequenceGapless verifies the numbering a session produces
// is strictly increasing and gapless from 1.
func TestSnapshotName_SequenceGapless(t *testing.T) {
	for n := 1; n <= 5; n++ {
		want := fmt.Sprintf("cam_%03d.jpg", n)
		if got := snapshotName("", "cam", n); got != want {
			t.Errorf("snapshot %d named %q, want %q", n, got, want)
		}
	}
}

func TestSnapshotter_SaveWithoutFrame(t *testing.T) {
	s := NewSnapshotter(t.TempDir(), "cam")

	if _, err := s.Save(nil); err == nil {
		t.Error("Save(nil) = nil error, want failure")
	}
	if _, err := s.Save(&capture.Frame{Seq: 1}); err == nil {
		t.Error("Save of a frame without pixels = nil error, want failure")
	}
	// A failed save must not consume a sequence number
	if s.Count() != 0 {
		t.Errorf("Count = %d after failed saves, want 0", s.Count())
	}
}

func TestNewSnapshotter_DefaultPrefix(t *testing.T) {
	s := NewSnapshotter("", "")
	if s.prefix != defaultSnapshotPrefix {
		t.Errorf("prefix = %q, want %q", s.prefix, defaultSnapshotPrefix)
	}
}
