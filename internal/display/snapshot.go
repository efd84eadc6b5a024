package display

import (
	"fmt"
	"path/filepath"

	"github.com/visiona/streamview/internal/capture"
	"gocv.io/x/gocv"
)

const defaultSnapshotPrefix = "stream_snapshot"

// Snapshotter writes frames to sequentially numbered files. Numbering is
// strictly increasing and gapless within a session, starting at 1; a failed
// write does not consume a number.
type Snapshotter struct {
	dir    string
	prefix string
	count  int
}

// NewSnapshotter targets dir (default: current directory) with the given
// filename prefix.
func NewSnapshotter(dir, prefix string) *Snapshotter {
	if prefix == "" {
		prefix = defaultSnapshotPrefix
	}
	return &Snapshotter{dir: dir, prefix: prefix}
}

// Save writes the frame verbatim as JPEG and returns the path written.
func (s *Snapshotter) Save(f *capture.Frame) (string, error) {
	if f == nil || f.Image == nil {
		return "", fmt.Errorf("display: no frame to save")
	}

	name := snapshotName(s.dir, s.prefix, s.count+1)
	if ok := gocv.IMWrite(name, *f.Image); !ok {
		return "", fmt.Errorf("display: failed to write %s", name)
	}
	s.count++
	return name, nil
}

// Count returns how many snapshots have been saved this session.
func (s *Snapshotter) Count() int {
	return s.count
}

// snapshotName builds the zero-padded sequential filename.
func snapshotName(dir, prefix string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%03d.jpg", prefix, n))
}
