// Package display renders frames in a highgui window and turns single-key
// input into viewer commands. All calls happen on the session's loop
// goroutine; nothing here is safe for concurrent use and nothing needs to be.
package display

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/visiona/streamview/internal/capture"
	"github.com/visiona/streamview/internal/session"
	"gocv.io/x/gocv"
)

const (
	defaultTitle  = "Stream Viewer"
	defaultWidth  = 1280
	defaultHeight = 720
)

var (
	hudFrameColor = color.RGBA{G: 255, A: 0}
	hudClockColor = color.RGBA{R: 255, G: 255, A: 0}
)

// Options configures the viewer window.
type Options struct {
	// Title is the window title (default "Stream Viewer")
	Title string
	// Width and Height set the default windowed geometry (default 1280x720)
	Width  int
	Height int
	// SnapshotDir and SnapshotPrefix control where snapshots land
	SnapshotDir    string
	SnapshotPrefix string
	// HUD enables the frame-counter/timestamp overlay
	HUD bool
}

// Window implements session.Sink on a gocv highgui window.
type Window struct {
	win        *gocv.Window
	width      int
	height     int
	fullscreen bool
	hud        bool
	snaps      *Snapshotter
}

// NewWindow creates and sizes the viewer window.
func NewWindow(opts Options) *Window {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width = defaultWidth
		opts.Height = defaultHeight
	}

	win := gocv.NewWindow(opts.Title)
	win.ResizeWindow(opts.Width, opts.Height)

	return &Window{
		win:    win,
		width:  opts.Width,
		height: opts.Height,
		hud:    opts.HUD,
		snaps:  NewSnapshotter(opts.SnapshotDir, opts.SnapshotPrefix),
	}
}

// Render draws the HUD (when enabled) and displays the frame.
func (w *Window) Render(f *capture.Frame) error {
	if f == nil || f.Image == nil {
		return nil
	}
	if w.hud {
		drawHUD(f)
	}
	w.win.IMShow(*f.Image)
	return nil
}

// Poll checks for a single key press without blocking beyond one tick.
func (w *Window) Poll() session.Command {
	return keyCommand(w.win.WaitKey(1))
}

// ToggleFullscreen flips between fullscreen and windowed mode.
func (w *Window) ToggleFullscreen() {
	w.fullscreen = !w.fullscreen
	if w.fullscreen {
		w.win.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowFullscreen)
	} else {
		w.win.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowNormal)
	}
	slog.Info("display: fullscreen toggled", "fullscreen", w.fullscreen)
}

// Reset restores windowed mode at the default geometry.
func (w *Window) Reset() {
	w.win.SetWindowProperty(gocv.WindowPropertyFullscreen, gocv.WindowNormal)
	w.win.ResizeWindow(w.width, w.height)
	w.fullscreen = false
	slog.Info("display: window reset", "width", w.width, "height", w.height)
}

// Snapshot saves the frame verbatim, overlay included.
func (w *Window) Snapshot(f *capture.Frame) (string, error) {
	return w.snaps.Save(f)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// keyCommand maps the fixed command alphabet. Any other key, or no key
// (-1), is CommandNone.
func keyCommand(key int) session.Command {
	switch key & 0xff {
	case 'q':
		return session.CommandQuit
	case 'f':
		return session.CommandFullscreen
	case 'r':
		return session.CommandReset
	case 's':
		return session.CommandSnapshot
	default:
		return session.CommandNone
	}
}

// drawHUD overlays the frame counter and wall-clock time, upper left.
func drawHUD(f *capture.Frame) {
	gocv.PutText(f.Image, fmt.Sprintf("Stream Frame: %d", f.Seq),
		image.Pt(10, 30), gocv.FontHersheySimplex, 1, hudFrameColor, 2)
	gocv.PutText(f.Image, "Time: "+f.Timestamp.Format("15:04:05"),
		image.Pt(10, 70), gocv.FontHersheySimplex, 0.8, hudClockColor, 2)
}
