package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/jawher/mow.cli"
	"golang.org/x/sync/errgroup"

	"github.com/visiona/streamview/internal/capture"
	"github.com/visiona/streamview/internal/config"
	"github.com/visiona/streamview/internal/detect"
	"github.com/visiona/streamview/internal/display"
	"github.com/visiona/streamview/internal/session"
)

const (
	appName = "streamview"
	appDesc = "low-latency RTSP stream viewer with optional detection overlay"

	statsInterval = 30 * time.Second
)

type options struct {
	configPath  string
	url         string
	transport   string
	modelPath   string
	modelConfig string
	labelsPath  string
	snapshotDir string
	debug       bool
}

func main() {
	app := cli.App(appName, appDesc)
	app.Spec = "[OPTIONS] [URL]"

	var (
		configPath = app.String(cli.StringOpt{
			Name:   "c config",
			Desc:   "path to YAML configuration file",
			EnvVar: "STREAMVIEW_CONFIG",
		})
		transport = app.String(cli.StringOpt{
			Name:   "t transport",
			Desc:   "transport override: tcp or udp",
			EnvVar: "STREAMVIEW_TRANSPORT",
		})
		modelPath = app.String(cli.StringOpt{
			Name:   "model",
			Desc:   "detection model weights (empty disables annotation)",
			EnvVar: "STREAMVIEW_MODEL",
		})
		modelConfig = app.String(cli.StringOpt{
			Name:   "model-config",
			Desc:   "detection model network definition",
			EnvVar: "STREAMVIEW_MODEL_CONFIG",
		})
		labelsPath = app.String(cli.StringOpt{
			Name:   "labels",
			Desc:   "detection class names file",
			EnvVar: "STREAMVIEW_LABELS",
		})
		snapshotDir = app.String(cli.StringOpt{
			Name:   "snapshot-dir",
			Desc:   "directory for saved snapshots",
			EnvVar: "STREAMVIEW_SNAPSHOT_DIR",
		})
		debug = app.Bool(cli.BoolOpt{
			Name:   "d debug",
			Desc:   "enable debug logging",
			EnvVar: "STREAMVIEW_DEBUG",
		})
		url = app.String(cli.StringArg{
			Name:   "URL",
			Desc:   "RTSP stream URL",
			EnvVar: "STREAMVIEW_URL",
		})
	)

	app.Action = func() {
		opts := options{
			configPath:  *configPath,
			url:         *url,
			transport:   *transport,
			modelPath:   *modelPath,
			modelConfig: *modelConfig,
			labelsPath:  *labelsPath,
			snapshotDir: *snapshotDir,
			debug:       *debug,
		}
		if err := run(opts); err != nil {
			slog.Error("streamview failed", "error", err)
			cli.Exit(1)
		}
	}

	app.Run(os.Args)
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	src := capture.Source{
		URL:       cfg.Source.URL,
		Transport: capture.ParseTransport(cfg.Source.Transport),
		TargetFPS: cfg.Source.TargetFPS,
	}
	connector := capture.FFmpegConnector{}

	slog.Info("starting viewer",
		"url", src.URL,
		"transport", src.Transport.String(),
		"annotation", cfg.Detection.ModelPath != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot connectivity report before the long-running session starts.
	// Deliberately independent of the session's own connection; a probe
	// failure is informational, the state machine retries regardless.
	if status := capture.Probe(ctx, connector, src); status.Reachable {
		slog.Info("source reachable")
	} else {
		slog.Warn("source not reachable yet", "reason", status.Reason)
	}

	annotator := buildAnnotator(cfg)
	defer annotator.Close()

	if cfg.Viewer.SnapshotDir != "" {
		if err := os.MkdirAll(cfg.Viewer.SnapshotDir, 0o755); err != nil {
			return err
		}
	}

	window := display.NewWindow(display.Options{
		Title:          cfg.Viewer.WindowTitle,
		Width:          cfg.Viewer.WindowWidth,
		Height:         cfg.Viewer.WindowHeight,
		SnapshotDir:    cfg.Viewer.SnapshotDir,
		SnapshotPrefix: cfg.Viewer.SnapshotPrefix,
		HUD:            cfg.Viewer.HUD,
	})
	defer window.Close()

	sess, err := session.New(session.Config{
		Source:        src,
		Connector:     connector,
		Sink:          window,
		Annotator:     annotator,
		Policy:        retryPolicy(cfg),
		FlushDepth:    cfg.Reconnect.FlushDepth,
		FailThreshold: cfg.Reconnect.FailThreshold,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return sess.Run(ctx)
	})
	g.Go(func() error {
		statsLoop(ctx, sess)
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		slog.Info("viewer stopped by signal")
		return nil
	}
	return err
}

func loadConfig(opts options) (*config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	} else {
		cfg = config.Default()
	}

	if opts.url != "" {
		cfg.Source.URL = opts.url
	}
	if opts.transport != "" {
		cfg.Source.Transport = opts.transport
	}
	if opts.modelPath != "" {
		cfg.Detection.ModelPath = opts.modelPath
	}
	if opts.modelConfig != "" {
		cfg.Detection.ConfigPath = opts.modelConfig
	}
	if opts.labelsPath != "" {
		cfg.Detection.LabelsPath = opts.labelsPath
	}
	if opts.snapshotDir != "" {
		cfg.Viewer.SnapshotDir = opts.snapshotDir
	}

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// buildAnnotator loads the detection model when configured. An absent model
// path silently disables annotation; a broken model logs a warning and the
// viewer runs unannotated, since annotation failures are never fatal.
func buildAnnotator(cfg *config.Config) *detect.Annotator {
	if cfg.Detection.ModelPath == "" {
		return detect.NewAnnotator(nil, 0)
	}

	det, err := detect.NewYOLODetector(detect.YOLOConfig{
		ModelPath:  cfg.Detection.ModelPath,
		ConfigPath: cfg.Detection.ConfigPath,
		LabelsPath: cfg.Detection.LabelsPath,
		Confidence: cfg.Detection.Confidence,
	})
	if err != nil {
		slog.Warn("detection model unavailable, annotation disabled", "error", err)
		return detect.NewAnnotator(nil, 0)
	}

	slog.Info("detection model loaded",
		"model", cfg.Detection.ModelPath,
		"confidence", cfg.Detection.Confidence,
	)
	return detect.NewAnnotator(det, cfg.Detection.Confidence)
}

func retryPolicy(cfg *config.Config) session.RetryPolicy {
	return session.RetryPolicy{
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		Delay:       time.Duration(cfg.Reconnect.DelayS) * time.Second,
		MaxDelay:    time.Duration(cfg.Reconnect.MaxDelayS) * time.Second,
	}
}

func statsLoop(ctx context.Context, sess *session.Session) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := sess.Stats()
			slog.Info("session stats",
				"state", st.State.String(),
				"frames", st.Frames,
				"flushed", st.Flushed,
				"reconnects", st.Reconnects,
				"consecutive_failures", st.ConsecutiveFailures,
				"uptime", st.Uptime,
				"since_last_frame", st.SinceLastFrame,
			)
		}
	}
}
