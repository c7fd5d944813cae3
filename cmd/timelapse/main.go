// Package main provides the CLI entry point for timelapse.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/timelapse/pkg/adapters/ffmpegwriter"
	"github.com/user/timelapse/pkg/adapters/filecontrol"
	"github.com/user/timelapse/pkg/adapters/filesink"
	"github.com/user/timelapse/pkg/adapters/ggrenderer"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/mjpegwriter"
	"github.com/user/timelapse/pkg/adapters/multicontrol"
	"github.com/user/timelapse/pkg/adapters/nullsink"
	"github.com/user/timelapse/pkg/adapters/osfilesystem"
	"github.com/user/timelapse/pkg/adapters/progress"
	"github.com/user/timelapse/pkg/adapters/screengrab"
	"github.com/user/timelapse/pkg/adapters/signalcontrol"
	"github.com/user/timelapse/pkg/adapters/smartencoder"
	"github.com/user/timelapse/pkg/adapters/windowfinder"
	"github.com/user/timelapse/pkg/config"
	"github.com/user/timelapse/pkg/framestore"
	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/stages/assemble"
	"github.com/user/timelapse/pkg/stages/record"
	"github.com/user/timelapse/pkg/summarizer"
	"github.com/user/timelapse/pkg/tracker"
)

var version = "dev"

// Flag categories
const (
	catOutput   = "Output"
	catCapture  = "Capture"
	catEncoding = "Video and Quality"
	catDebug    = "Debug"
	catLogging  = "Logging"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "timelapse",
		Usage:   l10n.T("Record the screen as a timelapse video"),
		Version: version,
		Commands: []*cli.Command{
			recordCommand(),
			createVideoCommand(),
			markerCommand("stop", l10n.T("Stop a running recording"), (*filecontrol.Control).RequestStop),
			markerCommand("pause", l10n.T("Pause a running recording"), (*filecontrol.Control).RequestPause),
			markerCommand("resume", l10n.T("Resume a paused recording"), (*filecontrol.Control).RequestResume),
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: catOutput, Usage: l10n.T("Output video file name")},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"d"}, Category: catOutput, Usage: l10n.T("Directory for the video and temporary frames")},
		&cli.StringFlag{Name: "temp-dir", Category: catOutput, Usage: l10n.T("Directory for captured frames (default: <output-dir>/temp)")},
		&cli.StringFlag{Name: "summary", Category: catOutput, Usage: l10n.T("Output execution summary to file (Markdown format)")},
		&cli.Float64Flag{Name: "fps", Category: catEncoding, Usage: l10n.T("Output video frame rate")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Category: catEncoding, Usage: l10n.T("Quality (1-100, higher is better)")},
		&cli.StringFlag{Name: "codec", Category: catEncoding, Usage: l10n.T("Preferred codec (h264-hw, h264, ffv1, mjpeg)")},
		&cli.BoolFlag{Name: "no-upscale", Category: catEncoding, Usage: l10n.T("Never enlarge smaller segments")},
		&cli.StringFlag{Name: "ffmpeg", Category: catEncoding, Usage: l10n.T("Path to ffmpeg executable (falls back to FFMPEG_PATH, then PATH)")},
		&cli.BoolFlag{Name: "debug", Category: catDebug, Usage: l10n.T("Enable debug output")},
		&cli.StringFlag{Name: "debug-dir", Category: catDebug, Usage: l10n.T("Directory for debug output")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Category: catLogging, Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: catLogging, Usage: l10n.T("Suppress all log output")},
	}
}

func recordCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.Float64Flag{Name: "interval", Aliases: []string{"i"}, Category: catCapture, Usage: l10n.T("Seconds between captures")},
		&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Category: catCapture, Usage: l10n.T("Capture region as x,y,w,h or JSON")},
		&cli.BoolFlag{Name: "track-window", Aliases: []string{"w"}, Category: catCapture, Usage: l10n.T("Follow the active window")},
	)
	return &cli.Command{
		Name:   "record",
		Usage:  l10n.T("Capture the screen until stopped, then create the video"),
		Flags:  flags,
		Action: runRecord,
	}
}

func createVideoCommand() *cli.Command {
	return &cli.Command{
		Name:      "create-video",
		Usage:     l10n.T("Create a video from an existing frames directory"),
		ArgsUsage: "[frames-dir]",
		Flags:     commonFlags(),
		Action:    runCreateVideo,
	}
}

func markerCommand(name, usage string, request func(*filecontrol.Control) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"d"}, Usage: l10n.T("Directory for the video and temporary frames")},
			&cli.StringFlag{Name: "temp-dir", Usage: l10n.T("Directory for captured frames (default: <output-dir>/temp)")},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			ctl := filecontrol.New(cfg.FramesDir(), logger.NewNoop())
			if err := request(ctl); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// loadConfig builds the configuration from file, environment and flags,
// in increasing priority.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if c.IsSet("output") {
		cfg.OutputName = c.String("output")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("temp-dir") {
		cfg.TempDir = c.String("temp-dir")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("no-upscale") {
		cfg.NoUpscale = c.Bool("no-upscale")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Float64("interval")
	}
	if c.IsSet("region") {
		cfg.Region = c.String("region")
	}
	if c.IsSet("track-window") {
		cfg.TrackWindow = c.Bool("track-window")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

// session holds the wired components of one run.
type session struct {
	fs      *osfilesystem.FileSystem
	store   *framestore.Store
	control *filecontrol.Control
	orch    *orchestrator.Orchestrator
}

func newSession(c *cli.Context, cfg config.Config, log ports.Logger) (*session, error) {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	if path := c.String("ffmpeg"); path != "" {
		ffmpegwriter.SetFFmpegPath(path)
	}

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, cfg.DebugEvery, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	store := framestore.New(cfg.FramesDir(), fs, renderer, cfg.Quality)
	control := filecontrol.New(cfg.FramesDir(), log)

	var regions record.RegionSource
	if cfg.TrackWindow {
		regions = tracker.New(windowfinder.New(), tracker.DefaultInterval, log)
	}
	recordStage := record.New(screengrab.New(), regions, store, log)

	negotiator := smartencoder.New(map[smartencoder.Backend]ports.EncoderBackend{
		smartencoder.BackendFFmpeg: ffmpegwriter.New(),
		smartencoder.BackendMJPEG:  mjpegwriter.New(),
	}, fs, log)

	opts := assemble.Options{
		Candidates: smartencoder.Rank(cfg.Codec, smartencoder.DefaultCandidates(runtime.GOOS)),
		Sink:       sink,
	}
	if !c.Bool("quiet") {
		opts.Progress = progress.NewStdout()
	}
	assembleStage := assemble.New(store, negotiator, renderer, fs, log, opts)

	orch := orchestrator.New(recordStage, assembleStage, store, control, sink, log)
	return &session{fs: fs, store: store, control: control, orch: orch}, nil
}

func runRecord(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	log := newLogger(c)

	s, err := newSession(c, cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	orchConfig, err := cfg.ToOrchestratorConfig()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if err := s.store.Init(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := s.control.Start(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer s.control.Close()

	signals := signalcontrol.New(log)
	defer signals.Close()

	result, err := s.orch.Record(context.Background(), orchConfig, multicontrol.New(signals, s.control))
	if errors.Is(err, orchestrator.ErrLeftoverFrames) {
		return cli.Exit(fmt.Sprintf("%s\nrun \"timelapse create-video %s\" to assemble them, or remove the directory", err, s.store.Dir()), 2)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	writeSummary(s, cfg, orchConfig, result, log)
	return nil
}

func runCreateVideo(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.Args().Len() > 0 {
		cfg.TempDir = c.Args().First()
	}
	log := newLogger(c)

	s, err := newSession(c, cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	orchConfig, err := cfg.ToOrchestratorConfig()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	result, err := s.orch.CreateVideo(context.Background(), orchConfig)
	if err != nil {
		if errors.Is(err, orchestrator.ErrFramesDirNotFound) {
			return cli.Exit(err.Error(), 2)
		}
		return cli.Exit(err.Error(), 1)
	}
	writeSummary(s, cfg, orchConfig, result, log)
	return nil
}

func writeSummary(s *session, cfg config.Config, orchConfig orchestrator.Config, result orchestrator.RunResult, log ports.Logger) {
	if cfg.Summary == "" || result.AlreadyCleaned {
		return
	}
	w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), s.fs)
	if err := w.Write(cfg.Summary, result.Summary(orchConfig)); err != nil {
		log.Warn("Failed to write summary: %s", err.Error())
		return
	}
	log.Info("Summary written to %s", cfg.Summary)
}
