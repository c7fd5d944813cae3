// Package orchestrator drives a recording session from capture to video.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/summarizer"
)

var (
	// ErrNoFrames is returned when a session has no frames to assemble.
	ErrNoFrames = errors.New("orchestrator: no frames were captured")

	// ErrFramesDirNotFound is returned by CreateVideo when the frame directory does not exist.
	ErrFramesDirNotFound = errors.New("orchestrator: frames directory not found")

	// ErrLeftoverFrames is returned by Record when the frame directory still
	// holds frames of an earlier session.
	ErrLeftoverFrames = errors.New("orchestrator: frames directory holds frames of an earlier session")
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Output
	OutputPath string

	// Capture
	FrameRate   float64
	Region      *ports.Region
	TrackWindow bool

	// Encoding
	VideoFPS        float64
	Quality         int
	NoUpscale       bool
	CodecPreference string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OutputPath: "timelapse.mp4",
		FrameRate:  1,
		VideoFPS:   30,
		Quality:    85,
	}
}

// SessionStore is the frame directory of one session.
type SessionStore interface {
	Init() error
	Exists() bool
	Dir() string
	Scan() (pipeline.SessionIndex, error)
}

// MarkerCleaner removes control marker files.
type MarkerCleaner interface {
	ClearMarkers() error
}

type finalizeState int

const (
	statePending finalizeState = iota
	stateFinalizing
	stateFinalized
	stateFailed
)

// Orchestrator coordinates the capture and assembly stages of one session.
type Orchestrator struct {
	recordStage   pipeline.RecordStage
	assembleStage pipeline.AssembleStage
	store         SessionStore
	markers       MarkerCleaner
	sink          ports.DebugSink
	logger        ports.Logger

	mu     sync.Mutex
	state  finalizeState
	config Config
	result RunResult
}

// New creates a new Orchestrator. markers may be nil.
func New(
	recordStage pipeline.RecordStage,
	assembleStage pipeline.AssembleStage,
	store SessionStore,
	markers MarkerCleaner,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		recordStage:   recordStage,
		assembleStage: assembleStage,
		store:         store,
		markers:       markers,
		sink:          sink,
		logger:        logger,
	}
}

// Record captures until control stops it and then finalizes the session.
// Finalize runs on every exit path of the capture, including a panic.
// A frame directory that already holds frames is left untouched and
// ErrLeftoverFrames is returned; those frames belong to CreateVideo.
func (o *Orchestrator) Record(ctx context.Context, config Config, control ports.Control) (RunResult, error) {
	o.setConfig(config)

	if err := o.store.Init(); err != nil {
		o.logger.Error("Failed to prepare %s: %s", o.store.Dir(), err.Error())
		return RunResult{}, err
	}
	leftover, err := o.store.Scan()
	if err != nil {
		return RunResult{}, fmt.Errorf("scan %s: %w", o.store.Dir(), err)
	}
	if n := leftover.FrameCount(); n > 0 {
		o.logger.Error("Found %d frames of an earlier session in %s", n, o.store.Dir())
		return RunResult{}, fmt.Errorf("%w: %d frames in %s", ErrLeftoverFrames, n, o.store.Dir())
	}
	o.clearMarkers()

	o.logger.Info("Recording to %s (%.2f frames/s, quality %d)", o.store.Dir(), config.FrameRate, config.Quality)
	record, recErr := o.capture(ctx, config, control)
	o.clearMarkers()

	if recErr != nil {
		o.logger.Error("Recording failed: %s", recErr.Error())
	} else {
		o.logger.Info("Recording stopped: %d frames", record.FramesCaptured)
	}

	result, finErr := o.Finalize(ctx, &record.Index)
	result.Record = record
	o.mu.Lock()
	o.result.Record = record
	o.mu.Unlock()

	if finErr != nil {
		return result, errors.Join(recErr, finErr)
	}
	if recErr != nil {
		return result, fmt.Errorf("record stage: %w", recErr)
	}
	return result, nil
}

// capture runs the record stage, turning a panic into an error.
func (o *Orchestrator) capture(ctx context.Context, config Config, control ports.Control) (record pipeline.RecordResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture panicked: %v", r)
		}
	}()
	return o.recordStage.Execute(ctx, pipeline.RecordInput{
		TargetFrameRate: config.FrameRate,
		Region:          config.Region,
		TrackWindow:     config.TrackWindow,
		Control:         control,
	})
}

// CreateVideo assembles an existing frame directory into a video.
func (o *Orchestrator) CreateVideo(ctx context.Context, config Config) (RunResult, error) {
	if !o.store.Exists() {
		return RunResult{}, fmt.Errorf("%w: %s", ErrFramesDirNotFound, o.store.Dir())
	}
	o.setConfig(config)
	o.clearMarkers()
	return o.Finalize(ctx, nil)
}

// Finalize assembles the session into a video exactly once.
//
// A call after a successful finalize returns the cached result and touches
// nothing. A nil or empty index is rebuilt from the frame directory; if the
// directory is already gone the session counts as cleaned up. A failed
// finalize leaves the frames in place and may be retried.
func (o *Orchestrator) Finalize(ctx context.Context, index *pipeline.SessionIndex) (RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == stateFinalized {
		o.logger.Debug("Session already finalized")
		return o.result, nil
	}
	o.state = stateFinalizing

	result, err := o.finalize(ctx, index)
	if err != nil {
		o.state = stateFailed
		return result, err
	}
	o.state = stateFinalized
	o.result = result
	return result, nil
}

func (o *Orchestrator) finalize(ctx context.Context, index *pipeline.SessionIndex) (RunResult, error) {
	result := RunResult{}

	var idx pipeline.SessionIndex
	if index != nil {
		idx = index.NonEmpty()
	}
	if idx.FrameCount() == 0 {
		if !o.store.Exists() {
			o.logger.Info("Frames directory %s already cleaned up", o.store.Dir())
			result.AlreadyCleaned = true
			return result, nil
		}
		o.logger.Info("Rebuilding session index from %s", o.store.Dir())
		scanned, err := o.store.Scan()
		if err != nil {
			o.logger.Error("Failed to scan frames: %s", err.Error())
			return result, fmt.Errorf("scan frames: %w", err)
		}
		idx = scanned
		result.Rebuilt = true
	}

	if idx.FrameCount() == 0 {
		o.logger.Error("No frames were captured")
		return result, ErrNoFrames
	}
	result.Index = idx

	if o.sink != nil && o.sink.Enabled() {
		data, err := json.MarshalIndent(idx, "", "  ")
		if err == nil {
			err = o.sink.SaveSessionJSON(data)
		}
		if err != nil {
			o.logger.Warn("Failed to save session index: %s", err.Error())
		}
	}

	o.logger.Info("Assembling %d frames in %d segments", idx.FrameCount(), len(idx.Segments))
	video, err := o.assembleStage.Execute(ctx, pipeline.AssembleInput{
		Index:      idx,
		OutputPath: o.config.OutputPath,
		FPS:        o.config.VideoFPS,
		Quality:    o.config.Quality,
		NoUpscale:  o.config.NoUpscale,
	})
	if err != nil {
		o.logger.Error("Failed to create video: %s", err.Error())
		return result, fmt.Errorf("assemble stage: %w", err)
	}
	result.Video = video
	result.VideoDuration = time.Duration(float64(video.FramesWritten) / o.config.VideoFPS * float64(time.Second))
	return result, nil
}

func (o *Orchestrator) setConfig(config Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.config = config
}

func (o *Orchestrator) clearMarkers() {
	if o.markers == nil {
		return
	}
	if err := o.markers.ClearMarkers(); err != nil {
		o.logger.Warn("Failed to clear control markers: %s", err.Error())
	}
}

// RunResult contains the results of a session for summary generation.
type RunResult struct {
	// Capture phase; zero for CreateVideo
	Record pipeline.RecordResult

	// Index that was assembled
	Index   pipeline.SessionIndex
	Rebuilt bool

	// Video output
	Video         pipeline.AssembleResult
	VideoDuration time.Duration

	// AlreadyCleaned is set when the frames were removed by an earlier finalize.
	AlreadyCleaned bool
}

// Summary builds a session summary from the result.
func (r RunResult) Summary(config Config) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithSession(summarizer.SessionInfo{
			DurationMs:       r.Record.Duration.Milliseconds(),
			PausedMs:         r.Record.PausedDuration.Milliseconds(),
			StopReason:       r.Record.StopReason,
			FramesCaptured:   r.Record.FramesCaptured,
			GrabErrors:       r.Record.GrabErrors,
			RebuiltFromFiles: r.Rebuilt,
		})
	for _, seg := range r.Index.Segments {
		b.AddSegment(seg.Number, seg.Resolution.Width, seg.Resolution.Height, len(seg.Frames))
	}

	settings := summarizer.Settings{
		FrameRate:       config.FrameRate,
		VideoFPS:        config.VideoFPS,
		Quality:         config.Quality,
		TrackWindow:     config.TrackWindow,
		CodecPreference: config.CodecPreference,
	}
	if config.Region != nil {
		settings.Region = fmt.Sprintf("%dx%d+%d+%d", config.Region.Width, config.Region.Height, config.Region.X, config.Region.Y)
	}

	return b.WithSettings(settings).
		WithVideo(summarizer.VideoInfo{
			Path:            r.Video.OutputPath,
			Codec:           r.Video.Codec,
			DetectedCodec:   r.Video.DetectedCodec,
			CanvasWidth:     r.Video.Canvas.Width,
			CanvasHeight:    r.Video.Canvas.Height,
			FramesWritten:   r.Video.FramesWritten,
			FramesSkipped:   r.Video.FramesSkipped,
			SegmentsSkipped: r.Video.SegmentsSkipped,
			FileSize:        r.Video.FileSize,
			DurationMs:      r.VideoDuration.Milliseconds(),
		}).
		Build()
}
