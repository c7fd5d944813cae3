// Package assemble implements the video assembly stage: it letterboxes
// every segment onto a common canvas and streams the frames into the first
// codec that opens.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/user/timelapse/pkg/adapters/codecdetect"
	"github.com/user/timelapse/pkg/adapters/smartencoder"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

var (
	// ErrNoFrames is returned when no readable frame remains to encode.
	ErrNoFrames = errors.New("assemble: no frames to encode")

	// ErrEmptyOutput is returned when the encoder produced a missing or empty file.
	ErrEmptyOutput = errors.New("assemble: output file is empty")

	// ErrInvalidFPS is returned when the output frame rate is not positive.
	ErrInvalidFPS = errors.New("assemble: fps must be positive")
)

// FrameSource reads persisted frames and cleans them up after a successful encode.
type FrameSource interface {
	Read(ref pipeline.FrameRef) (image.Image, error)
	Delete(refs []pipeline.FrameRef) (int, error)
	RemoveDir() error
}

// WriterOpener negotiates a video writer.
type WriterOpener interface {
	OpenWriter(candidates []smartencoder.Candidate, basePath string, width, height int, fps float64, quality int) (smartencoder.Selection, error)
}

// Options holds the optional collaborators of a Stage.
type Options struct {
	// Candidates is the codec order to negotiate.
	Candidates []smartencoder.Candidate
	// Progress receives 0-100 after every frame.
	Progress ports.ProgressReporter
	// Sink receives composed frames when enabled.
	Sink ports.DebugSink
	// Probe identifies the written file. Defaults to codecdetect.Probe.
	Probe func(path string) (codecdetect.Info, error)
}

// Stage assembles a session into a video file.
type Stage struct {
	frames   FrameSource
	encoders WriterOpener
	renderer ports.Renderer
	fs       ports.FileSystem
	logger   ports.Logger
	opts     Options
}

// New creates an assemble stage.
func New(frames FrameSource, encoders WriterOpener, renderer ports.Renderer, fs ports.FileSystem, logger ports.Logger, opts Options) *Stage {
	if opts.Progress == nil {
		opts.Progress = ports.ProgressFunc(func(int) {})
	}
	if opts.Probe == nil {
		opts.Probe = codecdetect.Probe
	}
	return &Stage{
		frames:   frames,
		encoders: encoders,
		renderer: renderer,
		fs:       fs,
		logger:   logger.WithComponent("assemble"),
		opts:     opts,
	}
}

type plannedSegment struct {
	segment pipeline.Segment
	first   image.Image
}

// Execute encodes every readable frame of input.Index.
//
// Terminal failures leave the frames in place so the session can be
// assembled again. Once encoding starts ctx is not consulted: a half
// written video is worth less than waiting for the rest.
func (s *Stage) Execute(ctx context.Context, input pipeline.AssembleInput) (pipeline.AssembleResult, error) {
	result := pipeline.AssembleResult{}
	if input.FPS <= 0 {
		return result, fmt.Errorf("%w: %g", ErrInvalidFPS, input.FPS)
	}

	segments := s.plan(input.Index.NonEmpty(), &result)
	total := 0
	for _, p := range segments {
		total += len(p.segment.Frames)
	}
	if total == 0 {
		return result, ErrNoFrames
	}

	var idx pipeline.SessionIndex
	for _, p := range segments {
		idx.Segments = append(idx.Segments, p.segment)
	}
	canvas := idx.CanvasResolution()
	result.Canvas = canvas
	s.logger.Info("Canvas resolution %s", canvas.String())

	sel, err := s.encoders.OpenWriter(s.opts.Candidates, input.OutputPath, canvas.Width, canvas.Height, input.FPS, input.Quality)
	if err != nil {
		return result, err
	}
	result.OutputPath = sel.Path
	result.Codec = sel.Candidate.Codec

	written, err := s.stream(segments, canvas, sel.Writer, total, input.NoUpscale, &result)
	if err != nil {
		s.discard(sel.Writer, sel.Path)
		return result, err
	}
	if written == 0 {
		s.discard(sel.Writer, sel.Path)
		return result, ErrNoFrames
	}
	result.FramesWritten = written

	if err := sel.Writer.Close(); err != nil {
		s.removeOutput(sel.Path)
		return result, fmt.Errorf("finalize video: %w", err)
	}

	size, err := s.verify(sel.Path)
	if err != nil {
		return result, err
	}
	result.FileSize = size

	if info, err := s.opts.Probe(sel.Path); err != nil {
		s.logger.Warn("Could not probe %s: %s", sel.Path, err.Error())
	} else {
		result.DetectedCodec = string(info.Codec)
		s.logger.Debug("Detected %s in %s container", string(info.Codec), string(info.Container))
	}

	s.cleanup(input.Index)
	return result, nil
}

// plan drops segments whose first frame cannot be read.
func (s *Stage) plan(idx pipeline.SessionIndex, result *pipeline.AssembleResult) []plannedSegment {
	var planned []plannedSegment
	for _, seg := range idx.Segments {
		first, err := s.frames.Read(seg.Frames[0])
		if err != nil {
			s.logger.Warn("Skipping segment %d: %s", seg.Number, err.Error())
			result.SegmentsSkipped++
			continue
		}
		planned = append(planned, plannedSegment{segment: seg, first: first})
	}
	return planned
}

func (s *Stage) stream(segments []plannedSegment, canvas pipeline.Resolution, w ports.VideoWriter, total int, noUpscale bool, result *pipeline.AssembleResult) (int, error) {
	written := 0
	lastPercent := -1

	for _, p := range segments {
		place := Fit(p.segment.Resolution, canvas, noUpscale)
		s.logger.Debug("Segment %d: %s scaled %.3f, padding %d,%d",
			p.segment.Number, p.segment.Resolution.String(), place.Scale, place.PadX, place.PadY)

		for i, ref := range p.segment.Frames {
			img := p.first
			if i > 0 {
				var err error
				if img, err = s.frames.Read(ref); err != nil {
					s.logger.Warn("Skipping frame %s: %s", ref.Path, err.Error())
					result.FramesSkipped++
					total--
					continue
				}
			}

			frame := s.compose(img, place, canvas)
			if err := w.Write(frame); err != nil {
				return written, fmt.Errorf("write frame %s: %w", ref.Path, err)
			}
			if s.opts.Sink != nil && s.opts.Sink.Enabled() {
				s.opts.Sink.SaveComposedFrame(written, frame)
			}
			written++

			percent := int(math.Round(float64(written) / float64(total) * 100))
			if percent > lastPercent {
				lastPercent = percent
				s.opts.Progress.Progress(percent)
			}
		}
	}
	// trailing unreadable frames never reach the percentage update
	if written > 0 && lastPercent < 100 {
		s.opts.Progress.Progress(100)
	}
	return written, nil
}

func (s *Stage) compose(img image.Image, place Placement, canvas pipeline.Resolution) image.Image {
	b := img.Bounds()
	if b.Dx() != place.Width || b.Dy() != place.Height {
		img = s.renderer.ResizeImage(img, place.Width, place.Height)
	}
	if place.Width == canvas.Width && place.Height == canvas.Height {
		return img
	}
	c := s.renderer.CreateCanvas(canvas.Width, canvas.Height, color.Black)
	c.DrawImage(img, place.PadX, place.PadY)
	return c.ToImage()
}

func (s *Stage) verify(path string) (int64, error) {
	size, err := s.fs.Size(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrEmptyOutput, path, err)
	}
	if size == 0 {
		s.removeOutput(path)
		return 0, fmt.Errorf("%w: %s", ErrEmptyOutput, path)
	}
	s.logger.Info("Video saved to %s (%d bytes)", path, size)
	return size, nil
}

// cleanup removes every frame of the session, including those that could
// not be read, and then the frame directory.
func (s *Stage) cleanup(idx pipeline.SessionIndex) {
	var refs []pipeline.FrameRef
	for _, seg := range idx.Segments {
		refs = append(refs, seg.Frames...)
	}
	n, err := s.frames.Delete(refs)
	if err != nil {
		s.logger.Warn("Failed to remove some frames: %s", err.Error())
	}
	s.logger.Info("Removed %d frame files", n)
	if err := s.frames.RemoveDir(); err != nil {
		s.logger.Warn("Failed to remove frame directory: %s", err.Error())
	}
}

func (s *Stage) discard(w ports.VideoWriter, path string) {
	if err := w.Close(); err != nil {
		s.logger.Debug("Close after failure: %s", err.Error())
	}
	s.removeOutput(path)
}

func (s *Stage) removeOutput(path string) {
	if ok, _ := s.fs.Exists(path); ok {
		if err := s.fs.Remove(path); err != nil {
			s.logger.Warn("Failed to remove output %s: %s", path, err.Error())
		}
	}
}
