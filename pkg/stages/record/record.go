// Package record implements the capture loop: it grabs the screen at a
// target rate, follows the tracked region and persists frames grouped into
// resolution-homogeneous segments.
package record

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// pollInterval bounds every sleep so control changes are seen promptly.
const pollInterval = 100 * time.Millisecond

// progressEvery is the number of frames between progress log lines.
const progressEvery = 10

var (
	// ErrInvalidFrameRate is returned when the target frame rate is not positive.
	ErrInvalidFrameRate = errors.New("record: frame rate must be positive")

	// ErrCapturePanic wraps a panic recovered from a capture iteration.
	ErrCapturePanic = errors.New("record: capture panicked")
)

// RegionSource supplies the tracked region. ok is false until a region is known.
type RegionSource interface {
	CurrentRegion(ctx context.Context) (region ports.Region, ok bool)
}

// FrameWriter persists one frame and returns its reference with Path set.
type FrameWriter interface {
	Write(ref pipeline.FrameRef, img image.Image) (pipeline.FrameRef, error)
}

// Stage runs the capture loop.
type Stage struct {
	grabber ports.ScreenGrabber
	regions RegionSource
	frames  FrameWriter
	logger  ports.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a capture stage. regions may be nil when window tracking is
// not used.
func New(grabber ports.ScreenGrabber, regions RegionSource, frames FrameWriter, logger ports.Logger) *Stage {
	return &Stage{
		grabber: grabber,
		regions: regions,
		frames:  frames,
		logger:  logger.WithComponent("capture"),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Execute captures until the control requests a stop or ctx is cancelled.
// The index built so far is returned even when an error occurs.
func (s *Stage) Execute(ctx context.Context, input pipeline.RecordInput) (result pipeline.RecordResult, err error) {
	if input.TargetFrameRate <= 0 {
		return result, fmt.Errorf("%w: %g", ErrInvalidFrameRate, input.TargetFrameRate)
	}
	control := input.Control
	if control == nil {
		control = noControl{}
	}

	l := &loop{
		stage:    s,
		input:    input,
		control:  control,
		interval: time.Duration(float64(time.Second) / input.TargetFrameRate),
		start:    s.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCapturePanic, r)
			l.result.StopReason = "panic"
		}
		l.result.Index = l.index.NonEmpty()
		l.result.Duration = s.now().Sub(l.start)
		result = l.result
	}()

	l.run(ctx)
	s.logger.Debug("Captured %d frames", l.result.FramesCaptured)
	return l.result, nil
}

// loop holds the mutable state of one Execute call.
type loop struct {
	stage    *Stage
	input    pipeline.RecordInput
	control  ports.Control
	interval time.Duration
	start    time.Time

	index  pipeline.SessionIndex
	result pipeline.RecordResult

	state       pipeline.RunState
	lastCapture time.Time
	captured    bool
	pausedAt    time.Time
	pending     *ports.Region

	// last clamp, reused while the source region and display are unchanged
	clampFrom    ports.Region
	clampTo      ports.Region
	clampDisplay ports.Region
	hasClamp     bool
}

func (l *loop) run(ctx context.Context) {
	s := l.stage
	for {
		if ctx.Err() != nil {
			l.stop("cancelled")
			return
		}
		if l.control.StopRequested() {
			l.stop("stop requested")
			return
		}

		if l.control.Paused() {
			if l.state != pipeline.StatePaused {
				l.state = pipeline.StatePaused
				l.pausedAt = s.now()
				s.logger.Info("Recording paused")
			}
			s.sleep(pollInterval)
			continue
		}
		if l.state == pipeline.StatePaused {
			l.resume()
		}

		now := s.now()
		if l.captured {
			if wait := l.interval - now.Sub(l.lastCapture); wait > 0 {
				s.sleep(min(wait, pollInterval))
				continue
			}
		}

		if l.tick(ctx, now) {
			l.lastCapture = now
			l.captured = true
		}
	}
}

// stop ends the loop. A stop while paused still accounts the paused span.
func (l *loop) stop(reason string) {
	if l.state == pipeline.StatePaused {
		l.result.PausedDuration += l.stage.now().Sub(l.pausedAt)
	}
	l.state = pipeline.StateStopped
	l.result.StopReason = reason
}

// resume excludes the paused span from frame timing.
func (l *loop) resume() {
	d := l.stage.now().Sub(l.pausedAt)
	l.state = pipeline.StateRunning
	l.result.PausedDuration += d
	if l.captured {
		l.lastCapture = l.lastCapture.Add(d)
	}
	l.stage.logger.Info("Recording resumed after %s", d.Round(time.Millisecond).String())
}

// tick performs one capture attempt and reports whether the attempt
// consumed a frame slot. A newly clamped region is retried immediately;
// later attempts with the same region use the clamp directly.
func (l *loop) tick(ctx context.Context, now time.Time) bool {
	s := l.stage

	region := l.region(ctx)
	display := s.grabber.DisplayBounds()
	if l.hasClamp && region == l.clampFrom && display == l.clampDisplay {
		region = l.clampTo
	} else if clamped, ok := clamp(region, display); !ok {
		s.logger.Warn("Region %s clamped to %s", describe(region), describe(clamped))
		l.clampFrom, l.clampTo, l.clampDisplay, l.hasClamp = region, clamped, display, true
		l.pending = &clamped
		return false
	}

	img, err := s.grabber.Grab(region)
	if err != nil {
		l.result.GrabErrors++
		s.logger.Warn("Failed to grab screen: %s", err.Error())
		return true
	}

	frame := toRGBA(img)
	res := pipeline.Resolution{Width: frame.Bounds().Dx(), Height: frame.Bounds().Dy()}
	if l.index.Observe(res) {
		s.logger.Info("New segment %d at %s", l.index.CurrentSegment().Number, res.String())
	}

	ref, err := s.frames.Write(l.index.NextRef(), frame)
	if err != nil {
		l.result.GrabErrors++
		s.logger.Warn("Failed to save frame: %s", err.Error())
		return true
	}
	l.index.Append(ref)
	l.result.FramesCaptured++

	if l.result.FramesCaptured%progressEvery == 0 {
		s.logger.Info("Captured %d frames", l.result.FramesCaptured)
	}
	return true
}

// region picks the region for this attempt: a pending clamped region, the
// tracked window, the static region, or the whole display.
func (l *loop) region(ctx context.Context) ports.Region {
	if l.pending != nil {
		r := *l.pending
		l.pending = nil
		return r
	}
	if l.input.TrackWindow && l.stage.regions != nil {
		if r, ok := l.stage.regions.CurrentRegion(ctx); ok {
			return r
		}
	}
	if l.input.Region != nil {
		return *l.input.Region
	}
	return l.stage.grabber.DisplayBounds()
}

// clamp returns the nearest region inside display. ok is true when region
// was already valid and inside. A non-positive or oversized dimension takes
// the display's; the origin is shifted so the region fits.
func clamp(region, display ports.Region) (ports.Region, bool) {
	if !display.Valid() {
		return region, true
	}
	r := region
	if r.Width <= 0 || r.Width > display.Width {
		r.Width = display.Width
	}
	if r.Height <= 0 || r.Height > display.Height {
		r.Height = display.Height
	}
	r.X = clampInt(r.X, display.X, display.X+display.Width-r.Width)
	r.Y = clampInt(r.Y, display.Y, display.Y+display.Height-r.Height)
	return r, r == region
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func describe(r ports.Region) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

type noControl struct{}

func (noControl) StopRequested() bool { return false }
func (noControl) Paused() bool        { return false }
