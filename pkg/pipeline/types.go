package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/timelapse/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Resolution represents frame width and height in pixels.
type Resolution struct {
	Width  int
	Height int
}

// ResolutionOf returns the resolution of a capture region.
func ResolutionOf(r ports.Region) Resolution {
	return Resolution{Width: r.Width, Height: r.Height}
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// String returns the resolution as WxH.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// RunState is the state of a capture loop.
type RunState int

const (
	// StateRunning captures frames at the target rate.
	StateRunning RunState = iota
	// StatePaused idles without advancing capture timing.
	StatePaused
	// StateStopped is terminal.
	StateStopped
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// =============================================================================
// Session Index
// =============================================================================

// FrameRef identifies a persisted frame.
type FrameRef struct {
	Segment    int
	Sequence   int
	Resolution Resolution
	Path       string
}

// Segment is a contiguous run of frames sharing one capture resolution.
type Segment struct {
	Number     int
	Resolution Resolution
	Frames     []FrameRef
}

// SessionIndex is the ordered list of segments of a recording.
// It is built during capture and consumed during assembly.
type SessionIndex struct {
	Segments []Segment
}

var (
	// ErrNonContiguousSegments is returned when segment numbers have gaps.
	ErrNonContiguousSegments = errors.New("pipeline: segment numbers are not contiguous")

	// ErrNonContiguousFrames is returned when frame sequences within a segment have gaps.
	ErrNonContiguousFrames = errors.New("pipeline: frame sequences are not contiguous")
)

// CurrentSegment returns the last segment, or nil if the index is empty.
func (idx *SessionIndex) CurrentSegment() *Segment {
	if len(idx.Segments) == 0 {
		return nil
	}
	return &idx.Segments[len(idx.Segments)-1]
}

// Observe records the resolution seen before a capture and reports whether
// a new segment was opened.
//
// The first observation initialises segment 0. A resolution differing from
// the current segment's opens a new segment only if the current one already
// holds a frame; an empty segment takes the new resolution in place, or is
// dropped when the previous segment already has that resolution.
func (idx *SessionIndex) Observe(res Resolution) bool {
	cur := idx.CurrentSegment()
	if cur == nil {
		idx.Segments = append(idx.Segments, Segment{Number: 0, Resolution: res})
		return false
	}
	if cur.Resolution == res {
		return false
	}
	if len(cur.Frames) == 0 {
		if n := len(idx.Segments); n > 1 && idx.Segments[n-2].Resolution == res {
			idx.Segments = idx.Segments[:n-1]
			return false
		}
		cur.Resolution = res
		return false
	}
	idx.Segments = append(idx.Segments, Segment{Number: cur.Number + 1, Resolution: res})
	return true
}

// NextRef returns the reference for the next frame of the current segment.
// Observe must have been called at least once.
func (idx *SessionIndex) NextRef() FrameRef {
	cur := idx.CurrentSegment()
	return FrameRef{
		Segment:    cur.Number,
		Sequence:   len(cur.Frames),
		Resolution: cur.Resolution,
	}
}

// Append adds a persisted frame to the current segment.
func (idx *SessionIndex) Append(ref FrameRef) {
	cur := idx.CurrentSegment()
	cur.Frames = append(cur.Frames, ref)
}

// FrameCount returns the total number of frames across all segments.
func (idx SessionIndex) FrameCount() int {
	n := 0
	for _, seg := range idx.Segments {
		n += len(seg.Frames)
	}
	return n
}

// NonEmpty returns a copy of the index without segments that hold no frames.
// Segment numbers are preserved.
func (idx SessionIndex) NonEmpty() SessionIndex {
	out := SessionIndex{}
	for _, seg := range idx.Segments {
		if len(seg.Frames) > 0 {
			out.Segments = append(out.Segments, seg)
		}
	}
	return out
}

// CanvasResolution returns the componentwise maximum resolution across all segments.
func (idx SessionIndex) CanvasResolution() Resolution {
	var canvas Resolution
	for _, seg := range idx.Segments {
		if seg.Resolution.Width > canvas.Width {
			canvas.Width = seg.Resolution.Width
		}
		if seg.Resolution.Height > canvas.Height {
			canvas.Height = seg.Resolution.Height
		}
	}
	return canvas
}

// Validate checks that segment numbers and frame sequences are contiguous from 0.
func (idx SessionIndex) Validate() error {
	for i, seg := range idx.Segments {
		if seg.Number != i {
			return fmt.Errorf("%w: segment %d at position %d", ErrNonContiguousSegments, seg.Number, i)
		}
		for j, f := range seg.Frames {
			if f.Segment != seg.Number || f.Sequence != j {
				return fmt.Errorf("%w: segment %d frame %d has sequence %d", ErrNonContiguousFrames, seg.Number, j, f.Sequence)
			}
		}
	}
	return nil
}

// =============================================================================
// Record Stage Types
// =============================================================================

// RecordInput contains parameters for a capture session.
type RecordInput struct {
	TargetFrameRate float64       // Captures per second (> 0)
	Region          *ports.Region // Static region; nil means full primary display
	TrackWindow     bool          // Follow the active window via the region tracker
	Control         ports.Control
}

// RecordResult is the outcome of a capture session.
type RecordResult struct {
	Index          SessionIndex
	FramesCaptured int
	GrabErrors     int
	Duration       time.Duration
	PausedDuration time.Duration
	StopReason     string
}

// =============================================================================
// Assemble Stage Types
// =============================================================================

// AssembleInput contains parameters for video assembly.
type AssembleInput struct {
	Index      SessionIndex
	OutputPath string  // Nominal output path; the extension may change with the codec
	FPS        float64 // Output frame rate
	Quality    int     // 1-100, higher is better
	NoUpscale  bool    // Cap the per-segment scale at 1.0
}

// AssembleResult contains the assembled video details.
type AssembleResult struct {
	OutputPath      string
	Codec           string
	Canvas          Resolution
	FramesWritten   int
	FramesSkipped   int
	SegmentsSkipped int
	FileSize        int64
	DetectedCodec   string
}
