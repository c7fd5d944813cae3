// Package summarizer provides summary generation for recording sessions.
package summarizer

import "time"

// Summary contains all data collected during a recording session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Capture results
	Session SessionInfo

	// Recording settings
	Settings Settings

	// Video output details
	Video VideoInfo
}

// SessionInfo describes the capture phase.
type SessionInfo struct {
	DurationMs       int64
	PausedMs         int64
	StopReason       string
	FramesCaptured   int
	GrabErrors       int
	Segments         []SegmentInfo
	RebuiltFromFiles bool
}

// SegmentInfo describes one resolution-homogeneous run of frames.
type SegmentInfo struct {
	Number int
	Width  int
	Height int
	Frames int
}

// Settings contains the recording configuration.
type Settings struct {
	FrameRate       float64
	VideoFPS        float64
	Quality         int
	Region          string
	TrackWindow     bool
	CodecPreference string
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Path            string
	Codec           string
	DetectedCodec   string
	CanvasWidth     int
	CanvasHeight    int
	FramesWritten   int
	FramesSkipped   int
	SegmentsSkipped int
	FileSize        int64
	DurationMs      int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSession sets capture information.
func (b *Builder) WithSession(session SessionInfo) *Builder {
	b.summary.Session = session
	return b
}

// AddSegment appends a segment to the session information.
func (b *Builder) AddSegment(number, width, height, frames int) *Builder {
	b.summary.Session.Segments = append(b.summary.Session.Segments, SegmentInfo{
		Number: number,
		Width:  width,
		Height: height,
		Frames: frames,
	})
	return b
}

// WithSettings sets recording settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
