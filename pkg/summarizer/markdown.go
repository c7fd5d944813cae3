package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Timelapse Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Video\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "File", s.Video.Path)
	row(&b, "Codec", codecLabel(s.Video.Codec, s.Video.DetectedCodec))
	row(&b, "Canvas", fmt.Sprintf("%dx%d", s.Video.CanvasWidth, s.Video.CanvasHeight))
	row(&b, "Frames", fmt.Sprintf("%d", s.Video.FramesWritten))
	row(&b, "Duration", formatMs(s.Video.DurationMs))
	row(&b, "File Size", formatBytes(s.Video.FileSize))
	if s.Video.FramesSkipped > 0 || s.Video.SegmentsSkipped > 0 {
		row(&b, "Skipped", fmt.Sprintf("%d frames, %d segments", s.Video.FramesSkipped, s.Video.SegmentsSkipped))
	}
	b.WriteString("\n")

	b.WriteString("## Session\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	row(&b, "Recorded", formatMs(s.Session.DurationMs))
	row(&b, "Paused", formatMs(s.Session.PausedMs))
	row(&b, "Frames Captured", fmt.Sprintf("%d", s.Session.FramesCaptured))
	if s.Session.GrabErrors > 0 {
		row(&b, "Capture Errors", fmt.Sprintf("%d", s.Session.GrabErrors))
	}
	if s.Session.StopReason != "" {
		row(&b, "Stopped By", s.Session.StopReason)
	}
	if s.Session.RebuiltFromFiles {
		row(&b, "Index", "rebuilt from frame files")
	}
	b.WriteString("\n")

	if len(s.Session.Segments) > 0 {
		b.WriteString("### Segments\n\n")
		b.WriteString("| # | Resolution | Frames |\n|---|------------|--------|\n")
		for _, seg := range s.Session.Segments {
			fmt.Fprintf(&b, "| %d | %dx%d | %d |\n", seg.Number, seg.Width, seg.Height, seg.Frames)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Settings\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	if s.Settings.FrameRate > 0 {
		row(&b, "Capture Rate", fmt.Sprintf("%.3g frames/s (every %s)", s.Settings.FrameRate, interval(s.Settings.FrameRate)))
	}
	row(&b, "Video FPS", fmt.Sprintf("%.3g", s.Settings.VideoFPS))
	row(&b, "Quality", fmt.Sprintf("%d", s.Settings.Quality))
	region := s.Settings.Region
	if region == "" {
		region = "full display"
	}
	if s.Settings.TrackWindow {
		region = "active window"
	}
	row(&b, "Region", region)
	if s.Settings.CodecPreference != "" {
		row(&b, "Codec Preference", s.Settings.CodecPreference)
	}

	return b.String()
}

// Ensure MarkdownFormatter implements Formatter
var _ Formatter = (*MarkdownFormatter)(nil)

func row(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", name, value)
}

func codecLabel(codec, detected string) string {
	if codec == "" {
		return "-"
	}
	if detected == "" || detected == "unknown" {
		return codec
	}
	return fmt.Sprintf("%s (%s)", codec, detected)
}

func interval(rate float64) string {
	return time.Duration(float64(time.Second) / rate).Round(time.Millisecond).String()
}

func formatMs(ms int64) string {
	return time.Duration(ms * int64(time.Millisecond)).Round(100 * time.Millisecond).String()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024*1024:
		return fmt.Sprintf("%.2f GB", float64(n)/(1024*1024*1024))
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
