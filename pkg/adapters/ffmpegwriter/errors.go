package ffmpegwriter

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegwriter: ffmpeg not found")

	// ErrCodecUnavailable is returned when ffmpeg cannot encode with the requested codec.
	ErrCodecUnavailable = errors.New("ffmpegwriter: codec unavailable")

	// ErrClosed is returned when writing to a closed writer.
	ErrClosed = errors.New("ffmpegwriter: writer closed")

	// ErrFrameSize is returned when a frame does not match the writer's dimensions.
	ErrFrameSize = errors.New("ffmpegwriter: frame size mismatch")
)
