package ports

import (
	"image"
)

// EncoderBackend opens video writers for a specific encoding technology.
type EncoderBackend interface {
	// Open creates a writer producing a video at path with the given codec,
	// frame rate and fixed frame dimensions. Quality ranges 1-100, higher is better.
	// A writer may be returned that is not open; callers must check IsOpen.
	Open(path, codec string, fps float64, width, height, quality int) (VideoWriter, error)
}

// VideoWriter accepts frames one at a time.
type VideoWriter interface {
	// IsOpen reports whether the encoder was opened successfully.
	IsOpen() bool

	// Write encodes one frame. The frame must match the writer's dimensions.
	Write(img image.Image) error

	// Close finalizes the output file.
	Close() error
}
