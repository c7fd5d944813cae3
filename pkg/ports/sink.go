package ports

import (
	"image"
)

// DebugSink receives intermediate session artifacts for troubleshooting.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSessionJSON saves the session index as JSON.
	SaveSessionJSON(data []byte) error

	// SaveComposedFrame saves a letterboxed canvas frame.
	SaveComposedFrame(index int, img image.Image) error
}
