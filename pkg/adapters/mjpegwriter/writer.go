// Package mjpegwriter writes Motion-JPEG AVI files in pure Go.
// It has no external requirements and serves as the last-resort codec.
package mjpegwriter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"

	"github.com/icza/mjpeg"

	"github.com/user/timelapse/pkg/ports"
)

// Codec is the only codec name this backend accepts.
const Codec = "mjpeg"

var (
	// ErrUnsupportedCodec is returned when Open is asked for a codec other than mjpeg.
	ErrUnsupportedCodec = errors.New("mjpegwriter: unsupported codec")

	// ErrClosed is returned when writing to a closed writer.
	ErrClosed = errors.New("mjpegwriter: writer closed")
)

// Backend opens AVI writers.
type Backend struct{}

// New creates a backend.
func New() *Backend {
	return &Backend{}
}

// Ensure Backend implements ports.EncoderBackend
var _ ports.EncoderBackend = (*Backend)(nil)

// Open creates an AVI file at path. The AVI header stores an integer frame
// rate, so fps is rounded and never below 1.
func (b *Backend) Open(path, codec string, fps float64, width, height, quality int) (ports.VideoWriter, error) {
	if codec != Codec {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, codec)
	}

	rate := int32(math.Round(fps))
	if rate < 1 {
		rate = 1
	}

	aw, err := mjpeg.New(path, int32(width), int32(height), rate)
	if err != nil {
		return nil, fmt.Errorf("create avi: %w", err)
	}

	if quality < 1 {
		quality = 1
	} else if quality > 100 {
		quality = 100
	}

	return &Writer{aw: aw, path: path, width: width, height: height, quality: quality}, nil
}

// Writer appends JPEG-encoded frames to an AVI container.
type Writer struct {
	aw      mjpeg.AviWriter
	path    string
	width   int
	height  int
	quality int
	frames  int
	buf     bytes.Buffer
}

// Ensure Writer implements ports.VideoWriter
var _ ports.VideoWriter = (*Writer)(nil)

// IsOpen reports whether the AVI file is accepting frames.
func (w *Writer) IsOpen() bool {
	return w.aw != nil
}

// Write encodes img as JPEG and appends it.
func (w *Writer) Write(img image.Image) error {
	if w.aw == nil {
		return ErrClosed
	}
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("mjpegwriter: frame size %dx%d, want %dx%d", b.Dx(), b.Dy(), w.width, w.height)
	}

	w.buf.Reset()
	if err := jpeg.Encode(&w.buf, img, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := w.aw.AddFrame(w.buf.Bytes()); err != nil {
		return fmt.Errorf("add frame: %w", err)
	}
	w.frames++
	return nil
}

// Close finalizes the AVI index and header. A file with no frames is removed.
func (w *Writer) Close() error {
	if w.aw == nil {
		return nil
	}
	err := w.aw.Close()
	w.aw = nil
	if w.frames == 0 {
		os.Remove(w.path)
	}
	if err != nil {
		return fmt.Errorf("close avi: %w", err)
	}
	return nil
}
