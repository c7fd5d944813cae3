package ffmpegwriter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/user/timelapse/pkg/ports"
)

const probeTimeout = 15 * time.Second

// Backend opens ffmpeg-backed writers.
type Backend struct {
	// FFmpegPath overrides discovery when set.
	FFmpegPath string
}

// New creates a backend using FindFFmpeg discovery.
func New() *Backend {
	return &Backend{}
}

// Ensure Backend implements ports.EncoderBackend
var _ ports.EncoderBackend = (*Backend)(nil)

// Open probes the codec with a one-frame test encode and, if that succeeds,
// starts an ffmpeg process reading raw RGBA frames from stdin.
func (b *Backend) Open(path, codec string, fps float64, width, height, quality int) (ports.VideoWriter, error) {
	ffmpegPath := b.FFmpegPath
	if ffmpegPath == "" {
		p, err := FindFFmpeg()
		if err != nil {
			return nil, err
		}
		ffmpegPath = p
	}

	if err := probe(ffmpegPath, codec, width, height, fps, quality); err != nil {
		return nil, err
	}

	w := &Writer{width: width, height: height, path: path}
	args := buildArgs(path, codec, width, height, fps, quality)
	w.cmd = exec.Command(ffmpegPath, args...)
	w.cmd.Stderr = &w.stderr

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	w.stdin = stdin

	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	w.open = true
	return w, nil
}

func buildArgs(path, codec string, width, height int, fps float64, quality int) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%.3f", fps),
		"-i", "pipe:0",
		"-c:v", codec,
	}
	if needsEvenSize(codec) && (width%2 != 0 || height%2 != 0) {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
	}
	args = append(args, codecArgs(codec, width, height, fps, quality)...)
	return append(args, path)
}

// probe checks that ffmpeg can actually encode with codec. Hardware encoders
// are compiled into many ffmpeg builds without a device to run on.
func probe(ffmpegPath, codec string, width, height int, fps float64, quality int) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	// yuv420p codecs reject odd sizes before the pad filter is applied
	w, h := width, height
	if needsEvenSize(codec) {
		w, h = w+w%2, h+h%2
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:d=1", w, h),
		"-frames:v", "1",
		"-c:v", codec,
	}
	args = append(args, codecArgs(codec, w, h, fps, quality)...)
	args = append(args, "-f", "null", "-")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s: %s", ErrCodecUnavailable, codec, firstLine(msg))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Writer pipes frames to a running ffmpeg process.
type Writer struct {
	width  int
	height int
	path   string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	open   bool
	frames int
}

// Ensure Writer implements ports.VideoWriter
var _ ports.VideoWriter = (*Writer)(nil)

// IsOpen reports whether the ffmpeg process is accepting frames.
func (w *Writer) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Write sends one frame as raw RGBA.
func (w *Writer) Write(img image.Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open {
		return ErrClosed
	}
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w.width, w.height)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != w.width*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, w.width, w.height))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	if _, err := w.stdin.Write(rgba.Pix); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	w.frames++
	return nil
}

// Close ends the input stream and waits for ffmpeg to finish the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open {
		return nil
	}
	w.open = false
	w.stdin.Close()

	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", err, w.stderr.String())
	}
	if w.frames == 0 {
		// ffmpeg leaves a header-only file when no frames were sent
		os.Remove(w.path)
	}
	return nil
}
