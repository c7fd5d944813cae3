// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/timelapse/pkg/ports"
)

// Sink saves debug output to files under a base directory.
type Sink struct {
	baseDir  string
	every    int
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink. Only every Nth composed frame is kept;
// every <= 1 keeps all of them.
func New(baseDir string, every int, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	if every < 1 {
		every = 1
	}
	return &Sink{
		baseDir:  baseDir,
		every:    every,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSessionJSON writes session.json.
func (s *Sink) SaveSessionJSON(data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "session.json"), data)
}

// SaveComposedFrame saves a letterboxed canvas frame as PNG.
func (s *Sink) SaveComposedFrame(index int, img image.Image) error {
	if index%s.every != 0 {
		return nil
	}
	dir := filepath.Join(s.baseDir, "composed")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode composed frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("canvas_%06d.png", index))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
