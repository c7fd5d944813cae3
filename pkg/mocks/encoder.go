package mocks

import (
	"image"
	"os"
	"sync"

	"github.com/user/timelapse/pkg/ports"
)

// EncoderBackend is a mock implementation of ports.EncoderBackend.
//
// Without OpenFunc it returns a VideoWriter that is open unless the codec is
// listed in Fail, and that writes a small file at the requested path on Close.
type EncoderBackend struct {
	OpenFunc func(path, codec string, fps float64, width, height, quality int) (ports.VideoWriter, error)

	// Fail lists codecs whose writers report not open.
	Fail map[string]bool

	mu        sync.Mutex
	OpenCalls []OpenCall
	Writers   []*VideoWriter
}

// OpenCall records a call to Open.
type OpenCall struct {
	Path    string
	Codec   string
	FPS     float64
	Width   int
	Height  int
	Quality int
}

func (m *EncoderBackend) Open(path, codec string, fps float64, width, height, quality int) (ports.VideoWriter, error) {
	m.mu.Lock()
	m.OpenCalls = append(m.OpenCalls, OpenCall{path, codec, fps, width, height, quality})
	m.mu.Unlock()

	if m.OpenFunc != nil {
		return m.OpenFunc(path, codec, fps, width, height, quality)
	}

	w := &VideoWriter{Path: path, Open: !m.Fail[codec], Width: width, Height: height}
	m.mu.Lock()
	m.Writers = append(m.Writers, w)
	m.mu.Unlock()
	return w, nil
}

// Codecs returns the codecs passed to Open, in order.
func (m *EncoderBackend) Codecs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.OpenCalls))
	for i, c := range m.OpenCalls {
		out[i] = c.Codec
	}
	return out
}

var _ ports.EncoderBackend = (*EncoderBackend)(nil)

// VideoWriter is a mock implementation of ports.VideoWriter.
type VideoWriter struct {
	Path   string
	Open   bool
	Width  int
	Height int

	WriteFunc func(img image.Image) error
	CloseFunc func() error

	// Recorded calls for verification
	Frames      []image.Image
	CloseCalled bool

	// SkipFile leaves no output file on Close.
	SkipFile bool
}

func (m *VideoWriter) IsOpen() bool {
	return m.Open
}

func (m *VideoWriter) Write(img image.Image) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(img)
	}
	m.Frames = append(m.Frames, img)
	return nil
}

func (m *VideoWriter) Close() error {
	m.CloseCalled = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	if m.SkipFile || !m.Open || m.Path == "" {
		return nil
	}
	return os.WriteFile(m.Path, []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}, 0644)
}

var _ ports.VideoWriter = (*VideoWriter)(nil)
