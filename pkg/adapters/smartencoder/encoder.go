// Package smartencoder negotiates a working video codec at runtime.
//
// Codec availability depends on the ffmpeg build and the hardware it runs
// on, so candidates are tried in order until one opens:
//  1. Platform hardware H.264 through ffmpeg
//  2. libx264 through ffmpeg
//  3. Lossless FFV1 in Matroska through ffmpeg
//  4. Motion-JPEG AVI in pure Go
package smartencoder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/timelapse/pkg/ports"
)

// Backend identifies the encoding technology behind a candidate.
type Backend string

const (
	// BackendFFmpeg encodes through an ffmpeg subprocess.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendMJPEG writes Motion-JPEG AVI without external tools.
	BackendMJPEG Backend = "mjpeg"
)

// Candidate is one codec to try.
type Candidate struct {
	Name      string
	Codec     string
	Extension string
	Backend   Backend
}

// Attempt records the outcome of trying one candidate.
type Attempt struct {
	Candidate Candidate
	Path      string
	Err       error
}

// Selection is the writer that opened and how it was found.
type Selection struct {
	Writer    ports.VideoWriter
	Candidate Candidate
	Path      string
	Attempts  []Attempt
}

var (
	// ErrNoEncoderAvailable is returned when every candidate fails.
	ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")

	// ErrNotOpen is recorded for a candidate whose writer did not open.
	ErrNotOpen = errors.New("smartencoder: writer not open")

	// ErrNoBackend is recorded for a candidate whose backend is not configured.
	ErrNoBackend = errors.New("smartencoder: backend not configured")
)

// DefaultCandidates returns the candidate order for goos.
func DefaultCandidates(goos string) []Candidate {
	var candidates []Candidate
	if hw := hardwareCodec(goos); hw != "" {
		candidates = append(candidates, Candidate{Name: "h264-hw", Codec: hw, Extension: ".mp4", Backend: BackendFFmpeg})
	}
	return append(candidates,
		Candidate{Name: "h264", Codec: "libx264", Extension: ".mp4", Backend: BackendFFmpeg},
		Candidate{Name: "ffv1", Codec: "ffv1", Extension: ".mkv", Backend: BackendFFmpeg},
		Candidate{Name: "mjpeg", Codec: "mjpeg", Extension: ".avi", Backend: BackendMJPEG},
	)
}

func hardwareCodec(goos string) string {
	switch goos {
	case "darwin":
		return "h264_videotoolbox"
	case "windows":
		return "h264_mf"
	case "linux":
		return "h264_nvenc"
	default:
		return ""
	}
}

// Rank moves the candidate matching preferred (by name or codec, case
// insensitive) to the front. An unknown preference is tried first as an
// ffmpeg codec writing .mp4. An empty preference returns defaults unchanged.
func Rank(preferred string, defaults []Candidate) []Candidate {
	preferred = strings.TrimSpace(preferred)
	out := append([]Candidate(nil), defaults...)
	if preferred == "" {
		return out
	}

	for i, c := range out {
		if strings.EqualFold(c.Name, preferred) || strings.EqualFold(c.Codec, preferred) {
			ranked := append([]Candidate{c}, out[:i]...)
			return append(ranked, out[i+1:]...)
		}
	}
	custom := Candidate{Name: preferred, Codec: preferred, Extension: ".mp4", Backend: BackendFFmpeg}
	return append([]Candidate{custom}, out...)
}

// OutputPath replaces the extension of basePath with the candidate's.
func OutputPath(basePath string, c Candidate) string {
	return strings.TrimSuffix(basePath, filepath.Ext(basePath)) + c.Extension
}

// Negotiator opens the first candidate that works.
type Negotiator struct {
	backends map[Backend]ports.EncoderBackend
	fs       ports.FileSystem
	logger   ports.Logger
}

// New creates a negotiator over the given backends.
func New(backends map[Backend]ports.EncoderBackend, fs ports.FileSystem, logger ports.Logger) *Negotiator {
	return &Negotiator{
		backends: backends,
		fs:       fs,
		logger:   logger.WithComponent("codec"),
	}
}

// OpenWriter tries candidates in order and returns the first open writer.
// Later candidates are never attempted once one succeeds. A failed attempt
// leaves no file behind, and files that existed before it are left alone.
func (n *Negotiator) OpenWriter(candidates []Candidate, basePath string, width, height int, fps float64, quality int) (Selection, error) {
	sel := Selection{}
	for _, c := range candidates {
		path := OutputPath(basePath, c)
		n.logger.Debug("Trying codec %s", c.Codec)

		existed, _ := n.fs.Exists(path)
		w, err := n.attempt(c, path, width, height, fps, quality)
		sel.Attempts = append(sel.Attempts, Attempt{Candidate: c, Path: path, Err: err})
		if err != nil {
			n.logger.Warn("Codec %s failed: %s", c.Codec, err.Error())
			if !existed {
				n.removePartial(path)
			}
			continue
		}

		sel.Writer = w
		sel.Candidate = c
		sel.Path = path
		n.logger.Info("Using codec %s for %s", c.Codec, path)
		return sel, nil
	}
	return sel, ErrNoEncoderAvailable
}

// attempt opens one candidate. Panics inside a backend count as failure.
func (n *Negotiator) attempt(c Candidate, path string, width, height int, fps float64, quality int) (w ports.VideoWriter, err error) {
	backend, ok := n.backends[c.Backend]
	if !ok || backend == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoBackend, c.Backend)
	}

	defer func() {
		if r := recover(); r != nil {
			w = nil
			err = fmt.Errorf("panic opening %s: %v", c.Codec, r)
		}
	}()

	w, err = backend.Open(path, c.Codec, fps, width, height, quality)
	if err != nil {
		return nil, err
	}
	if w == nil || !w.IsOpen() {
		if w != nil {
			closeQuietly(w)
		}
		return nil, ErrNotOpen
	}
	return w, nil
}

func closeQuietly(w ports.VideoWriter) {
	defer func() { recover() }()
	w.Close()
}

func (n *Negotiator) removePartial(path string) {
	if ok, _ := n.fs.Exists(path); !ok {
		return
	}
	if err := n.fs.Remove(path); err != nil {
		n.logger.Warn("Failed to remove partial file %s: %s", path, err.Error())
	}
}
