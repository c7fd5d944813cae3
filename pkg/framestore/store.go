// Package framestore persists captured frames and rebuilds a session index
// from a frame directory.
//
// File names carry everything needed to rebuild the index:
//
//	frame_s0001_f000042_1280x720.jpg
//
// is frame 42 of segment 1, captured at 1280x720. Directories written by
// older recorders (frame_000042.jpg) are read as a single segment.
package framestore

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

var (
	framePattern  = regexp.MustCompile(`^frame_s(\d{4,})_f(\d{6,})_(\d+)x(\d+)\.jpg$`)
	legacyPattern = regexp.MustCompile(`^frame_(\d+)\.(?i:jpe?g|png)$`)
)

// ErrInvalidRef is returned when a frame reference has no resolution.
var ErrInvalidRef = errors.New("framestore: invalid frame reference")

// Store reads and writes frames in one directory.
type Store struct {
	dir      string
	fs       ports.FileSystem
	renderer ports.Renderer
	quality  int
}

// New creates a store for dir. Frames are JPEG-encoded at quality (1-100).
func New(dir string, fs ports.FileSystem, renderer ports.Renderer, quality int) *Store {
	return &Store{dir: dir, fs: fs, renderer: renderer, quality: quality}
}

// Dir returns the frame directory.
func (s *Store) Dir() string {
	return s.dir
}

// Init creates the frame directory.
func (s *Store) Init() error {
	if err := s.fs.MkdirAll(s.dir); err != nil {
		return fmt.Errorf("create frame directory: %w", err)
	}
	return nil
}

// Exists reports whether the frame directory exists.
func (s *Store) Exists() bool {
	ok, err := s.fs.Exists(s.dir)
	return err == nil && ok
}

// Path returns the file path for ref.
func (s *Store) Path(ref pipeline.FrameRef) string {
	name := fmt.Sprintf("frame_s%04d_f%06d_%dx%d.jpg",
		ref.Segment, ref.Sequence, ref.Resolution.Width, ref.Resolution.Height)
	return filepath.Join(s.dir, name)
}

// Write encodes img and stores it under ref. The returned ref has Path set.
func (s *Store) Write(ref pipeline.FrameRef, img image.Image) (pipeline.FrameRef, error) {
	if !ref.Resolution.Valid() {
		return ref, fmt.Errorf("%w: resolution %s", ErrInvalidRef, ref.Resolution)
	}

	data, err := s.renderer.EncodeImage(img, ports.FormatJPEG, s.quality)
	if err != nil {
		return ref, fmt.Errorf("encode frame: %w", err)
	}

	ref.Path = s.Path(ref)
	if err := s.fs.WriteFile(ref.Path, data); err != nil {
		return ref, fmt.Errorf("write frame: %w", err)
	}
	return ref, nil
}

// Read decodes the frame stored at ref.Path.
func (s *Store) Read(ref pipeline.FrameRef) (image.Image, error) {
	data, err := s.fs.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	img, err := s.renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// ReadConfig returns the stored dimensions of the frame at ref.Path.
func (s *Store) ReadConfig(ref pipeline.FrameRef) (pipeline.Resolution, error) {
	data, err := s.fs.ReadFile(ref.Path)
	if err != nil {
		return pipeline.Resolution{}, fmt.Errorf("read frame: %w", err)
	}
	w, h, err := s.renderer.DecodeConfig(data)
	if err != nil {
		return pipeline.Resolution{}, fmt.Errorf("decode frame header: %w", err)
	}
	return pipeline.Resolution{Width: w, Height: h}, nil
}

// Delete removes the files of refs. Missing files are ignored.
// It returns the number of files removed.
func (s *Store) Delete(refs []pipeline.FrameRef) (int, error) {
	removed := 0
	var errs []error
	for _, ref := range refs {
		if ok, _ := s.fs.Exists(ref.Path); !ok {
			continue
		}
		if err := s.fs.Remove(ref.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// RemoveDir removes the frame directory, which must be empty.
func (s *Store) RemoveDir() error {
	if !s.Exists() {
		return nil
	}
	return s.fs.Remove(s.dir)
}

// Scan rebuilds a session index from the directory listing.
//
// Segments and sequences are renumbered from 0 in file order, so gaps left
// by deleted or failed files do not break the index invariants. Files that
// match neither naming scheme are ignored, as are legacy files whose
// header cannot be read.
func (s *Store) Scan() (pipeline.SessionIndex, error) {
	names, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return pipeline.SessionIndex{}, fmt.Errorf("list frames: %w", err)
	}

	var legacy []scanned
	var current []scanned
	for _, name := range names {
		if m := framePattern.FindStringSubmatch(name); m != nil {
			current = append(current, scanned{
				name:  name,
				group: atoi(m[1]),
				order: atoi(m[2]),
				res:   pipeline.Resolution{Width: atoi(m[3]), Height: atoi(m[4])},
			})
			continue
		}
		if m := legacyPattern.FindStringSubmatch(name); m != nil {
			legacy = append(legacy, scanned{name: name, order: atoi(m[1])})
		}
	}

	sortScanned(legacy)
	sortScanned(current)

	// Legacy frames are a single recording whose resolution comes from the
	// image header; a resolution change still starts a new segment.
	for i := range legacy {
		path := filepath.Join(s.dir, legacy[i].name)
		res, err := s.ReadConfig(pipeline.FrameRef{Path: path})
		if err != nil {
			legacy[i].skip = true
			continue
		}
		legacy[i].res = res
	}

	b := &indexBuilder{}
	for _, f := range legacy {
		if f.skip {
			continue
		}
		b.add(-1, f.res, filepath.Join(s.dir, f.name))
	}
	b.breakGroup()
	for _, f := range current {
		b.add(f.group, f.res, filepath.Join(s.dir, f.name))
	}
	return b.idx, nil
}

type scanned struct {
	name  string
	group int
	order int
	res   pipeline.Resolution
	skip  bool
}

func sortScanned(files []scanned) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].group != files[j].group {
			return files[i].group < files[j].group
		}
		return files[i].order < files[j].order
	})
}

// indexBuilder assigns contiguous segment and sequence numbers.
type indexBuilder struct {
	idx     pipeline.SessionIndex
	group   int
	started bool
}

func (b *indexBuilder) add(group int, res pipeline.Resolution, path string) {
	cur := b.idx.CurrentSegment()
	if cur == nil || !b.started || group != b.group || cur.Resolution != res {
		b.idx.Segments = append(b.idx.Segments, pipeline.Segment{
			Number:     len(b.idx.Segments),
			Resolution: res,
		})
		b.group = group
		b.started = true
	}
	ref := b.idx.NextRef()
	ref.Path = path
	b.idx.Append(ref)
}

// breakGroup forces the next add to open a new segment.
func (b *indexBuilder) breakGroup() {
	b.started = false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
