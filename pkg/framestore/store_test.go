package framestore

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/timelapse/pkg/adapters/ggrenderer"
	"github.com/user/timelapse/pkg/adapters/osfilesystem"
	"github.com/user/timelapse/pkg/mocks"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "temp"), osfilesystem.New(), ggrenderer.New(), 80)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

// record writes frames the way the capture loop does.
func record(t *testing.T, s *Store, plan []struct {
	res    pipeline.Resolution
	frames int
}) pipeline.SessionIndex {
	t.Helper()
	var idx pipeline.SessionIndex
	for _, p := range plan {
		for i := 0; i < p.frames; i++ {
			idx.Observe(p.res)
			img := mocks.SolidImage(p.res.Width, p.res.Height, color.RGBA{R: 200, A: 255})
			ref, err := s.Write(idx.NextRef(), img)
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			idx.Append(ref)
		}
	}
	return idx
}

func TestStore_Path(t *testing.T) {
	s := New("/tmp/frames", mocks.NewFileSystem(), &mocks.Renderer{}, 80)
	ref := pipeline.FrameRef{Segment: 2, Sequence: 17, Resolution: pipeline.Resolution{Width: 1280, Height: 720}}
	want := filepath.Join("/tmp/frames", "frame_s0002_f000017_1280x720.jpg")
	if got := s.Path(ref); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
}

func TestStore_ScanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	plan := []struct {
		res    pipeline.Resolution
		frames int
	}{
		{pipeline.Resolution{Width: 64, Height: 48}, 3},
		{pipeline.Resolution{Width: 32, Height: 32}, 2},
		{pipeline.Resolution{Width: 64, Height: 48}, 4},
	}
	idx := record(t, s, plan)

	scanned, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := scanned.Validate(); err != nil {
		t.Fatalf("scanned index invalid: %v", err)
	}
	if len(scanned.Segments) != len(idx.Segments) {
		t.Fatalf("segments = %d, want %d", len(scanned.Segments), len(idx.Segments))
	}
	for i, seg := range scanned.Segments {
		want := idx.Segments[i]
		if seg.Resolution != want.Resolution {
			t.Errorf("segment %d resolution = %s, want %s", i, seg.Resolution, want.Resolution)
		}
		if len(seg.Frames) != len(want.Frames) {
			t.Errorf("segment %d frames = %d, want %d", i, len(seg.Frames), len(want.Frames))
		}
		for j := range seg.Frames {
			if seg.Frames[j].Path != want.Frames[j].Path {
				t.Errorf("segment %d frame %d path = %s, want %s", i, j, seg.Frames[j].Path, want.Frames[j].Path)
			}
		}
	}
	if scanned.FrameCount() != 9 {
		t.Errorf("FrameCount = %d, want 9", scanned.FrameCount())
	}
}

func TestStore_ScanRenumbersGaps(t *testing.T) {
	s := newTestStore(t)
	idx := record(t, s, []struct {
		res    pipeline.Resolution
		frames int
	}{
		{pipeline.Resolution{Width: 40, Height: 30}, 3},
		{pipeline.Resolution{Width: 20, Height: 20}, 1},
		{pipeline.Resolution{Width: 30, Height: 40}, 2},
	})

	// drop the middle frame of segment 0 and all of segment 1
	os.Remove(idx.Segments[0].Frames[1].Path)
	os.Remove(idx.Segments[1].Frames[0].Path)

	scanned, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := scanned.Validate(); err != nil {
		t.Fatalf("scanned index invalid: %v", err)
	}
	if len(scanned.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(scanned.Segments))
	}
	if got := len(scanned.Segments[0].Frames); got != 2 {
		t.Errorf("segment 0 frames = %d, want 2", got)
	}
	if scanned.Segments[1].Resolution != (pipeline.Resolution{Width: 30, Height: 40}) {
		t.Errorf("segment 1 resolution = %s", scanned.Segments[1].Resolution)
	}
}

func TestStore_ScanLegacyAndIgnored(t *testing.T) {
	s := newTestStore(t)
	r := ggrenderer.New()

	for i := 0; i < 3; i++ {
		data, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 50, 40)), ports.FormatJPEG, 80)
		if err != nil {
			t.Fatal(err)
		}
		os.WriteFile(filepath.Join(s.Dir(), fmt.Sprintf("frame_%06d.jpg", i)), data, 0644)
	}
	os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(s.Dir(), "frame_000009.jpg"), []byte("corrupt"), 0644)
	os.WriteFile(filepath.Join(s.Dir(), ".stop"), nil, 0644)

	scanned, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(scanned.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(scanned.Segments))
	}
	seg := scanned.Segments[0]
	if seg.Resolution != (pipeline.Resolution{Width: 50, Height: 40}) {
		t.Errorf("resolution = %s, want 50x40", seg.Resolution)
	}
	if len(seg.Frames) != 3 {
		t.Errorf("frames = %d, want 3", len(seg.Frames))
	}
}

func TestStore_ReadAndConfig(t *testing.T) {
	s := newTestStore(t)
	idx := record(t, s, []struct {
		res    pipeline.Resolution
		frames int
	}{{pipeline.Resolution{Width: 24, Height: 16}, 1}})

	ref := idx.Segments[0].Frames[0]
	img, err := s.Read(ref)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 16 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	res, err := s.ReadConfig(ref)
	if err != nil || res != ref.Resolution {
		t.Errorf("ReadConfig = %s, %v", res, err)
	}
}

func TestStore_WriteInvalidRef(t *testing.T) {
	s := New("/frames", mocks.NewFileSystem(), &mocks.Renderer{}, 80)
	if _, err := s.Write(pipeline.FrameRef{}, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error for zero resolution")
	}
}

func TestStore_DeleteAndRemoveDir(t *testing.T) {
	s := newTestStore(t)
	idx := record(t, s, []struct {
		res    pipeline.Resolution
		frames int
	}{{pipeline.Resolution{Width: 8, Height: 8}, 3}})

	refs := idx.Segments[0].Frames
	os.Remove(refs[0].Path)

	n, err := s.Delete(refs)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if err := s.RemoveDir(); err != nil {
		t.Fatalf("RemoveDir: %v", err)
	}
	if s.Exists() {
		t.Error("directory should be gone")
	}
	if err := s.RemoveDir(); err != nil {
		t.Errorf("RemoveDir on missing dir: %v", err)
	}
}

func TestStore_ScanMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), osfilesystem.New(), ggrenderer.New(), 80)
	if _, err := s.Scan(); err == nil {
		t.Error("expected error scanning a missing directory")
	}
}
