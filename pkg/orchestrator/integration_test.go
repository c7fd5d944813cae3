package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/user/timelapse/pkg/adapters/codecdetect"
	"github.com/user/timelapse/pkg/adapters/ggrenderer"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/mjpegwriter"
	"github.com/user/timelapse/pkg/adapters/nullsink"
	"github.com/user/timelapse/pkg/adapters/osfilesystem"
	"github.com/user/timelapse/pkg/adapters/smartencoder"
	"github.com/user/timelapse/pkg/framestore"
	"github.com/user/timelapse/pkg/mocks"
	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/stages/assemble"
	"github.com/user/timelapse/pkg/stages/record"
)

// TestRecordToVideo runs capture, persistence and assembly end to end with
// a scripted screen and the MJPEG backend.
func TestRecordToVideo(t *testing.T) {
	root := t.TempDir()
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	log := logger.NewNoop()
	store := framestore.New(filepath.Join(root, "temp"), fs, renderer, 80)

	control := &mocks.Control{}
	var grabs atomic.Int32
	grabber := &mocks.ScreenGrabber{
		Bounds: ports.Region{Width: 120, Height: 90},
		GrabFunc: func(region ports.Region) (image.Image, error) {
			n := grabs.Add(1)
			if n >= 4 {
				control.RequestStop()
			}
			// The window shrinks after two frames
			if n <= 2 {
				return mocks.SolidImage(120, 90, color.RGBA{R: 200, A: 255}), nil
			}
			return mocks.SolidImage(60, 40, color.RGBA{G: 200, A: 255}), nil
		},
	}

	negotiator := smartencoder.New(map[smartencoder.Backend]ports.EncoderBackend{
		smartencoder.BackendMJPEG: mjpegwriter.New(),
	}, fs, log)
	candidates := smartencoder.Rank("mjpeg", smartencoder.DefaultCandidates(runtime.GOOS))[:1]

	orch := orchestrator.New(
		record.New(grabber, nil, store, log),
		assemble.New(store, negotiator, renderer, fs, log, assemble.Options{Candidates: candidates}),
		store,
		nil,
		nullsink.New(),
		log,
	)

	config := orchestrator.DefaultConfig()
	config.OutputPath = filepath.Join(root, "timelapse.mp4")
	config.FrameRate = 200
	config.VideoFPS = 10

	result, err := orch.Record(context.Background(), config, control)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if got := len(result.Index.Segments); got != 2 {
		t.Fatalf("expected 2 segments, got %d", got)
	}
	if result.Video.FramesWritten != 4 {
		t.Errorf("expected 4 frames written, got %d", result.Video.FramesWritten)
	}
	if result.Video.Canvas.Width != 120 || result.Video.Canvas.Height != 90 {
		t.Errorf("unexpected canvas %s", result.Video.Canvas)
	}

	want := filepath.Join(root, "timelapse.avi")
	if result.Video.OutputPath != want {
		t.Errorf("expected output %s, got %s", want, result.Video.OutputPath)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Error("expected an AVI file")
	}
	info, err := codecdetect.Probe(want)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.Codec != codecdetect.CodecMJPEG {
		t.Errorf("expected mjpeg, got %s", info.Codec)
	}

	if store.Exists() {
		t.Error("expected frames directory to be removed after assembly")
	}

	// A late finalize from another exit path is a no-op
	again, err := orch.Finalize(context.Background(), nil)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if again.Video.OutputPath != result.Video.OutputPath {
		t.Error("expected cached result from second finalize")
	}
}

// TestCreateVideo_LegacyDirectory assembles a directory written by the
// older single-segment recorder.
func TestCreateVideo_LegacyDirectory(t *testing.T) {
	root := t.TempDir()
	framesDir := filepath.Join(root, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		t.Fatal(err)
	}

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	for i := 0; i < 3; i++ {
		data, err := renderer.EncodeImage(mocks.SolidImage(64, 48, color.White), ports.FormatJPEG, 80)
		if err != nil {
			t.Fatal(err)
		}
		name := filepath.Join(framesDir, fmt.Sprintf("frame_%06d.jpg", i))
		if err := os.WriteFile(name, data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	log := logger.NewNoop()
	store := framestore.New(framesDir, fs, renderer, 80)
	negotiator := smartencoder.New(map[smartencoder.Backend]ports.EncoderBackend{
		smartencoder.BackendMJPEG: mjpegwriter.New(),
	}, fs, log)
	candidates := smartencoder.Rank("mjpeg", smartencoder.DefaultCandidates(runtime.GOOS))[:1]

	orch := orchestrator.New(
		record.New(&mocks.ScreenGrabber{}, nil, store, log),
		assemble.New(store, negotiator, renderer, fs, log, assemble.Options{Candidates: candidates}),
		store,
		nil,
		nil,
		log,
	)

	config := orchestrator.DefaultConfig()
	config.OutputPath = filepath.Join(root, "out.mp4")
	result, err := orch.CreateVideo(context.Background(), config)
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	if !result.Rebuilt || result.Video.FramesWritten != 3 {
		t.Errorf("unexpected result: rebuilt=%v written=%d", result.Rebuilt, result.Video.FramesWritten)
	}
}

// TestRecord_KeepsEarlierSession refuses to record over frames left by a
// session that was never assembled.
func TestRecord_KeepsEarlierSession(t *testing.T) {
	root := t.TempDir()
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	log := logger.NewNoop()
	store := framestore.New(filepath.Join(root, "temp"), fs, renderer, 80)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	res := pipeline.Resolution{Width: 64, Height: 48}
	for i := 0; i < 5; i++ {
		ref := pipeline.FrameRef{Segment: 0, Sequence: i, Resolution: res}
		if _, err := store.Write(ref, mocks.SolidImage(64, 48, color.White)); err != nil {
			t.Fatal(err)
		}
	}

	grabber := &mocks.ScreenGrabber{Bounds: ports.Region{Width: 64, Height: 48}}
	orch := orchestrator.New(
		record.New(grabber, nil, store, log),
		assemble.New(store, nil, renderer, fs, log, assemble.Options{}),
		store,
		nil,
		nil,
		log,
	)

	control := &mocks.Control{}
	control.RequestStop()
	_, err := orch.Record(context.Background(), orchestrator.DefaultConfig(), control)
	if !errors.Is(err, orchestrator.ErrLeftoverFrames) {
		t.Fatalf("expected ErrLeftoverFrames, got %v", err)
	}
	if len(grabber.Calls()) != 0 {
		t.Errorf("expected no capture, got %d grabs", len(grabber.Calls()))
	}

	idx, err := store.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if idx.FrameCount() != 5 {
		t.Errorf("expected the 5 earlier frames to survive, got %d", idx.FrameCount())
	}
}
