package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/mocks"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// mockRecordStage is a mock for the record stage.
type mockRecordStage struct {
	result  pipeline.RecordResult
	err     error
	panic   any
	calls   int
	input   pipeline.RecordInput
	onStart func()
}

func (m *mockRecordStage) Execute(ctx context.Context, input pipeline.RecordInput) (pipeline.RecordResult, error) {
	m.calls++
	m.input = input
	if m.onStart != nil {
		m.onStart()
	}
	if m.panic != nil {
		panic(m.panic)
	}
	return m.result, m.err
}

// mockAssembleStage is a mock for the assemble stage.
type mockAssembleStage struct {
	result pipeline.AssembleResult
	err    error
	calls  int
	input  pipeline.AssembleInput
}

func (m *mockAssembleStage) Execute(ctx context.Context, input pipeline.AssembleInput) (pipeline.AssembleResult, error) {
	m.calls++
	m.input = input
	if m.err != nil {
		return pipeline.AssembleResult{}, m.err
	}
	return m.result, nil
}

// fakeStore is an in-memory SessionStore.
type fakeStore struct {
	exists    bool
	initErr   error
	scan      pipeline.SessionIndex
	scanErr   error
	scanCalls int
	initCalls int
}

func (s *fakeStore) Init() error {
	s.initCalls++
	if s.initErr != nil {
		return s.initErr
	}
	s.exists = true
	return nil
}

func (s *fakeStore) Exists() bool { return s.exists }
func (s *fakeStore) Dir() string  { return "frames" }

func (s *fakeStore) Scan() (pipeline.SessionIndex, error) {
	s.scanCalls++
	return s.scan, s.scanErr
}

type fakeMarkers struct{ cleared int }

func (m *fakeMarkers) ClearMarkers() error {
	m.cleared++
	return nil
}

func indexOf(frames ...int) pipeline.SessionIndex {
	idx := pipeline.SessionIndex{}
	for n, count := range frames {
		res := pipeline.Resolution{Width: 100 + n, Height: 80}
		seg := pipeline.Segment{Number: n, Resolution: res}
		for i := 0; i < count; i++ {
			seg.Frames = append(seg.Frames, pipeline.FrameRef{Segment: n, Sequence: i, Resolution: res})
		}
		idx.Segments = append(idx.Segments, seg)
	}
	return idx
}

func newTestOrchestrator(rec *mockRecordStage, asm *mockAssembleStage, store *fakeStore, markers *fakeMarkers, sink *mocks.DebugSink) *Orchestrator {
	var mc MarkerCleaner
	if markers != nil {
		mc = markers
	}
	var ds ports.DebugSink
	if sink != nil {
		ds = sink
	}
	return New(rec, asm, store, mc, ds, logger.NewNoop())
}

func TestOrchestrator_Record(t *testing.T) {
	rec := &mockRecordStage{result: pipeline.RecordResult{
		Index:          indexOf(3, 2),
		FramesCaptured: 5,
		StopReason:     "stop requested",
	}}
	asm := &mockAssembleStage{result: pipeline.AssembleResult{OutputPath: "out.mp4", FramesWritten: 5, FileSize: 100}}
	store := &fakeStore{}
	markers := &fakeMarkers{}
	orch := newTestOrchestrator(rec, asm, store, markers, mocks.NewDebugSink(false))

	config := DefaultConfig()
	config.OutputPath = "out.mp4"
	config.VideoFPS = 5
	config.NoUpscale = true

	result, err := orch.Record(context.Background(), config, &mocks.Control{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.initCalls != 1 {
		t.Errorf("expected store to be initialised once, got %d", store.initCalls)
	}
	if markers.cleared != 2 {
		t.Errorf("expected markers cleared before and after capture, got %d", markers.cleared)
	}
	if rec.input.TargetFrameRate != config.FrameRate {
		t.Errorf("expected frame rate %g, got %g", config.FrameRate, rec.input.TargetFrameRate)
	}
	if asm.calls != 1 {
		t.Fatalf("expected 1 assemble call, got %d", asm.calls)
	}
	if asm.input.Index.FrameCount() != 5 || !asm.input.NoUpscale || asm.input.FPS != 5 {
		t.Errorf("unexpected assemble input: %+v", asm.input)
	}
	// only the leftover check before capture
	if store.scanCalls != 1 {
		t.Errorf("expected no rescan when capture produced an index, got %d scans", store.scanCalls)
	}
	if result.Record.FramesCaptured != 5 {
		t.Errorf("expected 5 captured frames in result, got %d", result.Record.FramesCaptured)
	}
	if result.VideoDuration != time.Second {
		t.Errorf("expected 1s video, got %v", result.VideoDuration)
	}
}

func TestOrchestrator_Record_CaptureErrorStillFinalizes(t *testing.T) {
	captureErr := errors.New("display lost")
	rec := &mockRecordStage{
		result: pipeline.RecordResult{Index: indexOf(2), FramesCaptured: 2},
		err:    captureErr,
	}
	asm := &mockAssembleStage{result: pipeline.AssembleResult{FramesWritten: 2}}
	orch := newTestOrchestrator(rec, asm, &fakeStore{}, nil, nil)

	_, err := orch.Record(context.Background(), DefaultConfig(), nil)
	if !errors.Is(err, captureErr) {
		t.Fatalf("expected capture error, got %v", err)
	}
	if asm.calls != 1 {
		t.Errorf("expected the captured frames to be assembled, got %d calls", asm.calls)
	}
}

func TestOrchestrator_Record_PanicFallsBackToScan(t *testing.T) {
	asm := &mockAssembleStage{result: pipeline.AssembleResult{FramesWritten: 4}}
	store := &fakeStore{}
	// frames reach disk before the capture panics
	rec := &mockRecordStage{panic: "boom", onStart: func() { store.scan = indexOf(4) }}
	orch := newTestOrchestrator(rec, asm, store, nil, nil)

	result, err := orch.Record(context.Background(), DefaultConfig(), nil)
	if err == nil {
		t.Fatal("expected error from panicking capture")
	}
	if store.scanCalls != 2 {
		t.Errorf("expected index rebuilt from disk, got %d scans", store.scanCalls)
	}
	if asm.calls != 1 || !result.Rebuilt {
		t.Errorf("expected rebuilt index to be assembled, calls=%d rebuilt=%v", asm.calls, result.Rebuilt)
	}
}

func TestOrchestrator_Record_LeftoverFrames(t *testing.T) {
	rec := &mockRecordStage{}
	asm := &mockAssembleStage{}
	store := &fakeStore{exists: true, scan: indexOf(5)}
	markers := &fakeMarkers{}
	orch := newTestOrchestrator(rec, asm, store, markers, nil)

	_, err := orch.Record(context.Background(), DefaultConfig(), nil)
	if !errors.Is(err, ErrLeftoverFrames) {
		t.Fatalf("expected ErrLeftoverFrames, got %v", err)
	}
	if rec.calls != 0 || asm.calls != 0 {
		t.Errorf("expected no capture or assembly, got record=%d assemble=%d", rec.calls, asm.calls)
	}
	if markers.cleared != 0 {
		t.Errorf("expected markers untouched, got %d clears", markers.cleared)
	}

	// the earlier session can still be assembled
	asm.result = pipeline.AssembleResult{FramesWritten: 5}
	result, err := orch.CreateVideo(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	if result.Index.FrameCount() != 5 {
		t.Errorf("expected 5 leftover frames assembled, got %d", result.Index.FrameCount())
	}
}

func TestOrchestrator_Record_InitFailure(t *testing.T) {
	rec := &mockRecordStage{}
	store := &fakeStore{initErr: errors.New("read-only")}
	orch := newTestOrchestrator(rec, &mockAssembleStage{}, store, nil, nil)

	if _, err := orch.Record(context.Background(), DefaultConfig(), nil); err == nil {
		t.Fatal("expected error")
	}
	if rec.calls != 0 {
		t.Error("expected capture not to start")
	}
}

func TestOrchestrator_Finalize_Idempotent(t *testing.T) {
	asm := &mockAssembleStage{result: pipeline.AssembleResult{OutputPath: "out.mp4", FramesWritten: 3}}
	store := &fakeStore{exists: true}
	orch := newTestOrchestrator(&mockRecordStage{}, asm, store, nil, nil)
	orch.setConfig(DefaultConfig())

	idx := indexOf(3)
	first, err := orch.Finalize(context.Background(), &idx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := orch.Finalize(context.Background(), &idx)
	if err != nil {
		t.Fatalf("unexpected error on second finalize: %v", err)
	}

	if asm.calls != 1 {
		t.Errorf("expected assembly to run once, got %d", asm.calls)
	}
	if second.Video.OutputPath != first.Video.OutputPath {
		t.Errorf("expected cached result, got %+v", second)
	}
}

func TestOrchestrator_Finalize_RetryAfterFailure(t *testing.T) {
	asm := &mockAssembleStage{err: errors.New("no encoder")}
	orch := newTestOrchestrator(&mockRecordStage{}, asm, &fakeStore{exists: true}, nil, nil)
	orch.setConfig(DefaultConfig())

	idx := indexOf(2)
	if _, err := orch.Finalize(context.Background(), &idx); err == nil {
		t.Fatal("expected error")
	}

	asm.err = nil
	asm.result = pipeline.AssembleResult{FramesWritten: 2}
	if _, err := orch.Finalize(context.Background(), &idx); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if asm.calls != 2 {
		t.Errorf("expected 2 assemble calls, got %d", asm.calls)
	}
}

func TestOrchestrator_Finalize_NoFrames(t *testing.T) {
	asm := &mockAssembleStage{}
	store := &fakeStore{exists: true}
	orch := newTestOrchestrator(&mockRecordStage{}, asm, store, nil, nil)
	orch.setConfig(DefaultConfig())

	idx := pipeline.SessionIndex{Segments: []pipeline.Segment{{Number: 0}}}
	_, err := orch.Finalize(context.Background(), &idx)
	if !errors.Is(err, ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
	if asm.calls != 0 {
		t.Error("expected no assembly for an empty session")
	}
}

func TestOrchestrator_Finalize_AlreadyCleaned(t *testing.T) {
	asm := &mockAssembleStage{}
	orch := newTestOrchestrator(&mockRecordStage{}, asm, &fakeStore{exists: false}, nil, nil)
	orch.setConfig(DefaultConfig())

	result, err := orch.Finalize(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AlreadyCleaned {
		t.Error("expected AlreadyCleaned")
	}
	if asm.calls != 0 {
		t.Error("expected no assembly")
	}
}

func TestOrchestrator_Finalize_SavesSessionJSON(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	asm := &mockAssembleStage{result: pipeline.AssembleResult{FramesWritten: 1}}
	orch := newTestOrchestrator(&mockRecordStage{}, asm, &fakeStore{exists: true}, nil, sink)
	orch.setConfig(DefaultConfig())

	idx := indexOf(1)
	if _, err := orch.Finalize(context.Background(), &idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.SessionJSON) == 0 {
		t.Error("expected session JSON to be saved")
	}
}

func TestOrchestrator_CreateVideo(t *testing.T) {
	asm := &mockAssembleStage{result: pipeline.AssembleResult{FramesWritten: 6}}
	store := &fakeStore{exists: true, scan: indexOf(4, 2)}
	orch := newTestOrchestrator(&mockRecordStage{}, asm, store, nil, nil)

	config := DefaultConfig()
	config.OutputPath = "rebuilt.mp4"
	result, err := orch.CreateVideo(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.scanCalls != 1 {
		t.Errorf("expected 1 scan, got %d", store.scanCalls)
	}
	if asm.input.OutputPath != "rebuilt.mp4" {
		t.Errorf("expected output path rebuilt.mp4, got %q", asm.input.OutputPath)
	}
	if !result.Rebuilt || len(result.Index.Segments) != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestOrchestrator_CreateVideo_MissingDir(t *testing.T) {
	orch := newTestOrchestrator(&mockRecordStage{}, &mockAssembleStage{}, &fakeStore{}, nil, nil)

	_, err := orch.CreateVideo(context.Background(), DefaultConfig())
	if !errors.Is(err, ErrFramesDirNotFound) {
		t.Fatalf("expected ErrFramesDirNotFound, got %v", err)
	}
}

func TestRunResult_Summary(t *testing.T) {
	result := RunResult{
		Record: pipeline.RecordResult{
			FramesCaptured: 5,
			GrabErrors:     1,
			Duration:       5 * time.Second,
			StopReason:     "stop requested",
		},
		Index: indexOf(3, 2),
		Video: pipeline.AssembleResult{
			OutputPath:    "out.mp4",
			Codec:         "h264",
			Canvas:        pipeline.Resolution{Width: 101, Height: 80},
			FramesWritten: 5,
			FileSize:      2048,
		},
		VideoDuration: 500 * time.Millisecond,
	}

	s := result.Summary(DefaultConfig())
	if s.Session.FramesCaptured != 5 || s.Session.DurationMs != 5000 {
		t.Errorf("unexpected session info: %+v", s.Session)
	}
	if len(s.Session.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(s.Session.Segments))
	}
	if s.Video.Path != "out.mp4" || s.Video.DurationMs != 500 {
		t.Errorf("unexpected video info: %+v", s.Video)
	}
	if s.Settings.Region != "" {
		t.Errorf("expected empty region for full display, got %q", s.Settings.Region)
	}
}
