package tracker

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

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracker(finder ports.WindowFinder) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := New(finder, 500*time.Millisecond, logger.NewNoop())
	tr.now = clock.now
	return tr, clock
}

func TestTracker_RateLimited(t *testing.T) {
	region := ports.Region{X: 10, Y: 20, Width: 800, Height: 600}
	finder := &mocks.WindowFinder{
		FindActiveWindowFunc: func(ctx context.Context) (ports.Region, error) {
			return region, nil
		},
	}
	tr, clock := newTracker(finder)

	for i := 0; i < 6; i++ {
		got, ok := tr.CurrentRegion(context.Background())
		if !ok || got != region {
			t.Fatalf("CurrentRegion = %+v, %v", got, ok)
		}
		clock.advance(100 * time.Millisecond)
	}
	// polls at t=0 and t=500ms
	if finder.Calls != 2 {
		t.Errorf("finder calls = %d, want 2", finder.Calls)
	}
}

func TestTracker_NotFoundKeepsLastRegion(t *testing.T) {
	first := ports.Region{Width: 640, Height: 480}
	calls := 0
	finder := &mocks.WindowFinder{
		FindActiveWindowFunc: func(ctx context.Context) (ports.Region, error) {
			calls++
			switch calls {
			case 1:
				return first, nil
			case 2:
				return ports.Region{}, ports.ErrWindowNotFound
			default:
				return ports.Region{}, errors.New("xdotool crashed")
			}
		},
	}
	tr, clock := newTracker(finder)

	tr.CurrentRegion(context.Background())
	for i := 0; i < 2; i++ {
		clock.advance(time.Second)
		got, ok := tr.CurrentRegion(context.Background())
		if !ok || got != first {
			t.Errorf("lookup %d: got %+v, %v; want last region", i+2, got, ok)
		}
	}
}

func TestTracker_NeverFound(t *testing.T) {
	tr, _ := newTracker(&mocks.WindowFinder{})
	if _, ok := tr.CurrentRegion(context.Background()); ok {
		t.Error("expected no region before a window is found")
	}
}

func TestTracker_Changed(t *testing.T) {
	region := ports.Region{Width: 800, Height: 600}
	finder := &mocks.WindowFinder{
		FindActiveWindowFunc: func(ctx context.Context) (ports.Region, error) {
			return region, nil
		},
	}
	tr, clock := newTracker(finder)

	if tr.Changed(pipeline.Resolution{Width: 1, Height: 1}) {
		t.Error("Changed must be false before any region is found")
	}
	tr.CurrentRegion(context.Background())
	if tr.Changed(pipeline.Resolution{Width: 800, Height: 600}) {
		t.Error("same resolution reported as changed")
	}

	region = ports.Region{X: 50, Width: 1024, Height: 768}
	clock.advance(time.Second)
	tr.CurrentRegion(context.Background())
	if !tr.Changed(pipeline.Resolution{Width: 800, Height: 600}) {
		t.Error("resize not reported as changed")
	}
}
