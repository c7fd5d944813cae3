// Package tracker follows the active window and reports its region.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// DefaultInterval is the minimum time between window lookups.
const DefaultInterval = 500 * time.Millisecond

// Tracker rate-limits window discovery and remembers the last region found.
// It is used from the capture loop only and is not safe for concurrent use.
type Tracker struct {
	finder      ports.WindowFinder
	minInterval time.Duration
	logger      ports.Logger
	now         func() time.Time

	last     ports.Region
	found    bool
	lastPoll time.Time
	polled   bool
}

// New creates a tracker. A non-positive minInterval uses DefaultInterval.
func New(finder ports.WindowFinder, minInterval time.Duration, logger ports.Logger) *Tracker {
	if minInterval <= 0 {
		minInterval = DefaultInterval
	}
	return &Tracker{
		finder:      finder,
		minInterval: minInterval,
		logger:      logger.WithComponent("tracker"),
		now:         time.Now,
	}
}

// CurrentRegion returns the tracked region. The finder is queried at most
// once per interval; in between, and whenever the lookup fails, the last
// known region is returned. The bool is false until a window has been found.
func (t *Tracker) CurrentRegion(ctx context.Context) (ports.Region, bool) {
	now := t.now()
	if t.polled && now.Sub(t.lastPoll) < t.minInterval {
		return t.last, t.found
	}
	t.polled = true
	t.lastPoll = now

	region, err := t.finder.FindActiveWindow(ctx)
	switch {
	case err == nil && region.Valid():
		if t.found && region != t.last {
			t.logger.Debug("Window moved to %s at %d,%d", pipeline.ResolutionOf(region).String(), region.X, region.Y)
		}
		t.last = region
		t.found = true
	case err == nil, errors.Is(err, ports.ErrWindowNotFound):
		t.logger.Warn("Tracked window not found, keeping %s", t.describe())
	default:
		t.logger.Warn("Window lookup failed: %s", err.Error())
	}
	return t.last, t.found
}

// Changed reports whether the tracked region's resolution differs from prev.
func (t *Tracker) Changed(prev pipeline.Resolution) bool {
	return t.found && pipeline.ResolutionOf(t.last) != prev
}

func (t *Tracker) describe() string {
	if !t.found {
		return "fallback region"
	}
	return pipeline.ResolutionOf(t.last).String()
}
