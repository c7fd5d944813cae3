package mocks

import (
	"sync/atomic"

	"github.com/user/timelapse/pkg/ports"
)

// Control is a mock implementation of ports.Control driven by the test.
type Control struct {
	stop   atomic.Bool
	paused atomic.Bool

	// OnPoll, when set, is called at the start of every StopRequested poll
	// with the number of polls so far. Tests use it to script stop/pause.
	OnPoll func(polls int)
	polls  int
}

// RequestStop makes StopRequested return true.
func (m *Control) RequestStop() { m.stop.Store(true) }

// SetPaused sets the pause state.
func (m *Control) SetPaused(p bool) { m.paused.Store(p) }

func (m *Control) StopRequested() bool {
	m.polls++
	if m.OnPoll != nil {
		m.OnPoll(m.polls)
	}
	return m.stop.Load()
}

func (m *Control) Paused() bool {
	return m.paused.Load()
}

var _ ports.Control = (*Control)(nil)
