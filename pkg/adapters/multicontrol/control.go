// Package multicontrol combines several controls into one.
package multicontrol

import "github.com/user/timelapse/pkg/ports"

// Control reports stop or pause when any of its members does.
type Control struct {
	controls []ports.Control
}

// New combines controls. Nil entries are ignored.
func New(controls ...ports.Control) *Control {
	c := &Control{}
	for _, ctl := range controls {
		if ctl != nil {
			c.controls = append(c.controls, ctl)
		}
	}
	return c
}

// Ensure Control implements ports.Control
var _ ports.Control = (*Control)(nil)

func (c *Control) StopRequested() bool {
	for _, ctl := range c.controls {
		if ctl.StopRequested() {
			return true
		}
	}
	return false
}

func (c *Control) Paused() bool {
	for _, ctl := range c.controls {
		if ctl.Paused() {
			return true
		}
	}
	return false
}
