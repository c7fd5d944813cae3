// Package screengrab captures screen regions with github.com/kbinani/screenshot.
package screengrab

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/user/timelapse/pkg/ports"
)

// ErrNoDisplay is returned when no active display is found.
var ErrNoDisplay = errors.New("screengrab: no active display")

// Grabber implements ports.ScreenGrabber for the primary display.
type Grabber struct {
	display int
}

// New creates a grabber for display 0.
func New() *Grabber {
	return &Grabber{}
}

// Grab captures a region of the screen as *image.RGBA.
func (g *Grabber) Grab(region ports.Region) (image.Image, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}
	img, err := screenshot.CaptureRect(region.Rect())
	if err != nil {
		return nil, fmt.Errorf("capture %dx%d at (%d,%d): %w", region.Width, region.Height, region.X, region.Y, err)
	}
	return img, nil
}

// DisplayBounds returns the bounds of the primary display.
func (g *Grabber) DisplayBounds() ports.Region {
	if screenshot.NumActiveDisplays() == 0 {
		return ports.Region{}
	}
	return ports.RegionFromRect(screenshot.GetDisplayBounds(g.display))
}

// Ensure Grabber implements ports.ScreenGrabber
var _ ports.ScreenGrabber = (*Grabber)(nil)
