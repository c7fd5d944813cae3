// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/user/timelapse/pkg/ports"
)

// ScreenGrabber is a mock implementation of ports.ScreenGrabber.
// Without GrabFunc it returns a solid image of the requested size.
type ScreenGrabber struct {
	GrabFunc          func(region ports.Region) (image.Image, error)
	DisplayBoundsFunc func() ports.Region

	// Bounds is returned by DisplayBounds when DisplayBoundsFunc is nil.
	Bounds ports.Region

	mu        sync.Mutex
	GrabCalls []ports.Region
}

func (m *ScreenGrabber) Grab(region ports.Region) (image.Image, error) {
	m.mu.Lock()
	m.GrabCalls = append(m.GrabCalls, region)
	m.mu.Unlock()
	if m.GrabFunc != nil {
		return m.GrabFunc(region)
	}
	return SolidImage(region.Width, region.Height, color.RGBA{R: 40, G: 80, B: 160, A: 255}), nil
}

func (m *ScreenGrabber) DisplayBounds() ports.Region {
	if m.DisplayBoundsFunc != nil {
		return m.DisplayBoundsFunc()
	}
	return m.Bounds
}

// Calls returns a copy of the recorded Grab regions.
func (m *ScreenGrabber) Calls() []ports.Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Region(nil), m.GrabCalls...)
}

var _ ports.ScreenGrabber = (*ScreenGrabber)(nil)

// WindowFinder is a mock implementation of ports.WindowFinder.
type WindowFinder struct {
	FindActiveWindowFunc func(ctx context.Context) (ports.Region, error)

	Calls int
}

func (m *WindowFinder) FindActiveWindow(ctx context.Context) (ports.Region, error) {
	m.Calls++
	if m.FindActiveWindowFunc != nil {
		return m.FindActiveWindowFunc(ctx)
	}
	return ports.Region{}, ports.ErrWindowNotFound
}

var _ ports.WindowFinder = (*WindowFinder)(nil)

// SolidImage returns an RGBA image filled with c.
func SolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	r, g, b, a := c.RGBA()
	fill := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img
}
