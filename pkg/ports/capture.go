// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"errors"
	"image"
)

// ErrWindowNotFound is returned by a WindowFinder when no trackable window exists.
var ErrWindowNotFound = errors.New("ports: window not found")

// Region is a rectangle of the display in screen coordinates.
type Region struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Valid reports whether the region has a positive size.
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// RegionFromRect converts an image.Rectangle to a Region.
func RegionFromRect(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// ScreenGrabber abstracts the platform screen capture primitive.
type ScreenGrabber interface {
	// Grab captures the given region of the screen.
	Grab(region Region) (image.Image, error)

	// DisplayBounds returns the bounds of the primary display.
	DisplayBounds() Region
}

// WindowFinder abstracts OS-specific active window discovery.
type WindowFinder interface {
	// FindActiveWindow returns the rectangle of the currently focused window.
	// Returns ErrWindowNotFound when there is none.
	FindActiveWindow(ctx context.Context) (Region, error)
}
