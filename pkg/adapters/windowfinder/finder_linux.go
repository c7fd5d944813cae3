//go:build linux

package windowfinder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/user/timelapse/pkg/ports"
)

type xdotoolFinder struct{}

func newPlatformFinder() platformFinder {
	return &xdotoolFinder{}
}

func (f *xdotoolFinder) find(ctx context.Context) (ports.Region, error) {
	path, err := exec.LookPath("xdotool")
	if err != nil {
		return ports.Region{}, fmt.Errorf("xdotool not found in PATH: %w", err)
	}

	out, err := exec.CommandContext(ctx, path, "getactivewindow", "getwindowgeometry", "--shell").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// xdotool exits non-zero when no window has focus
			return ports.Region{}, ports.ErrWindowNotFound
		}
		return ports.Region{}, fmt.Errorf("run xdotool: %w", err)
	}
	return parseShellGeometry(string(out))
}
