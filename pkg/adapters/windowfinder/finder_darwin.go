//go:build darwin

package windowfinder

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/user/timelapse/pkg/ports"
)

const frontWindowScript = `tell application "System Events"
	set proc to first application process whose frontmost is true
	tell front window of proc
		set {x, y} to position
		set {w, h} to size
	end tell
end tell
return (x as text) & "," & (y as text) & "," & (w as text) & "," & (h as text)`

type osascriptFinder struct{}

func newPlatformFinder() platformFinder {
	return &osascriptFinder{}
}

func (f *osascriptFinder) find(ctx context.Context) (ports.Region, error) {
	out, err := exec.CommandContext(ctx, "osascript", "-e", frontWindowScript).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ports.Region{}, ports.ErrWindowNotFound
		}
		return ports.Region{}, fmt.Errorf("run osascript: %w", err)
	}
	return parseBounds(string(out))
}
