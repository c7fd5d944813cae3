//go:build windows

package windowfinder

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/user/timelapse/pkg/ports"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procIsIconic            = user32.NewProc("IsIconic")
)

type user32Finder struct{}

func newPlatformFinder() platformFinder {
	return &user32Finder{}
}

func (f *user32Finder) find(ctx context.Context) (ports.Region, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return ports.Region{}, ports.ErrWindowNotFound
	}

	// Minimized windows report a placeholder rectangle far off screen.
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		return ports.Region{}, ports.ErrWindowNotFound
	}

	var r windows.Rect
	ret, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return ports.Region{}, fmt.Errorf("GetWindowRect: %v", err)
	}

	region := ports.Region{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
	if !region.Valid() {
		return ports.Region{}, ports.ErrWindowNotFound
	}
	return region, nil
}
