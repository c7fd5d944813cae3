//go:build !linux && !darwin && !windows

package windowfinder

import (
	"context"

	"github.com/user/timelapse/pkg/ports"
)

type unsupportedFinder struct{}

func newPlatformFinder() platformFinder {
	return &unsupportedFinder{}
}

func (f *unsupportedFinder) find(ctx context.Context) (ports.Region, error) {
	return ports.Region{}, ErrPlatformNotSupported
}
