//go:build windows

package signalcontrol

import (
	"os"
	"syscall"
)

func watchedSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

// Windows has no user signal; pause is driven by marker files only.
func isPauseSignal(sig os.Signal) bool {
	return false
}
