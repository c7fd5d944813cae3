//go:build !windows

package signalcontrol

import (
	"os"
	"syscall"
)

func watchedSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1}
}

func isPauseSignal(sig os.Signal) bool {
	return sig == syscall.SIGUSR1
}
