// Package signalcontrol implements ports.Control with OS signals.
package signalcontrol

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/user/timelapse/pkg/ports"
)

// Control turns interrupt signals into a stop request and, where the
// platform has one, a user signal into a pause toggle.
type Control struct {
	logger ports.Logger

	stop   atomic.Bool
	paused atomic.Bool

	sigs chan os.Signal
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// New creates a control and starts listening for signals.
func New(logger ports.Logger) *Control {
	c := &Control{
		logger: logger.WithComponent("control"),
		sigs:   make(chan os.Signal, 4),
		done:   make(chan struct{}),
	}
	signal.Notify(c.sigs, watchedSignals()...)

	c.wg.Add(1)
	go c.loop()
	return c
}

// Ensure Control implements ports.Control
var _ ports.Control = (*Control)(nil)

// StopRequested reports whether a stop signal was received.
func (c *Control) StopRequested() bool {
	return c.stop.Load()
}

// Paused reports whether pause is toggled on.
func (c *Control) Paused() bool {
	return c.paused.Load()
}

// Close stops listening for signals.
func (c *Control) Close() error {
	c.once.Do(func() {
		signal.Stop(c.sigs)
		close(c.done)
		c.wg.Wait()
	})
	return nil
}

func (c *Control) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case sig := <-c.sigs:
			c.handle(sig)
		}
	}
}

func (c *Control) handle(sig os.Signal) {
	if isPauseSignal(sig) {
		paused := !c.paused.Load()
		c.paused.Store(paused)
		c.logger.Debug("Pause toggled by %s: %t", sig.String(), paused)
		return
	}
	if !c.stop.Swap(true) {
		c.logger.Info("Stop requested by %s", sig.String())
	}
}
