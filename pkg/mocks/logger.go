package mocks

import (
	"sync"

	"github.com/user/timelapse/pkg/ports"
)

// Logger is a mock implementation of ports.Logger that records format keys
// by level. Components share the parent's records.
type Logger struct {
	mu      sync.Mutex
	entries map[ports.LogLevel][]string
}

// NewLogger creates a new mock Logger.
func NewLogger() *Logger {
	return &Logger{entries: make(map[ports.LogLevel][]string)}
}

func (m *Logger) log(level ports.LogLevel, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[level] = append(m.entries[level], msg)
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.log(ports.LevelDebug, msg) }
func (m *Logger) Info(msg string, args ...interface{})  { m.log(ports.LevelInfo, msg) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.log(ports.LevelWarn, msg) }
func (m *Logger) Error(msg string, args ...interface{}) { m.log(ports.LevelError, msg) }

func (m *Logger) WithComponent(component string) ports.Logger {
	return m
}

// Count returns how many times msg was logged at level.
func (m *Logger) Count(level ports.LogLevel, msg string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries[level] {
		if e == msg {
			n++
		}
	}
	return n
}

var _ ports.Logger = (*Logger)(nil)
