package ports

// Control is the abstract source of stop and pause requests for a capture loop.
// Implementations may be backed by OS signals, marker files or IPC; the loop
// only polls.
type Control interface {
	// StopRequested reports whether a stop has been requested. Once true it stays true.
	StopRequested() bool

	// Paused reports whether pause is currently active.
	Paused() bool
}
