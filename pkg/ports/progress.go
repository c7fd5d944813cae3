package ports

// ProgressReporter receives assembly progress as a percentage (0-100).
type ProgressReporter interface {
	Progress(percent int)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(percent int)

// Progress implements ProgressReporter.
func (f ProgressFunc) Progress(percent int) {
	f(percent)
}
