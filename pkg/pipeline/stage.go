// Package pipeline holds the session data model shared by the capture and
// assembly stages, and the generic stage contract both implement.
package pipeline

import (
	"context"
)

// Stage is one phase of a recording session.
type Stage[In, Out any] interface {
	// Execute runs the stage to completion.
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage interface.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// RecordStage captures frames and produces a session index.
type RecordStage = Stage[RecordInput, RecordResult]

// AssembleStage turns a session index into a video file.
type AssembleStage = Stage[AssembleInput, AssembleResult]
