package pipe

import (
	"context"

	"github.com/ib-77/ropline/pkg/rop"
	"github.com/ib-77/ropline/pkg/rop/core"
	"github.com/ib-77/ropline/pkg/rop/solo"
)

// Stage describes one link of the chain: its transform and the capacity of
// the link it writes to (0 means the pipeline default).
type Stage[In, Out any] struct {
	Name     string
	Capacity int
	Process  core.Processor[In, Out]
}

// Buffered returns a copy of s whose outbound link holds capacity messages.
func (s Stage[In, Out]) Buffered(capacity int) Stage[In, Out] {
	s.Capacity = capacity
	return s
}

// Try lifts a function returning (Out, error); a non-nil error fails the item.
func Try[In, Out any](name string, onTryExecute func(ctx context.Context, in In) (Out, error)) Stage[In, Out] {
	s := Stage[In, Out]{Name: name}
	if onTryExecute != nil {
		s.Process = func(ctx context.Context, in In) rop.Result[Out] {
			return solo.Try(ctx, in, onTryExecute)
		}
	}
	return s
}

// Switch lifts a function that already returns a Result.
func Switch[In, Out any](name string, switchOnSuccess func(ctx context.Context, in In) rop.Result[Out]) Stage[In, Out] {
	return Stage[In, Out]{Name: name, Process: switchOnSuccess}
}

// Map lifts an infallible transform.
func Map[In, Out any](name string, mapOnSuccess func(ctx context.Context, in In) Out) Stage[In, Out] {
	s := Stage[In, Out]{Name: name}
	if mapOnSuccess != nil {
		s.Process = func(ctx context.Context, in In) rop.Result[Out] {
			return solo.Map(ctx, in, mapOnSuccess)
		}
	}
	return s
}

// Validate passes valid items through unchanged and fails the rest with errMsg.
func Validate[T any](name string, validate func(ctx context.Context, in T) (valid bool, errMsg string)) Stage[T, T] {
	s := Stage[T, T]{Name: name}
	if validate != nil {
		s.Process = func(ctx context.Context, in T) rop.Result[T] {
			return solo.Validate(ctx, in, validate)
		}
	}
	return s
}
