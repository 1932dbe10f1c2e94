package core

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ib-77/ropline/pkg/rop"
	"github.com/ib-77/ropline/pkg/rop/message"
)

// Processor is one stage's transform. Failures are returned, never raised.
type Processor[In, Out any] func(ctx context.Context, in In) rop.Result[Out]

// Hooks observe a stage's transitions. Any of them may be nil.
type Hooks struct {
	OnProcessed func(ctx context.Context, elapsed time.Duration)
	OnFailed    func(ctx context.Context, err error, elapsed time.Duration)
	OnSkipped   func(ctx context.Context, err error)
	OnQuit      func(ctx context.Context)
}

type transition[Out any] struct {
	msg  message.Message[Out]
	last bool
}

// Locomotive runs one stage until it has forwarded Quit. The outbound link
// is closed whenever the loop exits, so a stage that dies early is seen
// downstream as a broken channel instead of a hang.
func Locomotive[In, Out any](ctx context.Context, name string,
	inputCh <-chan message.Message[In], outCh chan<- message.Message[Out],
	process Processor[In, Out], hooks Hooks, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(outCh)

	ctx = WithStageName(ctx, name)

	for {
		step := message.Fold(Receive(name, inputCh),
			func(in rop.Result[In]) transition[Out] {
				return work(ctx, name, in, process, hooks)
			},
			func(err error) transition[Out] {
				if hooks.OnSkipped != nil {
					hooks.OnSkipped(ctx, err)
				}
				return transition[Out]{msg: message.Skip[Out](err)}
			},
			func() transition[Out] {
				return transition[Out]{msg: message.Quit[Out](), last: true}
			},
		)

		Send(name, outCh, step.msg)

		if step.last {
			if hooks.OnQuit != nil {
				hooks.OnQuit(ctx)
			}
			return
		}
	}
}

func work[In, Out any](ctx context.Context, name string, in rop.Result[In],
	process Processor[In, Out], hooks Hooks) transition[Out] {

	if !in.IsSuccess() {
		err := failure(in)
		if hooks.OnFailed != nil {
			hooks.OnFailed(ctx, err, 0)
		}
		return transition[Out]{msg: message.Skip[Out](err)}
	}

	start := time.Now()
	out := safeProcess(ctx, name, process, in.Result())
	elapsed := time.Since(start)

	if out.IsSuccess() {
		if hooks.OnProcessed != nil {
			hooks.OnProcessed(ctx, elapsed)
		}
		return transition[Out]{msg: message.Work(out)}
	}

	err := failure(out)
	if hooks.OnFailed != nil {
		hooks.OnFailed(ctx, err, elapsed)
	}
	return transition[Out]{msg: message.Skip[Out](err)}
}

// failure is the error a non-successful result carries on as Skip.
func failure[T any](r rop.Result[T]) error {
	if r.IsEmpty() {
		return ErrEmptyResult
	}
	return r.Err()
}

func safeProcess[In, Out any](ctx context.Context, name string,
	process Processor[In, Out], v In) (res rop.Result[Out]) {
	defer func() {
		if r := recover(); r != nil {
			res = rop.Fail[Out](&PanicError{Stage: name, Value: r, Stack: debug.Stack()})
		}
	}()
	return process(ctx, v)
}
