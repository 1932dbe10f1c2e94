package pipe

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ib-77/ropline/pkg/rop/core"
	"github.com/ib-77/ropline/pkg/rop/message"
)

// State is the lifecycle position of a Pipeline.
type State int32

const (
	StateBuilding State = iota
	StateRunning
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Pipeline is a running chain of stages. One goroutine submits and one
// goroutine receives; they may be the same.
type Pipeline[In, Out any] struct {
	id        uuid.UUID
	name      string
	input     chan message.Message[In]
	output    chan message.Message[Out]
	rt        *runtime
	onDiscard func(kind message.Kind, err error)

	state    atomic.Int32
	quitSent atomic.Bool
	quitSeen atomic.Bool
}

func (p *Pipeline[In, Out]) ID() uuid.UUID {
	return p.id
}

func (p *Pipeline[In, Out]) Name() string {
	return p.name
}

func (p *Pipeline[In, Out]) State() State {
	return State(p.state.Load())
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline[In, Out]) Stats() Stats {
	return p.rt.counters.snapshot()
}

// Submit feeds item into the first stage, blocking while the first link is full.
func (p *Pipeline[In, Out]) Submit(item In) error {
	return p.send(message.WorkOk(item))
}

// SubmitError feeds an already failed item; it reaches the consumer as
// Skip(err) without touching any processor.
func (p *Pipeline[In, Out]) SubmitError(err error) error {
	if err == nil {
		return ErrNilError
	}
	return p.send(message.Skip[In](err))
}

// SubmitQuit injects the Quit sentinel without draining. The caller is then
// expected to receive until Quit comes out, and to call Shutdown to join.
func (p *Pipeline[In, Out]) SubmitQuit() error {
	if err := p.checkRunning(); err != nil {
		return err
	}
	if !p.quitSent.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: quit already submitted", ErrNotRunning)
	}
	core.Send[In](p.name, p.input, message.Quit[In]())
	return nil
}

func (p *Pipeline[In, Out]) send(m message.Message[In]) error {
	if err := p.checkRunning(); err != nil {
		return err
	}
	if p.quitSent.Load() {
		return fmt.Errorf("%w: quit already submitted", ErrNotRunning)
	}

	core.Send[In](p.name, p.input, m)
	p.rt.counters.submitted.Add(1)
	p.rt.metrics.onSubmitted()
	return nil
}

// TryReceiveResult blocks until the last stage emits a message and returns
// it: Work with a result, Skip with the error that stopped the item, or Quit.
func (p *Pipeline[In, Out]) TryReceiveResult() (message.Message[Out], error) {
	if err := p.checkRunning(); err != nil {
		return message.Message[Out]{}, err
	}
	if p.quitSeen.Load() {
		return message.Message[Out]{}, fmt.Errorf("%w: quit already received", ErrNotRunning)
	}
	return p.receive(), nil
}

func (p *Pipeline[In, Out]) receive() message.Message[Out] {
	m := core.Receive[Out](p.name, p.output)
	if m.IsQuit() {
		p.quitSeen.Store(true)
		return m
	}
	p.rt.counters.received.Add(1)
	p.rt.metrics.onReceived()
	return m
}

// Shutdown sends Quit, discards whatever is still in flight until Quit
// comes out of the last stage, and waits for every worker to exit.
func (p *Pipeline[In, Out]) Shutdown() error {
	if !p.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		if s := p.State(); s == StateShuttingDown || s == StateTerminated {
			return ErrAlreadyShutdown
		}
		return ErrNotRunning
	}

	if p.quitSent.CompareAndSwap(false, true) {
		core.Send[In](p.name, p.input, message.Quit[In]())
	}

	for !p.quitSeen.Load() {
		m := core.Receive[Out](p.name, p.output)
		if m.IsQuit() {
			p.quitSeen.Store(true)
			break
		}
		p.rt.counters.discarded.Add(1)
		p.rt.metrics.onDiscarded()
		p.rt.logger.Debug("discarded in-flight message", discardAttrs(m)...)
		if p.onDiscard != nil {
			p.onDiscard(m.Kind(), m.Err())
		}
	}

	p.rt.wg.Wait()
	p.state.Store(int32(StateTerminated))

	stats := p.Stats()
	p.rt.logger.Info("pipeline terminated",
		"submitted", stats.Submitted, "received", stats.Received, "discarded", stats.Discarded)
	return nil
}

func discardAttrs[T any](m message.Message[T]) []any {
	attrs := []any{"kind", m.Kind().String(), "error", m.Err()}
	if m.IsWork() {
		r := m.Result()
		attrs = append(attrs, "item_id", r.Id().String(), "age", time.Since(r.CreatedAt()))
	}
	return attrs
}

func (p *Pipeline[In, Out]) checkRunning() error {
	if s := p.State(); s != StateRunning {
		return fmt.Errorf("%w: state %s", ErrNotRunning, s)
	}
	return nil
}

func (p *Pipeline[In, Out]) checkFresh() error {
	if err := p.checkRunning(); err != nil {
		return err
	}
	if p.quitSent.Load() || p.quitSeen.Load() {
		return fmt.Errorf("%w: quit already submitted", ErrNotRunning)
	}
	return nil
}
