package pipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ib-77/ropline/pkg/rop/core"
	"github.com/ib-77/ropline/pkg/rop/message"
)

type stageInfo struct {
	name     string
	capacity int
}

// Builder accumulates a typed chain of stages. In is the type callers
// submit, Out the type the last stage emits.
type Builder[In, Out any] struct {
	opts   []Option
	stages []stageInfo
	wire   func(r *runtime, first chan message.Message[In]) chan message.Message[Out]
	err    error
}

// New starts an empty chain accepting In.
func New[In any](opts ...Option) *Builder[In, In] {
	return &Builder[In, In]{
		opts: opts,
		wire: func(_ *runtime, first chan message.Message[In]) chan message.Message[In] {
			return first
		},
	}
}

// Then appends a stage. Its input type must equal the chain's current
// output type, which the compiler checks.
func Then[In, Mid, Out any](b *Builder[In, Mid], s Stage[Mid, Out]) *Builder[In, Out] {
	index := len(b.stages)
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("stage-%d", index+1)
	}

	next := &Builder[In, Out]{
		opts:   b.opts,
		stages: append(slices.Clone(b.stages), stageInfo{name: name, capacity: s.Capacity}),
		err:    b.err,
	}

	switch {
	case next.err != nil:
	case s.Process == nil:
		next.err = fmt.Errorf("stage %q: %w", name, ErrNilProcessor)
	case s.Capacity < 0:
		next.err = fmt.Errorf("stage %q: %w", name, ErrInvalidCapacity)
	case slices.ContainsFunc(b.stages, func(si stageInfo) bool { return si.name == name }):
		next.err = fmt.Errorf("stage %q: %w", name, ErrDuplicateStage)
	}

	process := s.Process
	next.wire = func(r *runtime, first chan message.Message[In]) chan message.Message[Out] {
		up := b.wire(r, first)
		down := core.NewLink[Out](r.counters.stages[index].capacity)

		r.wg.Add(1)
		go core.Locomotive[Mid, Out](r.ctx, name, up, down, process, r.hooks(index), &r.wg)
		r.logger.Debug("stage started", "stage", name, "capacity", cap(down))

		return down
	}
	return next
}

// Build allocates the links, starts one worker per stage and returns the
// running pipeline. ctx is handed to every processor; cancelling it does
// not stop the workers.
func (b *Builder[In, Out]) Build(ctx context.Context) (*Pipeline[In, Out], error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stages) == 0 {
		return nil, ErrNoStages
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := defaultSettings()
	for _, opt := range b.opts {
		opt(s)
	}
	if s.capacity <= 0 {
		return nil, fmt.Errorf("pipeline %q: capacity %d: %w", s.name, s.capacity, ErrInvalidCapacity)
	}

	cs := &counters{stages: make([]*stageCounters, 0, len(b.stages))}
	for _, si := range b.stages {
		capacity := s.capacity
		if si.capacity > 0 {
			capacity = si.capacity
		}
		if override, ok := s.stageCapacity[si.name]; ok {
			if override <= 0 {
				return nil, fmt.Errorf("stage %q: capacity %d: %w", si.name, override, ErrInvalidCapacity)
			}
			capacity = override
		}
		cs.stages = append(cs.stages, &stageCounters{name: si.name, capacity: capacity})
	}
	for _, name := range slices.Sorted(maps.Keys(s.stageCapacity)) {
		if !slices.ContainsFunc(b.stages, func(si stageInfo) bool { return si.name == name }) {
			return nil, fmt.Errorf("stage %q: %w", name, ErrUnknownStage)
		}
	}

	var metrics *Metrics
	if s.registerer != nil {
		var err error
		if metrics, err = newMetrics(s.registerer, s.namespace, s.name); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	r := &runtime{
		ctx:      ctx,
		logger:   s.logger.With("pipeline", s.name, "pipeline_id", id.String()),
		counters: cs,
		metrics:  metrics,
	}

	first := core.NewLink[In](s.capacity)
	last := b.wire(r, first)

	p := &Pipeline[In, Out]{
		id:        id,
		name:      s.name,
		input:     first,
		output:    last,
		rt:        r,
		onDiscard: s.onDiscard,
	}
	p.state.Store(int32(StateRunning))

	r.logger.Info("pipeline built", "stages", len(b.stages), "capacity", s.capacity)
	return p, nil
}

// runtime is the state shared by the workers of one pipeline
type runtime struct {
	ctx      context.Context
	logger   *slog.Logger
	counters *counters
	metrics  *Metrics
	wg       sync.WaitGroup
}

func (r *runtime) hooks(index int) core.Hooks {
	sc := r.counters.stages[index]

	return core.Hooks{
		OnProcessed: func(_ context.Context, elapsed time.Duration) {
			sc.processed.Add(1)
			r.metrics.onProcessed(sc.name, elapsed)
		},
		OnFailed: func(_ context.Context, err error, elapsed time.Duration) {
			sc.failed.Add(1)
			r.metrics.onFailed(sc.name, elapsed)

			var pe *core.PanicError
			if errors.As(err, &pe) {
				r.logger.Warn("processor panic recovered", "stage", sc.name, "panic", pe.Value)
				return
			}
			r.logger.Debug("item failed", "stage", sc.name, "error", err)
		},
		OnSkipped: func(_ context.Context, _ error) {
			sc.skipped.Add(1)
			r.metrics.onSkipped(sc.name)
		},
		OnQuit: func(_ context.Context) {
			r.logger.Debug("stage stopped", "stage", sc.name)
		},
	}
}
