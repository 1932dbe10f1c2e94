package pipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ib-77/ropline/pkg/rop/core"
	"github.com/ib-77/ropline/pkg/rop/message"
	"github.com/ib-77/ropline/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T, opts ...Option) *Pipeline[sample.Reading, sample.Verdict] {
	t.Helper()

	p, err := Then(
		Then(New[sample.Reading](opts...), Try("double", sample.Double)),
		Try("check", sample.Check),
	).Build(context.Background())
	require.NoError(t, err)
	return p
}

func receiveAll[In, Out any](t *testing.T, p *Pipeline[In, Out]) []message.Message[Out] {
	t.Helper()

	var got []message.Message[Out]
	for {
		m, err := p.TryReceiveResult()
		require.NoError(t, err)
		got = append(got, m)
		if m.IsQuit() {
			return got
		}
	}
}

func TestPipeline_ReferenceScenario(t *testing.T) {
	t.Parallel()

	p := buildSample(t)
	for _, r := range sample.Readings(1, 2, 3, 4, 5, 6, 7, 8, 9) {
		require.NoError(t, p.Submit(r))
	}
	require.NoError(t, p.SubmitQuit())

	got := receiveAll(t, p)
	require.NoError(t, p.Shutdown())

	want := []string{
		"Work({true})", "Work({true})", "Work({true})", "Work({true})",
		"Skip(Payload 5 more than 5)",
		"Skip(Payload 6 more than 5)",
		"Skip(Payload 7 more than 5)",
		"Skip(Payload 8 more than 5)",
		"Skip(Payload 9 more than 5)",
		"Quit",
	}
	rendered := make([]string, 0, len(got))
	for _, m := range got {
		rendered = append(rendered, m.String())
	}
	assert.Equal(t, want, rendered)

	for _, m := range got[:4] {
		assert.True(t, m.Result().Result().Payload)
	}

	stats := p.Stats()
	assert.EqualValues(t, 9, stats.Submitted)
	assert.EqualValues(t, 9, stats.Received)
	assert.EqualValues(t, 0, stats.Discarded)
	require.Len(t, stats.Stages, 2)
	assert.Equal(t, StageStats{Name: "double", Capacity: DefaultCapacity, Processed: 4, Failed: 5}, stats.Stages[0])
	assert.Equal(t, StageStats{Name: "check", Capacity: DefaultCapacity, Processed: 4, Skipped: 5}, stats.Stages[1])
}

func TestPipeline_CountAndOrderPreserved(t *testing.T) {
	t.Parallel()

	const items = 500
	failOdd := Try("odd", func(_ context.Context, in int) (int, error) {
		if in%2 == 1 {
			return 0, fmt.Errorf("odd %d", in)
		}
		return in, nil
	})
	p, err := Then(Then(Then(New[int](WithCapacity(8)), failOdd),
		Map("inc", func(_ context.Context, in int) int { return in + 1 })),
		Map("fmt", func(_ context.Context, in int) string { return fmt.Sprint(in) }),
	).Build(context.Background())
	require.NoError(t, err)

	in := make([]int, items)
	for i := range in {
		in[i] = i
	}

	got, err := RunAll(p, in)
	require.NoError(t, err)
	require.Len(t, got, items)

	for i, m := range got {
		if i%2 == 1 {
			require.True(t, m.IsSkip(), "item %d", i)
			assert.EqualError(t, m.Err(), fmt.Sprintf("odd %d", i))
			continue
		}
		require.True(t, m.IsWork(), "item %d", i)
		assert.Equal(t, fmt.Sprint(i+1), m.Result().Result())
	}
	assert.Equal(t, StateTerminated, p.State())
}

func TestPipeline_SkipIsInert(t *testing.T) {
	t.Parallel()

	var downstreamCalls atomic.Int32
	original := errors.New("rejected at stage one")

	p, err := Then(Then(New[int](),
		Try("reject", func(_ context.Context, in int) (int, error) { return 0, original })),
		Try("count", func(_ context.Context, in int) (int, error) {
			downstreamCalls.Add(1)
			return in, nil
		}),
	).Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Submit(1))
	m, err := p.TryReceiveResult()
	require.NoError(t, err)
	require.NoError(t, p.Shutdown())

	assert.True(t, m.IsSkip(), "processor error must arrive as Skip, not Work(Err)")
	assert.Same(t, original, m.Err())
	assert.Zero(t, downstreamCalls.Load())
}

func TestPipeline_SubmitError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p, err := Then(New[int](), Map("m", func(_ context.Context, in int) int {
		calls.Add(1)
		return in
	})).Build(context.Background())
	require.NoError(t, err)

	readErr := errors.New("failed upstream read")
	require.NoError(t, p.SubmitError(readErr))
	assert.ErrorIs(t, p.SubmitError(nil), ErrNilError)

	m, err := p.TryReceiveResult()
	require.NoError(t, err)
	assert.True(t, m.IsSkip())
	assert.Same(t, readErr, m.Err())
	assert.Zero(t, calls.Load())
	require.NoError(t, p.Shutdown())
}

func TestPipeline_ShutdownDiscardsInFlight(t *testing.T) {
	t.Parallel()

	var discarded []message.Kind
	var mu sync.Mutex
	p := buildSample(t, WithOnDiscard(func(kind message.Kind, err error) {
		mu.Lock()
		defer mu.Unlock()
		discarded = append(discarded, kind)
	}))

	for _, r := range sample.Readings(1, 2, 7) {
		require.NoError(t, p.Submit(r))
	}
	require.NoError(t, p.Shutdown())

	assert.Equal(t, []message.Kind{message.KindWork, message.KindWork, message.KindSkip}, discarded)
	assert.EqualValues(t, 3, p.Stats().Discarded)
	assert.Equal(t, StateTerminated, p.State())
}

func TestPipeline_ShutdownLogsDiscardedItems(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := buildSample(t, WithLogger(logger))

	for _, r := range sample.Readings(1, 2) {
		require.NoError(t, p.Submit(r))
	}
	require.NoError(t, p.Shutdown())

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"msg":"discarded in-flight message"`))
	assert.Equal(t, 2, strings.Count(out, `"item_id":"`))
	assert.Contains(t, out, `"kind":"work"`)
	assert.Contains(t, out, `"age":`)
}

func TestPipeline_UsageAfterShutdown(t *testing.T) {
	t.Parallel()

	p := buildSample(t)
	require.NoError(t, p.Shutdown())

	assert.ErrorIs(t, p.Shutdown(), ErrAlreadyShutdown)
	assert.ErrorIs(t, p.Submit(sample.Reading{Payload: 1}), ErrNotRunning)
	assert.ErrorIs(t, p.SubmitError(errors.New("x")), ErrNotRunning)
	assert.ErrorIs(t, p.SubmitQuit(), ErrNotRunning)
	_, err := p.TryReceiveResult()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestPipeline_SubmitAfterQuit(t *testing.T) {
	t.Parallel()

	p := buildSample(t)
	require.NoError(t, p.SubmitQuit())

	assert.ErrorIs(t, p.Submit(sample.Reading{Payload: 1}), ErrNotRunning)
	assert.ErrorIs(t, p.SubmitQuit(), ErrNotRunning)

	m, err := p.TryReceiveResult()
	require.NoError(t, err)
	assert.True(t, m.IsQuit())

	_, err = p.TryReceiveResult()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, p.Shutdown())
}

func TestPipeline_ShutdownJoinsWorkers(t *testing.T) {
	t.Parallel()

	var stopped atomic.Int32
	slow := func(_ context.Context, in int) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return in, nil
	}
	p, err := Then(Then(New[int](), Try("a", slow)), Try("b", slow)).Build(context.Background())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(i))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, p.Shutdown())
		stopped.Add(1)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.EqualValues(t, 1, stopped.Load())

	joined := make(chan struct{})
	go func() {
		p.rt.wg.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("workers outlived Shutdown")
	}
}

func TestPipeline_Backpressure(t *testing.T) {
	t.Parallel()

	// one stage, every link holds one message: at most three items fit
	// (first link, the stage's hands, last link) before Submit blocks
	p, err := Then(New[int](WithCapacity(1)),
		Map("id", func(_ context.Context, in int) int { return in }),
	).Build(context.Background())
	require.NoError(t, err)

	const items = 10
	var submitted atomic.Int32
	go func() {
		for i := 0; i < items; i++ {
			if err := p.Submit(i); err != nil {
				return
			}
			submitted.Add(1)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, submitted.Load(), int32(3))

	for i := 0; i < items; i++ {
		m, err := p.TryReceiveResult()
		require.NoError(t, err)
		assert.Equal(t, i, m.Result().Result())
	}
	assert.EqualValues(t, items, submitted.Load())
	require.NoError(t, p.Shutdown())
}

func TestPipeline_ProcessorPanicKeepsFlowing(t *testing.T) {
	t.Parallel()

	p, err := Then(New[int](), Map("fragile", func(_ context.Context, in int) int {
		if in == 0 {
			panic("division by zero")
		}
		return 10 / in
	})).Build(context.Background())
	require.NoError(t, err)

	got, err := RunAll(p, []int{5, 0, 2})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 2, got[0].Result().Result())
	var pe *core.PanicError
	require.ErrorAs(t, got[1].Err(), &pe)
	assert.Equal(t, "fragile", pe.Stage)
	assert.Equal(t, 5, got[2].Result().Result())
	assert.EqualValues(t, 1, p.Stats().Stages[0].Failed)
}

func TestPipeline_IdentityAndState(t *testing.T) {
	t.Parallel()

	p := buildSample(t, WithName("books"))
	assert.Equal(t, "books", p.Name())
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", p.ID().String())
	assert.Equal(t, StateRunning, p.State())
	assert.Equal(t, "running", p.State().String())
	require.NoError(t, p.Shutdown())
	assert.Equal(t, "terminated", p.State().String())
}

func TestRunAll_RequiresFreshPipeline(t *testing.T) {
	t.Parallel()

	p := buildSample(t)
	require.NoError(t, p.SubmitQuit())

	got, err := RunAll(p, sample.Readings(1, 2, 3))
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Nil(t, got)

	require.True(t, receiveAll(t, p)[0].IsQuit())
	require.NoError(t, p.Shutdown())

	_, err = RunAll(p, sample.Readings(1))
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.EqualValues(t, 0, p.Stats().Submitted)
}
