package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/ecsmgr/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyOrdering(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	// subscribe the successor first so registration order alone would be wrong
	s2 := newTraceSystem("S2", &trace)
	s1 := newTraceSystem("S1", &trace)
	require.NoError(t, m.SubscribeSystem(s2, positionType))
	require.NoError(t, m.SubscribeSystem(s1, positionType))
	require.NoError(t, m.AddSystemPredecessors(s2, s1))

	e := m.CreateEntity()
	require.NoError(t, e.Add(Position{}))
	assert.Equal(t, []string{"S1.add(1)", "S2.add(1)"}, trace)

	for i := 0; i < 3; i++ {
		trace = trace[:0]
		require.NoError(t, m.UpdateSystems())
		assert.Equal(t, []string{"S1.update", "S2.update"}, trace)
	}
}

func TestDependencyChain(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	a := newTraceSystem("A", &trace)
	b := newTraceSystem("B", &trace)
	c := newTraceSystem("C", &trace)
	d := newTraceSystem("D", &trace)
	for _, s := range []*traceSystem{d, c, b, a} {
		require.NoError(t, m.SubscribeSystem(s))
	}

	// A <- B <- C, A <- D, predecessors declared over several calls
	require.NoError(t, m.AddSystemPredecessors(c, b))
	require.NoError(t, m.AddSystemPredecessors(b, a))
	require.NoError(t, m.AddSystemPredecessors(d, a))

	require.NoError(t, m.UpdateSystems())
	assert.Equal(t, []string{"A.update", "D.update", "B.update", "C.update"}, trace)
}

func TestCycleTolerance(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	s1 := newTraceSystem("S1", &trace)
	s2 := newTraceSystem("S2", &trace)
	require.NoError(t, m.SubscribeSystem(s1, positionType))
	require.NoError(t, m.SubscribeSystem(s2, positionType))
	require.NoError(t, m.AddSystemPredecessors(s1, s2))
	require.NoError(t, m.AddSystemPredecessors(s2, s1))

	e := m.CreateEntity()
	require.NoError(t, e.Add(Position{}))
	assert.Len(t, s1.added, 1)
	assert.Len(t, s2.added, 1)

	require.NoError(t, m.UpdateSystems())
	assert.Len(t, s1.frames, 1)
	assert.Len(t, s2.frames, 1)
}

func TestSelfPredecessor(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	s := newTraceSystem("S", &trace)
	require.NoError(t, m.SubscribeSystem(s))
	require.NoError(t, m.AddSystemPredecessors(s, s, s))

	require.NoError(t, m.UpdateSystems())
	assert.Equal(t, []string{"S.update"}, trace)
}

func TestSharedPredecessorRunsOnce(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	base := newTraceSystem("base", &trace)
	left := newTraceSystem("left", &trace)
	right := newTraceSystem("right", &trace)
	require.NoError(t, m.SubscribeSystem(base))
	require.NoError(t, m.SubscribeSystem(left))
	require.NoError(t, m.SubscribeSystem(right))
	require.NoError(t, m.AddSystemPredecessors(left, base))
	require.NoError(t, m.AddSystemPredecessors(right, base, left))

	require.NoError(t, m.UpdateSystems())
	assert.Equal(t, []string{"base.update", "left.update", "right.update"}, trace)
}

func TestUnsubscribedPredecessorIsSkipped(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	s1 := newTraceSystem("S1", &trace)
	s2 := newTraceSystem("S2", &trace)
	stranger := newTraceSystem("X", &trace)
	require.NoError(t, m.SubscribeSystem(s1))
	require.NoError(t, m.SubscribeSystem(s2))
	require.NoError(t, m.AddSystemPredecessors(s2, stranger, s1))

	m.UnsubscribeSystem(s1)

	require.NoError(t, m.UpdateSystems())
	assert.Equal(t, []string{"S2.update"}, trace)
}

func TestUpdateTiming(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, ecs.WithClock(clock.Now))
	var trace []string

	s := newTraceSystem("S", &trace)
	require.NoError(t, m.SubscribeSystem(s))

	start := clock.Now()
	require.NoError(t, m.UpdateSystems())

	clock.Advance(16 * time.Millisecond)
	require.NoError(t, m.UpdateSystems())

	clock.Advance(20 * time.Millisecond)
	require.NoError(t, m.UpdateSystems())

	require.Len(t, s.frames, 3)

	// first tick seeds the clock
	assert.Equal(t, time.Duration(0), s.frames[0].DeltaTime)
	assert.Equal(t, start, s.frames[0].Time)

	// later ticks carry the previous tick's timestamp
	assert.Equal(t, 16*time.Millisecond, s.frames[1].DeltaTime)
	assert.Equal(t, start, s.frames[1].Time)

	assert.Equal(t, 20*time.Millisecond, s.frames[2].DeltaTime)
	assert.Equal(t, start.Add(16*time.Millisecond), s.frames[2].Time)

	assert.Same(t, m, s.frames[2].Manager)
}

func TestSystemsShareFrame(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	a := newTraceSystem("A", &trace)
	b := newTraceSystem("B", &trace)
	require.NoError(t, m.SubscribeSystem(a))
	require.NoError(t, m.SubscribeSystem(b))

	require.NoError(t, m.UpdateSystems())
	require.Len(t, a.frames, 1)
	require.Len(t, b.frames, 1)
	assert.Same(t, a.frames[0], b.frames[0])
}

func TestUpdateCanMutateManager(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	watcher := newTraceSystem("W", &trace)
	spawner := &ecs.FuncSystem{
		OnUpdate: func(frame *ecs.UpdateFrame) {
			e := frame.Manager.CreateEntity()
			require.NoError(t, e.Add(Position{}))
		},
	}
	require.NoError(t, m.SubscribeSystem(spawner))
	require.NoError(t, m.SubscribeSystem(watcher, positionType))
	require.NoError(t, m.AddSystemPredecessors(watcher, spawner))

	require.NoError(t, m.UpdateSystems())
	assert.Equal(t, 1, m.EntityCount())
	assert.Equal(t, []string{"W.add(1)", "W.update"}, trace)
}

func TestUnsubscribeDuringUpdate(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	victim := newTraceSystem("V", &trace)
	killer := &ecs.FuncSystem{
		OnUpdate: func(frame *ecs.UpdateFrame) {
			frame.Manager.UnsubscribeSystem(victim)
		},
	}
	require.NoError(t, m.SubscribeSystem(killer))
	require.NoError(t, m.SubscribeSystem(victim))

	require.NoError(t, m.UpdateSystems())
	assert.Empty(t, victim.frames)
}

func TestRunStopsOnCancel(t *testing.T) {
	m := newTestManager(t)

	var ticks int
	require.NoError(t, m.SubscribeSystem(&ecs.FuncSystem{
		OnUpdate: func(*ecs.UpdateFrame) { ticks++ },
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}

	assert.Greater(t, ticks, 0)
}
