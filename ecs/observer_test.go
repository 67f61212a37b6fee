package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/ecsmgr/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	events []ecs.Event
}

func (l *eventLog) OnEntityEvent(ev ecs.Event) {
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []ecs.EventKind {
	kinds := make([]ecs.EventKind, len(l.events))
	for i, ev := range l.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func TestObserverReceivesEntityEvents(t *testing.T) {
	m := newTestManager(t)
	log := &eventLog{}
	m.AddObserver(log)

	e := m.CreateEntity()
	require.NoError(t, e.Add(Position{}, &Velocity{}))
	require.NoError(t, e.Remove(velocityType, healthType))
	require.NoError(t, e.Remove(healthType))
	e.Destroy()
	e.Destroy()

	assert.Equal(t, []ecs.EventKind{
		ecs.EntityCreated,
		ecs.ComponentsAdded,
		ecs.ComponentsRemoved,
		ecs.EntityDestroyed,
	}, log.kinds())

	for _, ev := range log.events {
		assert.Equal(t, e, ev.Entity)
	}
	assert.Equal(t, []reflect.Type{positionType, velocityType}, log.events[1].Types)
	assert.Equal(t, []reflect.Type{velocityType}, log.events[2].Types)
}

func TestObserverRunsAfterSystemNotifications(t *testing.T) {
	m := newTestManager(t)
	var trace []string

	require.NoError(t, m.SubscribeSystem(newTraceSystem("S", &trace), positionType))
	m.AddObserver(&ecs.FuncObserver{Fn: func(ev ecs.Event) {
		trace = append(trace, ev.Kind.String())
	}})

	e := m.CreateEntity()
	require.NoError(t, e.Add(Position{}))
	e.Destroy()

	assert.Equal(t, []string{
		"EntityCreated",
		"S.add(1)",
		"ComponentsAdded",
		"S.remove(1)",
		"EntityDestroyed",
	}, trace)
}

func TestRemoveObserver(t *testing.T) {
	m := newTestManager(t)
	first := &eventLog{}
	second := &eventLog{}

	m.AddObserver(first)
	m.AddObserver(second)
	m.AddObserver(nil)
	m.CreateEntity()

	m.RemoveObserver(first)
	m.RemoveObserver(nil)
	m.CreateEntity()

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 2)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "ComponentsRemoved", ecs.ComponentsRemoved.String())
	assert.Equal(t, "Unknown", ecs.EventKind(0).String())
}
