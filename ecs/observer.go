package ecs

import (
	"reflect"
	"slices"
)

// EventKind identifies what happened to an entity.
type EventKind uint8

const (
	EntityCreated EventKind = iota + 1
	EntityDestroyed
	ComponentsAdded
	ComponentsRemoved
)

func (k EventKind) String() string {
	switch k {
	case EntityCreated:
		return "EntityCreated"
	case EntityDestroyed:
		return "EntityDestroyed"
	case ComponentsAdded:
		return "ComponentsAdded"
	case ComponentsRemoved:
		return "ComponentsRemoved"
	}
	return "Unknown"
}

// Event describes a change to an entity. Types lists the component types
// added or removed and is empty for creation and destruction.
type Event struct {
	Kind   EventKind
	Entity Entity
	Types  []reflect.Type
}

// Observer receives entity events.
type Observer interface {
	OnEntityEvent(ev Event)
}

// Observable is implemented by anything observers can register with.
type Observable interface {
	AddObserver(o Observer)
	RemoveObserver(o Observer)
}

// FuncObserver adapts a function to the Observer interface. Use it by pointer
// so it can be removed again.
type FuncObserver struct {
	Fn func(ev Event)
}

func (o *FuncObserver) OnEntityEvent(ev Event) {
	if o.Fn != nil {
		o.Fn(ev)
	}
}

var _ Observable = &Manager{}

// AddObserver registers o. Observers are called synchronously, in
// registration order, after the operation that produced the event has
// finished and all system notifications for it were sent.
func (m *Manager) AddObserver(o Observer) {
	if o == nil {
		return
	}
	m.observers = append(m.observers, o)
}

// RemoveObserver unregisters every registration of o.
func (m *Manager) RemoveObserver(o Observer) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	m.observers = slices.DeleteFunc(m.observers, func(obs Observer) bool { return obs == o })
}

func (m *Manager) publish(ev Event) {
	if len(m.observers) == 0 {
		return
	}
	for _, o := range slices.Clone(m.observers) {
		o.OnEntityEvent(ev)
	}
}
