package ecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityDestroyed is returned when component data is accessed through an
	// entity that is no longer tracked by its manager.
	ErrEntityDestroyed = eris.New("attempted to access destroyed entity")

	// ErrNilComponent is returned when a nil value is passed as a component.
	ErrNilComponent = eris.New("component must not be nil")

	// ErrInvalidComponent is returned for component types that cannot be
	// stored: nil types, pointers to pointers, maps, channels and functions.
	ErrInvalidComponent = eris.New("invalid component type")

	// ErrInvalidSystem is returned for nil systems and systems whose dynamic
	// type cannot be used as a map key.
	ErrInvalidSystem = eris.New("system must be a non-nil comparable value")

	// ErrSystemSubscribed is returned when a system is subscribed twice.
	ErrSystemSubscribed = eris.New("system already subscribed")

	// ErrSystemNotSubscribed is returned when predecessors are declared for a
	// system the manager does not know about.
	ErrSystemNotSubscribed = eris.New("system not subscribed")
)

func destroyedError(id EntityID) error {
	return eris.Wrapf(ErrEntityDestroyed, "entity %d", id)
}
