package ecs

import "reflect"

// EntityID is the sequential identifier of an entity within one Manager.
// Ids start at 1 and are never reused; zero is never a valid id.
type EntityID uint64

// Entity is a handle to an entity owned by a Manager. Two handles are equal
// when both the id and the owning manager match, so Entity can be used as a
// map key. All methods delegate to the owning manager.
type Entity struct {
	id  EntityID
	mgr *Manager
}

// ID returns the entity's id.
func (e Entity) ID() EntityID { return e.id }

// Manager returns the manager that created the entity.
func (e Entity) Manager() *Manager { return e.mgr }

// Alive reports whether the entity is still tracked by its manager.
func (e Entity) Alive() bool {
	return e.mgr != nil && e.mgr.alive(e)
}

// Destroy destroys the entity. Destroying an entity twice is a no-op.
func (e Entity) Destroy() {
	if e.mgr == nil {
		return
	}
	e.mgr.DestroyEntity(e)
}

// Add attaches the given components, see Manager.AddComponents.
func (e Entity) Add(components ...any) error {
	if e.mgr == nil {
		return destroyedError(e.id)
	}
	return e.mgr.AddComponents(e, components...)
}

// Remove detaches components by type, see Manager.RemoveComponents.
func (e Entity) Remove(types ...reflect.Type) error {
	if e.mgr == nil {
		return destroyedError(e.id)
	}
	return e.mgr.RemoveComponents(e, types...)
}

// Has reports whether every given component type is attached.
func (e Entity) Has(types ...reflect.Type) (bool, error) {
	if e.mgr == nil {
		return false, destroyedError(e.id)
	}
	return e.mgr.HasComponents(e, types...)
}

// Get returns the component of the given type, or nil if none is attached.
func (e Entity) Get(typ reflect.Type) (any, error) {
	if e.mgr == nil {
		return nil, destroyedError(e.id)
	}
	return e.mgr.GetComponent(e, typ)
}
