package ecs

import (
	"reflect"

	"github.com/rotisserie/eris"
)

// ComponentID is the per-manager numeric key of a component type.
type ComponentID uint32

// componentRegistry assigns ComponentIDs to component types the first time
// they are seen. Each Manager owns its own registry, so ids are only
// meaningful within one manager.
type componentRegistry struct {
	ids   map[reflect.Type]ComponentID
	types []reflect.Type
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		ids: make(map[reflect.Type]ComponentID),
	}
}

// register returns the id for t, assigning a new one if needed.
// t must already be normalized by componentType.
func (r *componentRegistry) register(t reflect.Type) ComponentID {
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := ComponentID(len(r.types))
	r.ids[t] = id
	r.types = append(r.types, t)
	return id
}

func (r *componentRegistry) lookup(t reflect.Type) (ComponentID, bool) {
	id, ok := r.ids[t]
	return id, ok
}

func (r *componentRegistry) typeOf(id ComponentID) reflect.Type {
	return r.types[id]
}

// componentType strips one pointer level so that T and *T share a key, and
// rejects kinds that are not value types.
func componentType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, eris.Wrap(ErrInvalidComponent, "nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		return nil, eris.Wrapf(ErrInvalidComponent, "%s", t)
	}
	return t, nil
}

// componentValue returns the normalized type of c and the pointer that is
// stored for it. Value components are copied into a fresh allocation.
func componentValue(c any) (reflect.Type, any, error) {
	if c == nil {
		return nil, nil, ErrNilComponent
	}
	v := reflect.ValueOf(c)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, nil, eris.Wrapf(ErrNilComponent, "%T", c)
	}
	t, err := componentType(v.Type())
	if err != nil {
		return nil, nil, err
	}
	if v.Kind() == reflect.Ptr {
		return t, c, nil
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(v)
	return t, ptr.Interface(), nil
}

func checkComponents(components []any) error {
	for _, c := range components {
		if _, _, err := componentValue(c); err != nil {
			return err
		}
	}
	return nil
}

// ComponentID returns the id the manager uses for the component type t,
// registering it if it has not been seen yet. It panics if t is not a valid
// component type.
func (m *Manager) ComponentID(t reflect.Type) ComponentID {
	t, err := componentType(t)
	if err != nil {
		panic(err)
	}
	return m.components.register(t)
}

// ReadComponent returns the component of type T attached to e, or nil if
// there is none. T is the component key type; pointer types are rejected
// with ErrInvalidComponent.
func ReadComponent[T any](e Entity) (*T, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Ptr {
		return nil, eris.Wrapf(ErrInvalidComponent, "read by pointer type %s", t)
	}
	c, err := e.Get(t)
	if err != nil || c == nil {
		return nil, err
	}
	v, ok := c.(*T)
	if !ok {
		return nil, eris.Wrapf(ErrInvalidComponent, "stored %T, want *%s", c, t)
	}
	return v, nil
}

// TypesOf returns the component key types of the given component values.
func TypesOf(components ...any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, c := range components {
		t := reflect.TypeOf(c)
		if t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		types = append(types, t)
	}
	return types
}
