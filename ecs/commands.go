package ecs

import (
	"reflect"

	"go.uber.org/multierr"
)

// Commands buffers structural changes requested during a tick. The buffer is
// flushed by UpdateSystems once every system has been updated, so the
// changes never interleave with the update pass.
type Commands struct {
	creates  [][]any
	destroys []Entity
	adds     []addCommand
	removes  []removeCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type addCommand struct {
	entity     Entity
	components []any
}

type removeCommand struct {
	entity Entity
	types  []reflect.Type
}

// Defer queues a function to run at the end of the flush.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Create queues the creation of an entity with the given components.
func (c *Commands) Create(components ...any) {
	c.creates = append(c.creates, components)
}

// Destroy queues the destruction of an entity.
func (c *Commands) Destroy(e Entity) {
	c.destroys = append(c.destroys, e)
}

// Add queues a component addition.
func (c *Commands) Add(e Entity, components ...any) {
	c.adds = append(c.adds, addCommand{entity: e, components: components})
}

// Remove queues a component removal.
func (c *Commands) Remove(e Entity, types ...reflect.Type) {
	c.removes = append(c.removes, removeCommand{entity: e, types: types})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.destroys) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies the queued operations to m and resets the buffer. Destroys
// run first, then removals and additions for entities that were not
// destroyed in the same flush, then creations, then deferred functions.
//
// Operations queued while flushing, from a deferred function or a system
// callback, are applied in a further round once the current one completes.
func (c *Commands) Flush(m *Manager) error {
	var err error
	for c.Len() > 0 {
		batch := *c
		*c = Commands{}
		err = multierr.Append(err, batch.apply(m))
	}
	return err
}

func (c *Commands) apply(m *Manager) error {
	var err error
	destroyed := make(map[Entity]bool, len(c.destroys))

	for _, e := range c.destroys {
		m.DestroyEntity(e)
		destroyed[e] = true
	}

	for _, cmd := range c.removes {
		if !destroyed[cmd.entity] {
			err = multierr.Append(err, m.RemoveComponents(cmd.entity, cmd.types...))
		}
	}

	for _, cmd := range c.adds {
		if !destroyed[cmd.entity] {
			err = multierr.Append(err, m.AddComponents(cmd.entity, cmd.components...))
		}
	}

	for _, components := range c.creates {
		// no entity is created for a rejected component list
		if cerr := checkComponents(components); cerr != nil {
			err = multierr.Append(err, cerr)
			continue
		}
		e := m.CreateEntity()
		if len(components) > 0 {
			err = multierr.Append(err, m.AddComponents(e, components...))
		}
	}

	for _, fn := range c.defers {
		fn()
	}
	return err
}
