package ecs

import (
	"reflect"
	"slices"
	"time"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type entityRecord struct {
	components *intmap.Map[ComponentID, any]
	destroying bool
}

type systemRecord struct {
	system       System
	required     []ComponentID
	predecessors []System
	notified     *intmap.Map[EntityID, struct{}]
	stats        *systemStatsInternal
	removed      bool
}

// Manager owns entities, their components and the systems subscribed to
// them. It is not safe for concurrent use; drive it from a single goroutine.
type Manager struct {
	nextID     EntityID
	entities   *intmap.Map[EntityID, *entityRecord]
	components *componentRegistry

	// systems is kept in subscription order; records indexes it by value.
	systems []*systemRecord
	records map[System]*systemRecord

	observers []Observer

	lastTick time.Time
	ticked   bool
	now      func() time.Time
	log      *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		entities:   intmap.New[EntityID, *entityRecord](256),
		components: newComponentRegistry(),
		records:    make(map[System]*systemRecord),
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) alive(e Entity) bool {
	return e.mgr == m && m.entities.Has(e.id)
}

func (m *Manager) entity(e Entity) (*entityRecord, error) {
	if e.mgr != m {
		return nil, destroyedError(e.id)
	}
	rec, ok := m.entities.Get(e.id)
	if !ok {
		return nil, destroyedError(e.id)
	}
	return rec, nil
}

// satisfies reports whether the live entity id has every required component.
func (m *Manager) satisfies(id EntityID, required []ComponentID) bool {
	rec, ok := m.entities.Get(id)
	if !ok {
		return false
	}
	for _, c := range required {
		if !rec.components.Has(c) {
			return false
		}
	}
	return true
}

func (m *Manager) liveIDs() []EntityID {
	ids := make([]EntityID, 0, m.entities.Len())
	m.entities.ForEach(func(id EntityID, _ *entityRecord) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// CreateEntity allocates a new entity with no components.
func (m *Manager) CreateEntity() Entity {
	m.nextID++
	e := Entity{id: m.nextID, mgr: m}
	m.entities.Put(e.id, &entityRecord{
		components: intmap.New[ComponentID, any](8),
	})
	m.publish(Event{Kind: EntityCreated, Entity: e})
	return e
}

// DestroyEntity sends a removal notification to every system currently
// notified of e and then forgets the entity. Destroying an entity that is not
// tracked is a no-op.
func (m *Manager) DestroyEntity(e Entity) {
	rec, err := m.entity(e)
	if err != nil || rec.destroying {
		return
	}
	rec.destroying = true

	for _, sys := range slices.Clone(m.systems) {
		if sys.removed {
			continue
		}
		if sys.notified.Del(e.id) {
			sys.system.NotifyEntityRemoval(e)
		}
	}

	m.entities.Del(e.id)
	m.publish(Event{Kind: EntityDestroyed, Entity: e})
}

// AddComponents stores the given components on e, replacing any component of
// the same type, and then notifies every system whose required set e now
// satisfies. Systems are notified in dependency order, predecessors first.
//
// Value components are copied; pointer components are stored as given. Either
// way reads return a pointer.
func (m *Manager) AddComponents(e Entity, components ...any) error {
	if _, err := m.entity(e); err != nil {
		return err
	}

	types := make([]reflect.Type, len(components))
	values := make([]any, len(components))
	for i, c := range components {
		t, v, err := componentValue(c)
		if err != nil {
			return err
		}
		types[i], values[i] = t, v
	}

	for i, t := range types {
		rec, err := m.entity(e)
		if err != nil {
			return err
		}
		rec.components.Put(m.components.register(t), values[i])
	}

	m.propagateAddition(e)
	m.publish(Event{Kind: ComponentsAdded, Entity: e, Types: types})
	return nil
}

func (m *Manager) propagateAddition(e Entity) {
	m.traverse(func(sys *systemRecord) {
		rec, ok := m.entities.Get(e.id)
		if !ok || rec.destroying || sys.notified.Has(e.id) {
			return
		}
		if !m.satisfies(e.id, sys.required) {
			return
		}
		sys.notified.Put(e.id, struct{}{})
		sys.system.NotifyEntityAddition(e)
	})
}

// HasComponents reports whether e has every given component type. With no
// types it reports true.
func (m *Manager) HasComponents(e Entity, types ...reflect.Type) (bool, error) {
	rec, err := m.entity(e)
	if err != nil {
		return false, err
	}
	for _, t := range types {
		t, err := componentType(t)
		if err != nil {
			return false, err
		}
		id, ok := m.components.lookup(t)
		if !ok || !rec.components.Has(id) {
			return false, nil
		}
	}
	return true, nil
}

// GetComponent returns the component of type typ attached to e, or nil if
// there is none. The result is always a pointer.
func (m *Manager) GetComponent(e Entity, typ reflect.Type) (any, error) {
	rec, err := m.entity(e)
	if err != nil {
		return nil, err
	}
	t, err := componentType(typ)
	if err != nil {
		return nil, err
	}
	id, ok := m.components.lookup(t)
	if !ok {
		return nil, nil
	}
	c, _ := rec.components.Get(id)
	return c, nil
}

// RemoveComponents detaches the given component types from e and sends a
// removal notification to every notified system whose required set e no
// longer satisfies. Types that are not attached are ignored.
func (m *Manager) RemoveComponents(e Entity, types ...reflect.Type) error {
	rec, err := m.entity(e)
	if err != nil {
		return err
	}

	normalized := make([]reflect.Type, len(types))
	for i, t := range types {
		if normalized[i], err = componentType(t); err != nil {
			return err
		}
	}

	var removed []reflect.Type
	for _, t := range normalized {
		id, ok := m.components.lookup(t)
		if ok && rec.components.Del(id) {
			removed = append(removed, t)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	for _, sys := range slices.Clone(m.systems) {
		if !m.alive(e) {
			break
		}
		if sys.removed || !sys.notified.Has(e.id) || m.satisfies(e.id, sys.required) {
			continue
		}
		sys.notified.Del(e.id)
		sys.system.NotifyEntityRemoval(e)
	}

	m.publish(Event{Kind: ComponentsRemoved, Entity: e, Types: removed})
	return nil
}

// Entities returns the live entities in creation order.
func (m *Manager) Entities() []Entity {
	ids := m.liveIDs()
	slices.Sort(ids)
	entities := make([]Entity, len(ids))
	for i, id := range ids {
		entities[i] = Entity{id: id, mgr: m}
	}
	return entities
}

// EntityCount returns the number of live entities.
func (m *Manager) EntityCount() int {
	return m.entities.Len()
}

func checkSystem(system System) error {
	if system == nil {
		return ErrInvalidSystem
	}
	if !reflect.TypeOf(system).Comparable() {
		return eris.Wrapf(ErrInvalidSystem, "%T", system)
	}
	return nil
}

// SubscribeSystem registers system with the component types it requires and
// immediately notifies it of every live entity that already has them.
func (m *Manager) SubscribeSystem(system System, required ...reflect.Type) error {
	if err := checkSystem(system); err != nil {
		return err
	}
	if _, ok := m.records[system]; ok {
		return eris.Wrapf(ErrSystemSubscribed, "%T", system)
	}

	ids := make([]ComponentID, 0, len(required))
	for _, t := range required {
		t, err := componentType(t)
		if err != nil {
			return err
		}
		ids = append(ids, m.components.register(t))
	}

	sys := &systemRecord{
		system:   system,
		required: ids,
		notified: intmap.New[EntityID, struct{}](64),
		stats:    newSystemStats(system),
	}
	m.records[system] = sys
	m.systems = append(m.systems, sys)

	m.log.Debug("system subscribed",
		zap.String("system", sys.stats.name),
		zap.Int("required", len(ids)))

	for _, id := range m.liveIDs() {
		if sys.removed {
			break
		}
		if sys.notified.Has(id) || !m.satisfies(id, sys.required) {
			continue
		}
		sys.notified.Put(id, struct{}{})
		system.NotifyEntityAddition(Entity{id: id, mgr: m})
	}
	return nil
}

// UnsubscribeSystem removes system from the manager, sending it a removal
// notification for every entity it is currently notified of. Unknown systems
// are ignored.
func (m *Manager) UnsubscribeSystem(system System) {
	if checkSystem(system) != nil {
		return
	}
	sys, ok := m.records[system]
	if !ok {
		return
	}
	delete(m.records, system)
	m.systems = slices.DeleteFunc(m.systems, func(r *systemRecord) bool { return r == sys })
	sys.removed = true

	ids := make([]EntityID, 0, sys.notified.Len())
	sys.notified.ForEach(func(id EntityID, _ struct{}) bool {
		ids = append(ids, id)
		return true
	})
	sys.notified.Clear()

	m.log.Debug("system unsubscribed",
		zap.String("system", sys.stats.name),
		zap.Int("notified", len(ids)))

	for _, id := range ids {
		if m.entities.Has(id) {
			system.NotifyEntityRemoval(Entity{id: id, mgr: m})
		}
	}
}

// AddSystemPredecessors declares systems that must be notified and updated
// before system. It may be called repeatedly; cycles are allowed and are
// broken by visiting each system at most once per pass. Predecessors that are
// not subscribed are skipped when the graph is walked.
func (m *Manager) AddSystemPredecessors(system System, predecessors ...System) error {
	if err := checkSystem(system); err != nil {
		return err
	}
	sys, ok := m.records[system]
	if !ok {
		return eris.Wrapf(ErrSystemNotSubscribed, "%T", system)
	}
	for _, pre := range predecessors {
		if err := checkSystem(pre); err != nil {
			return err
		}
	}
	sys.predecessors = append(sys.predecessors, predecessors...)

	m.log.Debug("system predecessors added",
		zap.String("system", sys.stats.name),
		zap.Int("added", len(predecessors)),
		zap.Int("total", len(sys.predecessors)))
	return nil
}

// Systems returns the subscribed systems in subscription order.
func (m *Manager) Systems() []System {
	systems := make([]System, len(m.systems))
	for i, sys := range m.systems {
		systems[i] = sys.system
	}
	return systems
}

// NotifiedEntities returns the entities system is currently notified of,
// ordered by id. It returns nil for unknown systems.
func (m *Manager) NotifiedEntities(system System) []Entity {
	if checkSystem(system) != nil {
		return nil
	}
	sys, ok := m.records[system]
	if !ok {
		return nil
	}
	ids := make([]EntityID, 0, sys.notified.Len())
	sys.notified.ForEach(func(id EntityID, _ struct{}) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	entities := make([]Entity, len(ids))
	for i, id := range ids {
		entities[i] = Entity{id: id, mgr: m}
	}
	return entities
}
