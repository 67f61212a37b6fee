package main

import (
	"fmt"
	"math/rand"
	"reflect"

	"github.com/plus3/ecsmgr/ecs"
)

type Position struct{ X, Y float64 }
type Velocity struct{ DX, DY float64 }
type Health struct{ Current, Max int }
type Heat struct{ Kelvin float64 }
type Mass struct{ Kg float64 }
type Team struct{ ID int }
type Lifetime struct{ Ticks int }
type Score struct{ Points int64 }

// componentPool generates random instances of every component type the
// stress world uses.
var componentPool = []func(r *rand.Rand) any{
	func(r *rand.Rand) any { return Position{X: r.Float64(), Y: r.Float64()} },
	func(r *rand.Rand) any { return Velocity{DX: r.Float64(), DY: r.Float64()} },
	func(r *rand.Rand) any { return Health{Current: r.Intn(100), Max: 100} },
	func(r *rand.Rand) any { return Heat{Kelvin: r.Float64() * 500} },
	func(r *rand.Rand) any { return Mass{Kg: r.Float64() * 10} },
	func(r *rand.Rand) any { return Team{ID: r.Intn(4)} },
	func(r *rand.Rand) any { return Lifetime{Ticks: r.Intn(1000)} },
	func(r *rand.Rand) any { return Score{Points: r.Int63n(1 << 20)} },
}

var componentTypes = []reflect.Type{
	reflect.TypeFor[Position](),
	reflect.TypeFor[Velocity](),
	reflect.TypeFor[Health](),
	reflect.TypeFor[Heat](),
	reflect.TypeFor[Mass](),
	reflect.TypeFor[Team](),
	reflect.TypeFor[Lifetime](),
	reflect.TypeFor[Score](),
}

// workSystem mirrors the manager's notifications into its own member set and
// checks every tick that its predecessors already ran.
type workSystem struct {
	index        int
	required     []reflect.Type
	predecessors []*workSystem
	members      map[ecs.EntityID]struct{}

	tick       int64
	lastTick   int64
	violations int
	additions  int
	removals   int
}

func (s *workSystem) NotifyEntityAddition(e ecs.Entity) {
	s.additions++
	s.members[e.ID()] = struct{}{}
}

func (s *workSystem) NotifyEntityRemoval(e ecs.Entity) {
	s.removals++
	delete(s.members, e.ID())
}

func (s *workSystem) Update(frame *ecs.UpdateFrame) {
	s.tick++
	for _, pre := range s.predecessors {
		if pre.lastTick != s.tick {
			s.violations++
		}
	}
	s.lastTick = s.tick
}

// churnSystem queues random structural changes through the frame's command
// buffer every tick.
type churnSystem struct {
	rng   *rand.Rand
	churn float64
	ops   int64
}

func (s *churnSystem) NotifyEntityAddition(ecs.Entity) {}
func (s *churnSystem) NotifyEntityRemoval(ecs.Entity)  {}

func (s *churnSystem) Update(frame *ecs.UpdateFrame) {
	entities := frame.Manager.Entities()
	n := int(float64(len(entities)) * s.churn)
	if n == 0 && s.churn > 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.ops++
		switch op := s.rng.Intn(4); {
		case op == 0 || len(entities) == 0:
			frame.Commands.Create(randomComponents(s.rng, s.rng.Intn(5)+1)...)
		case op == 1:
			frame.Commands.Destroy(entities[s.rng.Intn(len(entities))])
		case op == 2:
			e := entities[s.rng.Intn(len(entities))]
			frame.Commands.Add(e, componentPool[s.rng.Intn(len(componentPool))](s.rng))
		default:
			e := entities[s.rng.Intn(len(entities))]
			frame.Commands.Remove(e, componentTypes[s.rng.Intn(len(componentTypes))])
		}
	}
}

func randomComponents(r *rand.Rand, n int) []any {
	picked := r.Perm(len(componentPool))[:n]
	components := make([]any, n)
	for i, idx := range picked {
		components[i] = componentPool[idx](r)
	}
	return components
}

// World is a manager populated with generated systems and entities.
type World struct {
	Manager *ecs.Manager
	systems []*workSystem
	churn   *churnSystem
}

// NewWorld subscribes cfg.Systems generated systems, each requiring one to
// three component types and depending on up to two lower-indexed systems,
// plus one churn system that runs before all of them.
func NewWorld(m *ecs.Manager, cfg *Config) (*World, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	w := &World{
		Manager: m,
		churn:   &churnSystem{rng: rand.New(rand.NewSource(cfg.Seed + 1)), churn: cfg.Churn},
	}

	if err := m.SubscribeSystem(w.churn); err != nil {
		return nil, err
	}

	for i := 0; i < cfg.Systems; i++ {
		s := &workSystem{
			index:   i,
			members: make(map[ecs.EntityID]struct{}),
		}
		for _, idx := range rng.Perm(len(componentTypes))[:rng.Intn(3)+1] {
			s.required = append(s.required, componentTypes[idx])
		}
		if i > 0 {
			for j := rng.Intn(3); j > 0; j-- {
				s.predecessors = append(s.predecessors, w.systems[rng.Intn(i)])
			}
		}
		w.systems = append(w.systems, s)
	}

	// subscribe in reverse so subscription order never matches dependency order
	for i := len(w.systems) - 1; i >= 0; i-- {
		s := w.systems[i]
		if err := m.SubscribeSystem(s, s.required...); err != nil {
			return nil, err
		}
		preds := make([]ecs.System, len(s.predecessors))
		for j, pre := range s.predecessors {
			preds[j] = pre
		}
		if err := m.AddSystemPredecessors(s, preds...); err != nil {
			return nil, err
		}
	}

	for i := 0; i < cfg.Entities; i++ {
		if err := m.CreateEntity().Add(randomComponents(rng, rng.Intn(5)+1)...); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Verify compares every system's mirrored member set with the manager's
// notified set and the actual component membership, and collects ordering
// violations.
func (w *World) Verify() (violations int, mismatches []string) {
	entities := w.Manager.Entities()
	for _, s := range w.systems {
		violations += s.violations

		notified := w.Manager.NotifiedEntities(s)
		if len(notified) != len(s.members) {
			mismatches = append(mismatches, fmt.Sprintf("system %d: %d notified, %d mirrored", s.index, len(notified), len(s.members)))
			continue
		}
		for _, e := range notified {
			if _, ok := s.members[e.ID()]; !ok {
				mismatches = append(mismatches, fmt.Sprintf("system %d: entity %d not mirrored", s.index, e.ID()))
			}
			if has, err := e.Has(s.required...); err != nil || !has {
				mismatches = append(mismatches, fmt.Sprintf("system %d: entity %d notified without its components", s.index, e.ID()))
			}
		}

		matching := 0
		for _, e := range entities {
			if has, err := e.Has(s.required...); err == nil && has {
				matching++
			}
		}
		if matching != len(notified) {
			mismatches = append(mismatches, fmt.Sprintf("system %d: %d matching, %d notified", s.index, matching, len(notified)))
		}
	}
	return violations, mismatches
}
