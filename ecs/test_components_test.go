package ecs_test

import (
	"fmt"
	"reflect"
	"time"

	"github.com/plus3/ecsmgr/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Health struct {
	Current int
	Max     int
}

type Name struct {
	Value string
}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

var (
	positionType = reflect.TypeFor[Position]()
	velocityType = reflect.TypeFor[Velocity]()
	healthType   = reflect.TypeFor[Health]()
	nameType     = reflect.TypeFor[Name]()
	scoreType    = reflect.TypeFor[Score]()
)

// traceSystem records every callback it receives into a shared trace, so
// tests can assert on ordering across systems.
type traceSystem struct {
	name    string
	trace   *[]string
	added   []ecs.EntityID
	removed []ecs.EntityID
	frames  []*ecs.UpdateFrame
}

func newTraceSystem(name string, trace *[]string) *traceSystem {
	return &traceSystem{name: name, trace: trace}
}

func (s *traceSystem) NotifyEntityAddition(e ecs.Entity) {
	s.added = append(s.added, e.ID())
	*s.trace = append(*s.trace, fmt.Sprintf("%s.add(%d)", s.name, e.ID()))
}

func (s *traceSystem) NotifyEntityRemoval(e ecs.Entity) {
	s.removed = append(s.removed, e.ID())
	*s.trace = append(*s.trace, fmt.Sprintf("%s.remove(%d)", s.name, e.ID()))
}

func (s *traceSystem) Update(frame *ecs.UpdateFrame) {
	s.frames = append(s.frames, frame)
	*s.trace = append(*s.trace, s.name+".update")
}

// fakeClock is a manually advanced clock for WithClock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
