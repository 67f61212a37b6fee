package ecs

// System represents a behavior that reacts to entities whose components
// satisfy the required set it was subscribed with.
//
// NotifyEntityAddition and NotifyEntityRemoval are called as entities start
// and stop matching. Update is called once per UpdateSystems tick, after the
// updates of all the system's predecessors. Any method may call back into
// the manager.
//
// The manager keys its bookkeeping by the system value, so implementations
// must be comparable; in practice systems are pointers.
type System interface {
	NotifyEntityAddition(e Entity)
	NotifyEntityRemoval(e Entity)
	Update(frame *UpdateFrame)
}

// FuncSystem adapts plain functions to the System interface. Nil fields are
// skipped. Use it by pointer so each instance has its own identity.
type FuncSystem struct {
	// Name labels the system in Stats. Empty falls back to the type name.
	Name     string
	OnAdd    func(e Entity)
	OnRemove func(e Entity)
	OnUpdate func(frame *UpdateFrame)
}

var _ System = &FuncSystem{}

func (s *FuncSystem) NotifyEntityAddition(e Entity) {
	if s.OnAdd != nil {
		s.OnAdd(e)
	}
}

func (s *FuncSystem) NotifyEntityRemoval(e Entity) {
	if s.OnRemove != nil {
		s.OnRemove(e)
	}
}

func (s *FuncSystem) Update(frame *UpdateFrame) {
	if s.OnUpdate != nil {
		s.OnUpdate(frame)
	}
}
