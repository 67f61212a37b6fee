package ecs

import "time"

// UpdateFrame is passed to System.Update once per tick.
//
// Time is the timestamp of the previous tick, i.e. the start of the frame
// being processed, and DeltaTime is the wall time elapsed since then. Both
// are shared by every system updated in the same tick.
type UpdateFrame struct {
	DeltaTime time.Duration
	Time      time.Time
	Commands  *Commands
	Manager   *Manager
}

func newUpdateFrame(dt time.Duration, at time.Time, m *Manager) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Time:      at,
		Commands:  newCommands(),
		Manager:   m,
	}
}
