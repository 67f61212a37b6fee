package ecs

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug output. The default discards
// everything.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock replaces the wall clock used by UpdateSystems.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
