package ecs

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
)

// visitFrame is one entry of the explicit traversal stack: the system being
// expanded and the index of its next predecessor to look at.
type visitFrame struct {
	sys  *systemRecord
	next int
}

// traverse calls visit once for every subscribed system, always after it has
// been called for all of that system's predecessors. Roots are taken in
// subscription order. A system already on the visited set is treated as
// processed, which is what breaks predecessor cycles.
//
// The system list is snapshotted up front; systems subscribed by a callback
// are not visited in the same pass and systems unsubscribed by a callback
// are skipped.
func (m *Manager) traverse(visit func(*systemRecord)) {
	roots := slices.Clone(m.systems)
	visited := make(map[*systemRecord]struct{}, len(roots))
	var stack []visitFrame

	for _, root := range roots {
		if _, seen := visited[root]; seen || root.removed {
			continue
		}
		visited[root] = struct{}{}
		stack = append(stack[:0], visitFrame{sys: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.sys.predecessors) {
				pre := top.sys.predecessors[top.next]
				top.next++

				preSys, ok := m.records[pre]
				if !ok {
					m.log.Debug("skipping unsubscribed predecessor",
						zap.String("system", top.sys.stats.name))
					continue
				}
				if _, seen := visited[preSys]; seen {
					continue
				}
				visited[preSys] = struct{}{}
				stack = append(stack, visitFrame{sys: preSys})
				continue
			}

			sys := top.sys
			stack = stack[:len(stack)-1]
			if !sys.removed {
				visit(sys)
			}
		}
	}
}

// UpdateSystems runs one tick: every subscribed system is updated once, in
// dependency order, and the frame's command buffer is flushed afterwards.
//
// The frame carries the time elapsed since the previous tick and that
// previous tick's timestamp. The first tick has a zero delta. The returned
// error combines every error raised while flushing commands.
func (m *Manager) UpdateSystems() error {
	now := m.now()
	if !m.ticked {
		m.lastTick = now
		m.ticked = true
	}
	frame := newUpdateFrame(now.Sub(m.lastTick), m.lastTick, m)
	m.lastTick = now

	m.traverse(func(sys *systemRecord) {
		start := time.Now()
		sys.system.Update(frame)
		sys.stats.record(time.Since(start))
	})

	return frame.Commands.Flush(m)
}

// Run calls UpdateSystems at the given interval until the context is
// cancelled. Flush errors are logged and do not stop the loop.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.UpdateSystems(); err != nil {
				m.log.Warn("command flush failed", zap.Error(err))
			}
		}
	}
}
