package instances

import (
	"context"

	"github.com/ironhall/labmgr/lib/logger"
	"github.com/ironhall/labmgr/lib/overlay"
)

// Stop tears down a running instance. Returns false if run_id is unknown;
// true otherwise, regardless of whether individual teardown steps hit
// errors — cleanup is always best-effort past the point the instance is
// removed from the active table.
func (m *Manager) Stop(ctx context.Context, runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx, runID)
}

// stopLocked assumes m.mu is held.
func (m *Manager) stopLocked(ctx context.Context, runID string) bool {
	log := logger.FromContext(ctx)

	inst, ok := m.byID[runID]
	if !ok {
		return false
	}

	// 1. Remove from the active table first: a stuck teardown must not wedge
	// future spawns/stops behind this one.
	delete(m.byID, runID)
	for i, id := range m.active {
		if id == runID {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}

	// 2-3. Terminate the child (grace then force-kill) and close its log.
	if err := inst.handle.Stop(m.stopGrace); err != nil {
		log.WarnContext(ctx, "failed to stop emulator process, continuing cleanup", "run_id", runID, "error", err)
	}

	// 4. Destroy tap device(s).
	if inst.secondary != nil {
		m.netAlloc.Release(inst.primary, *inst.secondary)
	} else {
		m.netAlloc.Release(inst.primary)
	}

	// 5. Unlink the overlay, if any.
	if inst.OverlayPath != "" {
		if err := overlay.Delete(inst.OverlayPath); err != nil {
			log.WarnContext(ctx, "failed to delete overlay, continuing", "run_id", runID, "path", inst.OverlayPath, "error", err)
		}
	}

	log.InfoContext(ctx, "stopped instance", "run_id", runID)

	if m.eventLogCloser != nil {
		m.eventLogCloser.CloseInstanceLog(runID)
	}

	return true
}
