package instances

import "context"

// Reset stops every active instance and returns how many stops were
// attempted. Enumeration order is insertion order.
func (m *Manager) Reset(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	runIDs := make([]string, len(m.active))
	copy(runIDs, m.active)

	count := 0
	for _, id := range runIDs {
		if m.stopLocked(ctx, id) {
			count++
		}
	}
	return count
}
