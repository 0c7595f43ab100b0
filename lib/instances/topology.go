package instances

import (
	"context"

	"github.com/ironhall/labmgr/lib/lease"
)

// Topology returns every active instance's public view, in enumeration
// (insertion) order. alive is computed by polling the supervisor handle at
// read time, never cached.
func (m *Manager) Topology(ctx context.Context) []PublicView {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]PublicView, 0, len(m.active))
	for _, id := range m.active {
		views = append(views, m.byID[id].toPublicView())
	}
	return views
}

// RefreshIPs reconciles every pending/unknown instance IP against the
// lease files, one shot. Safe to call repeatedly; already-resolved
// addresses are left alone.
func (m *Manager) RefreshIPs(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.active {
		inst := m.byID[id]

		if inst.IP == ipPending || inst.IP == ipUnknown {
			if ip, found, err := lease.Lookup(m.externalLeaseFile, inst.MAC); err == nil && found {
				inst.IP = ip
			}
		}

		if inst.MultiHomed && (inst.IPInternal == ipPending || inst.IPInternal == ipUnknown) {
			if ip, found, err := lease.Lookup(m.internalLeaseFile, inst.MACInternal); err == nil && found {
				inst.IPInternal = ip
			}
		}
	}
}
