// Package instances implements the Lab Manager: the stateful orchestrator
// that spawns, supervises, and tears down per-architecture emulator
// processes and the host network/disk state each one owns.
package instances

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/paths"
	"github.com/ironhall/labmgr/lib/registry"
)

// InstanceLogCloser releases a run's per-instance event log file handle once
// its teardown has finished. Satisfied by *logger.InstanceLogHandler; kept
// as a narrow interface here so this package doesn't import logger's
// handler-construction internals, only the one method it needs to call.
type InstanceLogCloser interface {
	CloseInstanceLog(runID string)
}

// Manager is the Lab Manager façade. Unlike the teacher's per-instance
// sync.Map of locks, spawn/stop/reset here share a single process-wide
// mutex: this system's operations are inherently host-global (bridge
// membership, tap index allocation, the cortex-m3 uniqueness guard), so
// finer-grained locking would buy concurrency the operations themselves
// can't safely use.
type Manager struct {
	mu sync.Mutex

	registry *registry.Registry
	netAlloc *network.Allocator
	paths    *paths.Paths

	externalLeaseFile string
	internalLeaseFile string
	internalSubnet    string
	stopGrace         time.Duration

	internalBridgeReady bool

	eventLogCloser InstanceLogCloser

	active []string // run_id, insertion order
	byID   map[string]*Instance
}

// New creates a Lab Manager façade.
func New(reg *registry.Registry, netAlloc *network.Allocator, p *paths.Paths, externalLeaseFile, internalLeaseFile, internalSubnet string, stopGrace time.Duration) *Manager {
	return &Manager{
		registry:          reg,
		netAlloc:          netAlloc,
		paths:             p,
		externalLeaseFile: externalLeaseFile,
		internalLeaseFile: internalLeaseFile,
		internalSubnet:    internalSubnet,
		stopGrace:         stopGrace,
		byID:              make(map[string]*Instance),
	}
}

// SetEventLogCloser wires in the per-run event log handle closer. Optional:
// a Manager with none set simply leaks no extra state but also won't evict
// the instance_handler's cached file on stop, so the composition root
// should always set this before serving traffic.
func (m *Manager) SetEventLogCloser(c InstanceLogCloser) {
	m.eventLogCloser = c
}

// Resolve implements middleware.RunResolver: it validates a run id and hands
// back the Instance it names, so the REST transport can reject an unknown
// run_id and enrich its logger before Kill's handler body even runs.
func (m *Manager) Resolve(ctx context.Context, runID string) (string, any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.byID[runID]
	if !ok {
		return "", nil, fmt.Errorf("%w: run id %q", ErrNotFound, runID)
	}
	return inst.RunID, inst, nil
}

// ensureInternalBridgeLocked lazily creates the internal bridge on first
// multi-homed spawn. Must be called with m.mu held.
func (m *Manager) ensureInternalBridgeLocked() error {
	if m.internalBridgeReady {
		return nil
	}
	if err := m.netAlloc.EnsureInternalBridge(m.internalSubnet); err != nil {
		return err
	}
	m.internalBridgeReady = true
	return nil
}
