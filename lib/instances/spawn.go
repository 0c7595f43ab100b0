package instances

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"

	"gvisor.dev/gvisor/pkg/cleanup"

	"github.com/ironhall/labmgr/lib/config"
	"github.com/ironhall/labmgr/lib/hypervisor/qemu"
	"github.com/ironhall/labmgr/lib/logger"
	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/overlay"
	"github.com/ironhall/labmgr/lib/registry"
)

// Spawn boots a new instance of the given firmware and returns its run id.
func (m *Manager) Spawn(ctx context.Context, firmwareID string) (string, error) {
	log := logger.FromContext(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. Look up descriptor.
	desc, err := m.registry.Get(ctx, firmwareID)
	if err != nil {
		return "", fmt.Errorf("%w: firmware %q", ErrNotFound, firmwareID)
	}

	// 2. cortex-m3 SoC-MAC uniqueness guard.
	if desc.Arch == registry.ArchCortexM3 {
		for _, id := range m.active {
			if inst := m.byID[id]; inst.Arch == registry.ArchCortexM3 && inst.handle.Alive() {
				return "", fmt.Errorf("%w: cortex-m3 instance %s already running (Stellaris MAC is fixed)", ErrConflict, inst.RunID)
			}
		}
	}

	// 7 (moved earlier, matching "before any host mutation"). Resolve and
	// verify kernel/rootfs files exist before touching the network.
	kernelPath, err := desc.KernelPath()
	if err != nil {
		return "", fmt.Errorf("resolve kernel path: %w", err)
	}
	if _, err := os.Stat(kernelPath); err != nil {
		return "", fmt.Errorf("%w: kernel missing at %s", ErrNotFound, kernelPath)
	}

	rootfsPath, err := desc.RootfsPath()
	if err != nil {
		return "", fmt.Errorf("resolve rootfs path: %w", err)
	}
	if rootfsPath != "" {
		if _, err := os.Stat(rootfsPath); err != nil {
			return "", fmt.Errorf("%w: rootfs missing at %s", ErrNotFound, rootfsPath)
		}
	}

	initrdPath, err := desc.InitrdPath()
	if err != nil {
		return "", fmt.Errorf("resolve initrd path: %w", err)
	}

	// 5. Multi-homed firmware needs the internal bridge up first.
	if desc.MultiHomed {
		if err := m.ensureInternalBridgeLocked(); err != nil {
			return "", fmt.Errorf("ensure internal bridge: %w", err)
		}
	}

	runID, err := newRunID(firmwareID)
	if err != nil {
		return "", err
	}

	cu := cleanup.Make(func() {})
	defer cu.Clean()

	// 3-4, 8: allocate and create tap device(s) + MAC(s).
	fixedMAC := ""
	if desc.Arch == registry.ArchCortexM3 {
		fixedMAC = network.StellarisMAC
	}
	primary, secondary, err := m.netAlloc.Allocate(fixedMAC, desc.MultiHomed)
	if err != nil {
		return "", fmt.Errorf("allocate network: %w", err)
	}
	cu.Add(func() {
		if secondary != nil {
			m.netAlloc.Release(primary, *secondary)
		} else {
			m.netAlloc.Release(primary)
		}
	})

	// 9. Create the overlay if this firmware has a rootfs.
	var overlayPath string
	if rootfsPath != "" {
		overlayPath = m.paths.InstanceOverlay(runID)
		if err := os.MkdirAll(m.paths.OverlaysDir(), 0755); err != nil {
			return "", fmt.Errorf("create overlays directory: %w", err)
		}
		if err := overlay.Create(rootfsPath, overlayPath); err != nil {
			return "", fmt.Errorf("create overlay: %w", err)
		}
		cu.Add(func() { _ = overlay.Delete(overlayPath) })
	}

	memMB, err := config.ParseMemoryMB(desc.Memory)
	if err != nil {
		return "", fmt.Errorf("parse memory: %w", err)
	}

	driveFile := overlayPath
	if driveFile == "" {
		driveFile = rootfsPath
	}

	argv, err := qemu.BuildArgs(qemu.Spec{
		Descriptor: desc,
		KernelPath: kernelPath,
		DriveFile:  driveFile,
		InitrdPath: initrdPath,
		MemoryMB:   memMB,
		Primary:    primary,
		Secondary:  secondary,
	})
	if err != nil {
		return "", fmt.Errorf("build emulator command: %w", err)
	}

	// 11. Open the log and start the child.
	if err := os.MkdirAll(m.paths.LogsDir(), 0755); err != nil {
		return "", fmt.Errorf("create logs directory: %w", err)
	}
	logPath := m.paths.InstanceLog(runID)
	handle, err := qemu.Start(argv, logPath)
	if err != nil {
		return "", fmt.Errorf("start emulator: %w", err)
	}
	cu.Add(func() { _ = handle.Stop(m.stopGrace) })

	inst := &Instance{
		RunID:       runID,
		FirmwareID:  desc.ID,
		Arch:        desc.Arch,
		Name:        desc.Name,
		Tap:         primary.TapName,
		MAC:         primary.MAC,
		IP:          ipPending,
		MultiHomed:  desc.MultiHomed,
		LogPath:     logPath,
		OverlayPath: overlayPath,
		primary:     primary,
		secondary:   secondary,
		handle:      handle,
	}
	if secondary != nil {
		inst.TapInternal = secondary.TapName
		inst.MACInternal = secondary.MAC
		inst.IPInternal = ipPending
	}

	// 13. Register.
	m.byID[runID] = inst
	m.active = append(m.active, runID)

	cu.Release()

	log.InfoContext(ctx, "spawned instance", "run_id", runID, "firmware_id", firmwareID, "arch", desc.Arch, "pid", handle.PID, "tap", primary.TapName)
	return runID, nil
}

// newRunID builds "{firmwareID}_{8 lowercase hex}", matching the source
// lab's run_id convention.
func newRunID(firmwareID string) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return fmt.Sprintf("%s_%02x%02x%02x%02x", firmwareID, b[0], b[1], b[2], b[3]), nil
}
