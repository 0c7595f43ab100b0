// Package paths provides centralized path construction for the lab manager's
// data directory.
//
// Directory structure:
//
//	{dataDir}/
//	  logs/
//	    qemu-{run_id}.log
//	  overlays/
//	    {run_id}.qcow2
package paths

import "path/filepath"

// Paths provides typed path construction for the lab manager data directory.
type Paths struct {
	dataDir string
}

// New creates a new Paths instance for the given data directory.
func New(dataDir string) *Paths {
	return &Paths{dataDir: dataDir}
}

// DataDir returns the root data directory.
func (p *Paths) DataDir() string {
	return p.dataDir
}

// LogsDir returns the directory holding per-instance console logs.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.dataDir, "logs")
}

// InstanceLog returns the path to a run's console log file.
func (p *Paths) InstanceLog(runID string) string {
	return filepath.Join(p.LogsDir(), "qemu-"+runID+".log")
}

// InstanceEventsLog returns the path to a run's manager-lifecycle event log
// (spawned/stopped/cleanup-warning lines), distinct from the emulator's own
// console output at InstanceLog.
func (p *Paths) InstanceEventsLog(runID string) string {
	return filepath.Join(p.LogsDir(), "events-"+runID+".log")
}

// OverlaysDir returns the directory holding per-instance copy-on-write overlays.
func (p *Paths) OverlaysDir() string {
	return filepath.Join(p.dataDir, "overlays")
}

// InstanceOverlay returns the path to a run's overlay disk file.
func (p *Paths) InstanceOverlay(runID string) string {
	return filepath.Join(p.OverlaysDir(), runID+".qcow2")
}
