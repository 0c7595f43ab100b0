package instances

import (
	"github.com/ironhall/labmgr/lib/hypervisor/qemu"
	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/registry"
)

// ipPending and ipUnknown are the two placeholder states an instance's IP
// passes through before (or in place of) a resolved DHCP lease.
const (
	ipPending = "pending"
	ipUnknown = "unknown"
)

// Instance is one manager-owned running (or exited-but-not-yet-stopped)
// emulator child.
type Instance struct {
	RunID      string
	FirmwareID string
	Arch       registry.Arch
	Name       string

	Tap string
	MAC string
	IP  string

	MultiHomed  bool
	TapInternal string
	MACInternal string
	IPInternal  string

	LogPath     string
	OverlayPath string

	primary   network.NIC
	secondary *network.NIC
	handle    *qemu.Handle
}

// PublicView is the sanitized, JSON-facing projection of an Instance
// returned by GET /topology — no process or file handles.
type PublicView struct {
	RunID      string `json:"run_id"`
	FirmwareID string `json:"firmware_id"`
	Arch       string `json:"arch"`
	Name       string `json:"name"`
	PID        int    `json:"pid"`
	Alive      bool   `json:"alive"`

	Tap string `json:"tap"`
	MAC string `json:"mac"`
	IP  string `json:"ip"`

	MultiHomed  bool   `json:"multi_homed,omitempty"`
	TapInternal string `json:"tap_internal,omitempty"`
	MACInternal string `json:"mac_internal,omitempty"`
	IPInternal  string `json:"ip_internal,omitempty"`

	LogPath     string `json:"log_path"`
	OverlayPath string `json:"overlay_path,omitempty"`
}

func (i *Instance) toPublicView() PublicView {
	v := PublicView{
		RunID:       i.RunID,
		FirmwareID:  i.FirmwareID,
		Arch:        string(i.Arch),
		Name:        i.Name,
		PID:         i.handle.PID,
		Alive:       i.handle.Alive(),
		Tap:         i.Tap,
		MAC:         i.MAC,
		IP:          i.IP,
		MultiHomed:  i.MultiHomed,
		TapInternal: i.TapInternal,
		MACInternal: i.MACInternal,
		IPInternal:  i.IPInternal,
		LogPath:     i.LogPath,
		OverlayPath: i.OverlayPath,
	}
	return v
}
