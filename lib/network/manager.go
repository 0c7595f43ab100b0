// Package network allocates and tears down the tap devices and addresses a
// spawned instance needs: one primary NIC on the externally NAT'd bridge,
// and for multi-homed firmware, a second NIC on a manager-owned internal
// bridge.
package network

import (
	"fmt"
)

// Allocator hands out NICs against a fixed pair of pre-existing or
// manager-managed bridges.
type Allocator struct {
	externalBridge string
	internalBridge string
}

// NewAllocator creates an Allocator. externalBridge must already exist
// (provisioned by the host, see the deployment prerequisites); internalBridge
// is created on demand by EnsureInternalBridge.
func NewAllocator(externalBridge, internalBridge string) *Allocator {
	return &Allocator{externalBridge: externalBridge, internalBridge: internalBridge}
}

// EnsureInternalBridge creates or adopts the internal bridge with the given
// subnet. The Lab Manager calls it lazily, on the first multi-homed spawn.
func (a *Allocator) EnsureInternalBridge(subnetCIDR string) error {
	return EnsureBridge(a.internalBridge, subnetCIDR)
}

// CheckExternalBridge fails fast if the externally-provisioned bridge is
// absent, instead of letting the first spawn fail deep inside tap creation.
func (a *Allocator) CheckExternalBridge() error {
	ok, err := BridgeExists(a.externalBridge)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("external bridge %s does not exist; it must be provisioned by the host", a.externalBridge)
	}
	return nil
}

// Allocate creates the tap device(s) a single instance needs. fixedMAC, if
// non-empty, is used verbatim for the primary NIC instead of generating a
// random address (the Stellaris cortex-m3 image's baked-in MAC). When
// multiHomed is true a second NIC is also created on the internal bridge.
func (a *Allocator) Allocate(fixedMAC string, multiHomed bool) (primary NIC, secondary *NIC, err error) {
	primary, err = a.allocateOne(a.externalBridge, "", fixedMAC)
	if err != nil {
		return NIC{}, nil, err
	}

	if !multiHomed {
		return primary, nil, nil
	}

	sec, err := a.allocateOne(a.internalBridge, "_int", "")
	if err != nil {
		_ = DeleteTap(primary.TapName)
		return NIC{}, nil, err
	}
	return primary, &sec, nil
}

func (a *Allocator) allocateOne(bridge, suffix, fixedMAC string) (NIC, error) {
	name, err := NextTapName(suffix)
	if err != nil {
		return NIC{}, err
	}

	mac := fixedMAC
	if mac == "" {
		mac, err = GenerateMAC()
		if err != nil {
			return NIC{}, err
		}
	}

	if err := CreateTap(name, bridge); err != nil {
		return NIC{}, err
	}

	return NIC{TapName: name, MAC: mac, Bridge: bridge}, nil
}

// Release tears down every tap device belonging to an instance. Errors are
// swallowed: releasing best-effort during cleanup must never block an
// otherwise-successful stop, matching the source lab's _destroy_tap
// tolerance for already-gone devices.
func (a *Allocator) Release(nics ...NIC) {
	for _, n := range nics {
		_ = DeleteTap(n.TapName)
	}
}
