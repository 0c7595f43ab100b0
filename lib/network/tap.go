package network

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/vishvananda/netlink"
)

// NextTapName scans /sys/class/net for tap{N}{suffix} interfaces and returns
// "tap{N}{suffix}" for the lowest N with no existing device, mirroring the
// source lab's _get_next_tap linear scan. suffix distinguishes the primary
// namespace (empty) from the internal-bridge namespace ("_int"): each is
// numbered independently.
func NextTapName(suffix string) (string, error) {
	re := regexp.MustCompile(`^tap(\d+)` + regexp.QuoteMeta(suffix) + `$`)

	entries, err := os.ReadDir("/sys/class/net")
	if err != nil {
		return "", fmt.Errorf("list /sys/class/net: %w", err)
	}
	used := make(map[int]bool, len(entries))
	for _, e := range entries {
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		used[n] = true
	}
	for n := 0; n < 4096; n++ {
		if !used[n] {
			return fmt.Sprintf("tap%d%s", n, suffix), nil
		}
	}
	return "", ErrTapExhausted
}

// CreateTap creates a tap device, enslaves it to bridge, and brings the tap
// up; the bridge's own link state is left as it is. It is not idempotent:
// callers allocate a fresh name via NextTapName per NIC, so a name collision indicates a stale
// device left behind by a crashed instance.
func CreateTap(name, bridge string) error {
	if existing, err := netlink.LinkByName(name); err == nil {
		if br, brErr := netlink.LinkByName(bridge); brErr == nil &&
			existing.Attrs().MasterIndex != 0 && existing.Attrs().MasterIndex != br.Attrs().Index {
			return fmt.Errorf("tap %s: %w", name, ErrInterfaceBusy)
		}
		return fmt.Errorf("create tap %s: device already exists", name)
	}

	tap := &netlink.Tuntap{
		LinkAttrs: netlink.LinkAttrs{Name: name},
		Mode:      netlink.TUNTAP_MODE_TAP,
		Flags:     netlink.TUNTAP_DEFAULTS_IFF_TAP_EXCL,
	}
	if err := netlink.LinkAdd(tap); err != nil {
		return fmt.Errorf("create tap %s: %w", name, err)
	}

	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("lookup created tap %s: %w", name, err)
	}

	br, err := netlink.LinkByName(bridge)
	if err != nil {
		_ = netlink.LinkDel(link)
		return fmt.Errorf("lookup bridge %s: %w", bridge, err)
	}

	if err := netlink.LinkSetMaster(link, br); err != nil {
		_ = netlink.LinkDel(link)
		return fmt.Errorf("enslave tap %s to bridge %s: %w", name, bridge, err)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		_ = netlink.LinkDel(link)
		return fmt.Errorf("bring up tap %s: %w", name, err)
	}

	return nil
}

// DeleteTap brings a tap device down and removes it. It is best-effort: a
// missing device (already reaped by the kernel when the emulator exited) is
// not an error, matching the source lab's _destroy_tap tolerance.
func DeleteTap(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return nil
	}
	_ = netlink.LinkSetDown(link)
	_ = netlink.LinkDel(link)
	return nil
}
