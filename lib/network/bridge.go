package network

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// DeriveGateway returns the first usable host address of a CIDR block, e.g.
// "192.168.200.0/24" -> "192.168.200.1".
func DeriveGateway(cidr string) (string, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", fmt.Errorf("parse subnet %s: %w", cidr, err)
	}
	gw := make(net.IP, len(ip.To4()))
	copy(gw, ip.To4())
	gw[len(gw)-1]++
	if !ipNet.Contains(gw) {
		return "", fmt.Errorf("subnet %s too small for a gateway address", cidr)
	}
	return gw.String(), nil
}

// EnsureBridge creates the internal segmented bridge if absent, or verifies
// an existing link really is a bridge, then assigns cidr's gateway address
// to it and brings it up. Safe to call on every daemon start: a bridge left
// behind by a previous run is adopted, not recreated.
func EnsureBridge(name, cidr string) error {
	gateway, err := DeriveGateway(cidr)
	if err != nil {
		return err
	}

	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); !ok {
			return fmt.Errorf("lookup bridge %s: %w", name, err)
		}
		br := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name}}
		if err := netlink.LinkAdd(br); err != nil {
			return fmt.Errorf("create bridge %s: %w", name, err)
		}
		link, err = netlink.LinkByName(name)
		if err != nil {
			return fmt.Errorf("lookup newly created bridge %s: %w", name, err)
		}
	} else if _, ok := link.(*netlink.Bridge); !ok {
		return fmt.Errorf("%s exists and is not a bridge", name)
	}

	_, subnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("parse subnet %s: %w", cidr, err)
	}
	gwAddr := &netlink.Addr{IPNet: &net.IPNet{IP: net.ParseIP(gateway), Mask: subnet.Mask}}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return fmt.Errorf("list addresses on %s: %w", name, err)
	}
	haveGateway := false
	for _, a := range addrs {
		if a.IP.Equal(gwAddr.IP) {
			haveGateway = true
			break
		}
	}
	if !haveGateway {
		if err := netlink.AddrAdd(link, gwAddr); err != nil {
			return fmt.Errorf("assign %s to bridge %s: %w", gateway, name, err)
		}
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("bring up bridge %s: %w", name, err)
	}
	return nil
}

// BridgeExists reports whether name is an existing bridge link, used to
// fail fast when the external (pre-provisioned) bridge is missing rather
// than let the first spawn attempt fail deep inside tap creation.
func BridgeExists(name string) (bool, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return false, nil
		}
		return false, fmt.Errorf("lookup bridge %s: %w", name, err)
	}
	_, ok := link.(*netlink.Bridge)
	return ok, nil
}
