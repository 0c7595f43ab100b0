package network

// NIC describes one network interface attached to a spawned instance: the
// tap device netlink created plus the MAC address the command builder
// should pass to the emulator's matching -device option.
type NIC struct {
	TapName string
	MAC     string
	Bridge  string
}
