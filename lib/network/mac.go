package network

import (
	"crypto/rand"
	"fmt"
)

// StellarisMAC is the fixed MAC address baked into the Stellaris LM3S6965EVB
// SoC image. It never changes across runs, which is why cortex-m3 instances
// are capped at one concurrent instance: two would collide on the same
// address.
const StellarisMAC = "00:00:94:00:83:00"

// GenerateMAC returns a random locally-administered MAC under the QEMU
// vendor OUI 52:54:00, matching the source lab's _generate_mac convention.
func GenerateMAC() (string, error) {
	var tail [3]byte
	if _, err := rand.Read(tail[:]); err != nil {
		return "", fmt.Errorf("generate mac: %w", err)
	}
	return fmt.Sprintf("52:54:00:%02x:%02x:%02x", tail[0], tail[1], tail[2]), nil
}
