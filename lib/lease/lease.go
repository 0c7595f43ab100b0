// Package lease reconciles dnsmasq DHCP lease files against a MAC address
// to discover the IP an emulated device was actually handed.
package lease

import (
	"bufio"
	"os"
	"strings"
)

// Lookup scans a dnsmasq leases file (lines of the form
// "<expiry> <mac> <ip> <hostname> <client-id>", extra trailing tokens
// tolerated) for the first line whose MAC token matches mac, case-
// insensitively, and returns its IP token. A missing lease file is not an
// error — it simply yields no match, since the DHCP server may not have
// leased anything yet.
func Lookup(leaseFile, mac string) (ip string, found bool, err error) {
	f, err := os.Open(leaseFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer f.Close()

	want := strings.ToLower(mac)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if strings.ToLower(fields[1]) == want {
			return fields[2], true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}
