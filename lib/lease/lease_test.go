package lease

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLeases(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dnsmasq.leases")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLookup_MatchesCaseInsensitively(t *testing.T) {
	path := writeLeases(t, "1700000000 52:54:00:aa:bb:cc 192.168.1.42 host-a 01:52:54:00:aa:bb:cc")

	ip, found, err := Lookup(path, "52:54:00:AA:BB:CC")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "192.168.1.42", ip)
}

func TestLookup_FirstMatchWins(t *testing.T) {
	path := writeLeases(t,
		"1700000000 52:54:00:aa:bb:cc 192.168.1.10 host-a *",
		"1700000001 52:54:00:aa:bb:cc 192.168.1.99 host-b *",
	)

	ip, found, err := Lookup(path, "52:54:00:aa:bb:cc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "192.168.1.10", ip)
}

func TestLookup_NoMatch(t *testing.T) {
	path := writeLeases(t, "1700000000 52:54:00:aa:bb:cc 192.168.1.10 host-a *")

	_, found, err := Lookup(path, "52:54:00:ff:ff:ff")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookup_MissingFileNotAnError(t *testing.T) {
	_, found, err := Lookup(filepath.Join(t.TempDir(), "nope.leases"), "52:54:00:aa:bb:cc")
	require.NoError(t, err)
	assert.False(t, found)
}
