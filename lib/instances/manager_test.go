package instances

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/paths"
	"github.com/ironhall/labmgr/lib/registry"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	reg := registry.New(t.TempDir())
	netAlloc := network.NewAllocator("br0", "br_internal")
	p := paths.New(t.TempDir())
	return New(reg, netAlloc, p, "", "", "192.168.200.0/24", 2*time.Second)
}

func TestNewRunID_Format(t *testing.T) {
	id, err := newRunID("dvrf_v03")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^dvrf_v03_[0-9a-f]{8}$`), id)
}

func TestStop_UnknownRunIDReturnsFalse(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.Stop(context.Background(), "does-not-exist"))
}

func TestReset_EmptyManagerReturnsZero(t *testing.T) {
	m := newTestManager(t)
	assert.Equal(t, 0, m.Reset(context.Background()))
}

func TestTopology_EmptyManagerReturnsEmptySlice(t *testing.T) {
	m := newTestManager(t)
	assert.Empty(t, m.Topology(context.Background()))
}

func TestSpawn_UnknownFirmwareIsNotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Spawn(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
