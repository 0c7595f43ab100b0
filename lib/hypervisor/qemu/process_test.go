package qemu

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_WritesConsoleLogAndReportsAlive(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	h, err := Start([]string{"sh", "-c", "echo booting; sleep 5"}, logPath)
	require.NoError(t, err)
	defer h.Stop(time.Second)

	assert.True(t, h.Alive())
	assert.Greater(t, h.PID, 0)

	time.Sleep(100 * time.Millisecond)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "booting")
}

func TestStop_GracefulExitBeforeDeadline(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	h, err := Start([]string{"sh", "-c", "trap 'exit 0' TERM; sleep 30"}, logPath)
	require.NoError(t, err)

	err = h.Stop(2 * time.Second)
	require.NoError(t, err)
	assert.False(t, h.Alive())
}

func TestStop_ForceKillsAfterGrace(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	h, err := Start([]string{"sh", "-c", "trap '' TERM; sleep 30"}, logPath)
	require.NoError(t, err)

	start := time.Now()
	err = h.Stop(200 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, h.Alive())
	assert.Less(t, time.Since(start), 2*time.Second)
}
