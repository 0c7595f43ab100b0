package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMAC_UsesQemuOUI(t *testing.T) {
	mac, err := GenerateMAC()
	require.NoError(t, err)
	assert.Regexp(t, `^52:54:00:[0-9a-f]{2}:[0-9a-f]{2}:[0-9a-f]{2}$`, mac)
}

func TestGenerateMAC_Varies(t *testing.T) {
	a, err := GenerateMAC()
	require.NoError(t, err)
	b, err := GenerateMAC()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
