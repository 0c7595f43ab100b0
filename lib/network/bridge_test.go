package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveGateway(t *testing.T) {
	gw, err := DeriveGateway("192.168.200.0/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.200.1", gw)
}

func TestDeriveGateway_InvalidCIDR(t *testing.T) {
	_, err := DeriveGateway("not-a-cidr")
	assert.Error(t, err)
}

func TestDeriveGateway_SlashThirtyTwoHasNoRoomForGateway(t *testing.T) {
	_, err := DeriveGateway("192.168.200.5/32")
	assert.Error(t, err)
}
