package qemu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/registry"
)

func TestBuildArgs_Mipsel(t *testing.T) {
	args, err := BuildArgs(Spec{
		Descriptor: registry.Descriptor{Arch: registry.ArchMipsel, EmulatorMachine: "malta"},
		KernelPath: "/lib/vmlinux-mipsel",
		DriveFile:  "/overlays/run1.qcow2",
		MemoryMB:   256,
		Primary:    network.NIC{TapName: "tap0", MAC: "52:54:00:11:22:33"},
	})
	require.NoError(t, err)

	assert.Equal(t, "qemu-system-mipsel", args[0])
	assert.Contains(t, args, "-kernel")
	assert.Contains(t, args, "root=/dev/sda1 console=ttyS0")
	assert.Contains(t, args, "file=/overlays/run1.qcow2,format=qcow2")
	assert.Contains(t, args, "e1000,netdev=net0,mac=52:54:00:11:22:33")
	assert.Contains(t, args, "-nographic")
}

func TestBuildArgs_CortexM3_IgnoresDriveAndAppend(t *testing.T) {
	args, err := BuildArgs(Spec{
		Descriptor: registry.Descriptor{Arch: registry.ArchCortexM3, EmulatorMachine: "lm3s6965evb"},
		KernelPath: "/lib/zephyr.elf",
		Primary:    network.NIC{TapName: "tap1", MAC: "52:54:00:aa:bb:cc"},
	})
	require.NoError(t, err)

	assert.Equal(t, "qemu-system-arm", args[0])
	assert.NotContains(t, args, "-append")
	assert.NotContains(t, args, "-drive")
	assert.Contains(t, args, "nic,model=stellaris")
}

func TestBuildArgs_Riscv32_FixedMemoryAndNoFirmware(t *testing.T) {
	args, err := BuildArgs(Spec{
		Descriptor: registry.Descriptor{Arch: registry.ArchRiscv32, EmulatorMachine: "virt"},
		KernelPath: "/lib/zephyr.elf",
		Primary:    network.NIC{TapName: "tap2", MAC: "52:54:00:dd:ee:ff"},
	})
	require.NoError(t, err)

	assert.Contains(t, args, "-bios")
	assert.Contains(t, args, "none")
	assert.Contains(t, args, "256")
	assert.Contains(t, args, "virtio-net-device,netdev=net0,mac=52:54:00:dd:ee:ff")
}

func TestBuildArgs_MultiHomedUnsupportedArch(t *testing.T) {
	_, err := BuildArgs(Spec{
		Descriptor: registry.Descriptor{Arch: registry.ArchRiscv32, MultiHomed: true},
		Primary:    network.NIC{TapName: "tap3"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultiHomingUnsupported)
}

func TestBuildArgs_ArmelMultiHomed_EmitsSecondNIC(t *testing.T) {
	secondary := network.NIC{TapName: "tap4_int", MAC: "52:54:00:01:02:03"}
	args, err := BuildArgs(Spec{
		Descriptor: registry.Descriptor{Arch: registry.ArchArmel, MultiHomed: true},
		KernelPath: "/lib/vmlinuz-armel",
		DriveFile:  "/overlays/run2.qcow2",
		MemoryMB:   128,
		Primary:    network.NIC{TapName: "tap4", MAC: "52:54:00:aa:bb:01"},
		Secondary:  &secondary,
	})
	require.NoError(t, err)
	assert.Contains(t, args, "nic,macaddr=52:54:00:aa:bb:01")
	assert.Contains(t, args, "nic,macaddr=52:54:00:01:02:03")
}
