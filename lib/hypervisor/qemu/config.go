// Package qemu builds emulator command lines and supervises the resulting
// processes for every supported guest architecture.
package qemu

import (
	"fmt"
	"strconv"

	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/registry"
)

// ErrMultiHomingUnsupported is returned when a descriptor requests a second
// NIC on an architecture whose emulator profile only wires one.
var ErrMultiHomingUnsupported = fmt.Errorf("multi-homing is only supported for mipsel and armel")

// Spec is the fully-resolved set of inputs BuildArgs needs: a firmware
// descriptor plus every resource the rest of the system allocated for this
// run (resolved file paths, tap devices, memory size).
type Spec struct {
	Descriptor registry.Descriptor

	KernelPath string
	DriveFile  string // overlay path, or rootfs path if no overlay; empty for bare-metal archs
	InitrdPath string
	MemoryMB   int

	Primary   network.NIC
	Secondary *network.NIC // non-nil iff Descriptor.MultiHomed
}

// BuildArgs converts a Spec into the emulator's argument vector. The
// per-architecture shape (machine type, console device, NIC model, whether
// storage/append apply at all) is a fixed profile table, matching the
// source lab's ARCH_PROFILES dict exactly.
func BuildArgs(spec Spec) ([]string, error) {
	d := spec.Descriptor

	machine := d.EmulatorMachine
	if machine == "" {
		machine = "malta"
	}

	if d.MultiHomed && d.Arch != registry.ArchMipsel && d.Arch != registry.ArchArmel {
		return nil, ErrMultiHomingUnsupported
	}

	switch d.Arch {
	case registry.ArchCortexM3:
		args := []string{
			"qemu-system-arm",
			"-M", machine,
			"-kernel", spec.KernelPath,
			"-nographic",
		}
		args = append(args, stellarisNetArgs(spec.Primary)...)
		return args, nil

	case registry.ArchRiscv32:
		args := []string{
			"qemu-system-riscv32",
			"-M", machine,
			"-bios", "none",
			"-m", "256",
			"-kernel", spec.KernelPath,
			"-nographic",
		}
		args = append(args, virtioNetArgs("net0", spec.Primary)...)
		return args, nil

	case registry.ArchMipsel:
		args := []string{
			"qemu-system-mipsel",
			"-M", machine,
			"-kernel", spec.KernelPath,
			"-drive", fmt.Sprintf("file=%s,format=qcow2", spec.DriveFile),
			"-nographic",
			"-append", "root=/dev/sda1 console=ttyS0",
			"-m", strconv.Itoa(spec.MemoryMB),
		}
		args = append(args, e1000NetArgs("net0", spec.Primary)...)
		if spec.Secondary != nil {
			args = append(args, e1000NetArgs("net1", *spec.Secondary)...)
		}
		if spec.InitrdPath != "" {
			args = append(args, "-initrd", spec.InitrdPath)
		}
		return args, nil

	case registry.ArchArmel:
		args := []string{
			"qemu-system-arm",
			"-M", machine,
			"-kernel", spec.KernelPath,
			"-drive", fmt.Sprintf("file=%s,format=qcow2", spec.DriveFile),
			"-nographic",
			"-append", "root=/dev/sda1 console=ttyAMA0",
			"-m", strconv.Itoa(spec.MemoryMB),
		}
		args = append(args, builtinNicArgs(spec.Primary)...)
		if spec.Secondary != nil {
			args = append(args, builtinNicArgs(*spec.Secondary)...)
		}
		if spec.InitrdPath != "" {
			args = append(args, "-initrd", spec.InitrdPath)
		}
		return args, nil

	default:
		return nil, fmt.Errorf("unsupported arch: %s", d.Arch)
	}
}

func e1000NetArgs(netID string, nic network.NIC) []string {
	return []string{
		"-netdev", fmt.Sprintf("tap,id=%s,ifname=%s,script=no,downscript=no", netID, nic.TapName),
		"-device", fmt.Sprintf("e1000,netdev=%s,mac=%s", netID, nic.MAC),
	}
}

func virtioNetArgs(netID string, nic network.NIC) []string {
	return []string{
		"-netdev", fmt.Sprintf("tap,id=%s,ifname=%s,script=no,downscript=no", netID, nic.TapName),
		"-device", fmt.Sprintf("virtio-net-device,netdev=%s,mac=%s", netID, nic.MAC),
	}
}

// builtinNicArgs emits armel's -net-style built-in NIC, the style the
// source lab uses for that profile instead of -netdev/-device.
func builtinNicArgs(nic network.NIC) []string {
	return []string{
		"-net", fmt.Sprintf("nic,macaddr=%s", nic.MAC),
		"-net", fmt.Sprintf("tap,ifname=%s,script=no,downscript=no", nic.TapName),
	}
}

// stellarisNetArgs wires the cortex-m3 profile's fixed Stellaris NIC model.
// The MAC on nic is not passed to the emulator: the SoC's own hardwired
// address (network.StellarisMAC) is what actually appears on the wire, so
// the manager allocates the cortex-m3 NIC with that fixed address for its
// bookkeeping and allows only one live cortex-m3 instance at a time.
func stellarisNetArgs(nic network.NIC) []string {
	return []string{
		"-net", "nic,model=stellaris",
		"-net", fmt.Sprintf("tap,ifname=%s,script=no,downscript=no", nic.TapName),
	}
}
