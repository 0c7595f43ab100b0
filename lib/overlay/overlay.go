// Package overlay creates and destroys per-instance qcow2 copy-on-write
// disks backed by a firmware's shared, read-only rootfs image.
package overlay

import (
	"fmt"
	"os"
	"os/exec"
)

// Create builds a qcow2 overlay at overlayPath backed by basePath, matching
// the source lab's `qemu-img create -f qcow2 -b <base> -F qcow2 <overlay>`
// invocation. basePath is never written to; every instance gets its own
// overlay so concurrent runs of the same firmware don't share mutable state.
func Create(basePath, overlayPath string) error {
	cmd := exec.Command("qemu-img", "create", "-f", "qcow2", "-b", basePath, "-F", "qcow2", overlayPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("create overlay %s backed by %s: %w, output: %s", overlayPath, basePath, err, output)
	}
	return nil
}

// Delete removes an overlay disk. A missing file is not an error: the
// caller may be cleaning up after a spawn that failed before the overlay
// was created.
func Delete(overlayPath string) error {
	if err := os.Remove(overlayPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete overlay %s: %w", overlayPath, err)
	}
	return nil
}
