// Package registry implements the firmware registry: it scans a library
// directory for firmware descriptors and exposes them keyed by id.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/samber/lo"

	"github.com/ironhall/labmgr/lib/logger"
)

// Arch enumerates the guest architectures the command builder understands.
type Arch string

const (
	ArchMipsel   Arch = "mipsel"
	ArchArmel    Arch = "armel"
	ArchCortexM3 Arch = "cortex-m3"
	ArchRiscv32  Arch = "riscv32"
)

// Descriptor is an immutable firmware descriptor loaded from a config.json
// file in the library directory.
type Descriptor struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Arch            Arch   `json:"arch"`
	EmulatorMachine string `json:"emulator_machine"`
	Kernel          string `json:"kernel"`
	Rootfs          string `json:"rootfs,omitempty"`
	Initrd          string `json:"initrd,omitempty"`
	Memory          string `json:"memory,omitempty"`
	MultiHomed      bool   `json:"multi_homed,omitempty"`
	DefaultCreds    string `json:"default_creds,omitempty"`

	// dir is the directory config.json was read from; kernel/rootfs/initrd
	// are resolved relative to it. Not serialized.
	dir string `json:"-"`
}

// Dir returns the descriptor's source directory.
func (d Descriptor) Dir() string { return d.dir }

// KernelPath returns the absolute, symlink-safe path to the kernel image.
func (d Descriptor) KernelPath() (string, error) {
	return securejoin.SecureJoin(d.dir, d.Kernel)
}

// RootfsPath returns the absolute, symlink-safe path to the rootfs image,
// or "" if the descriptor has none.
func (d Descriptor) RootfsPath() (string, error) {
	if d.Rootfs == "" {
		return "", nil
	}
	return securejoin.SecureJoin(d.dir, d.Rootfs)
}

// InitrdPath returns the absolute, symlink-safe path to the initrd image,
// or "" if the descriptor has none.
func (d Descriptor) InitrdPath() (string, error) {
	if d.Initrd == "" {
		return "", nil
	}
	return securejoin.SecureJoin(d.dir, d.Initrd)
}

// Registry scans a library directory for firmware descriptors on demand.
// It holds no mutable cache: each List call re-scans, matching the source's
// stateless scan() behavior, so there is nothing here for concurrent callers
// to corrupt.
type Registry struct {
	libraryDir string
}

// New creates a Registry rooted at libraryDir.
func New(libraryDir string) *Registry {
	return &Registry{libraryDir: libraryDir}
}

// List returns every well-formed descriptor under the library directory, in
// stable lexicographic order of the source config.json path. Malformed
// descriptors are skipped with a warning, not fatal.
func (r *Registry) List(ctx context.Context) ([]Descriptor, error) {
	log := logger.FromContext(ctx)

	var configPaths []string
	err := filepath.WalkDir(r.libraryDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && filepath.Base(path) == "config.json" {
			configPaths = append(configPaths, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan library %s: %w", r.libraryDir, err)
	}
	sort.Strings(configPaths)

	descriptors := make([]Descriptor, 0, len(configPaths))
	for _, cfgPath := range configPaths {
		data, err := os.ReadFile(cfgPath)
		if err != nil {
			log.WarnContext(ctx, "skipping unreadable firmware descriptor", "path", cfgPath, "error", err)
			continue
		}
		var d Descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			log.WarnContext(ctx, "skipping malformed firmware descriptor", "path", cfgPath, "error", err)
			continue
		}
		d.dir = filepath.Dir(cfgPath)
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

// Get returns the descriptor with the given id, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (Descriptor, error) {
	descriptors, err := r.List(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	for _, d := range descriptors {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: firmware id %q", ErrNotFound, id)
}

// PublicView is the sanitized projection of a Descriptor returned by
// GET /library — every internal (directory-resolution) field stripped.
type PublicView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Arch            Arch   `json:"arch"`
	EmulatorMachine string `json:"emulator_machine"`
	Kernel          string `json:"kernel"`
	Rootfs          string `json:"rootfs,omitempty"`
	Initrd          string `json:"initrd,omitempty"`
	Memory          string `json:"memory,omitempty"`
	MultiHomed      bool   `json:"multi_homed,omitempty"`
	DefaultCreds    string `json:"default_creds,omitempty"`
}

// ToPublicViews maps descriptors to their sanitized public projection.
func ToPublicViews(descriptors []Descriptor) []PublicView {
	return lo.Map(descriptors, func(d Descriptor, _ int) PublicView {
		return PublicView{
			ID:              d.ID,
			Name:            d.Name,
			Arch:            d.Arch,
			EmulatorMachine: d.EmulatorMachine,
			Kernel:          d.Kernel,
			Rootfs:          d.Rootfs,
			Initrd:          d.Initrd,
			Memory:          d.Memory,
			MultiHomed:      d.MultiHomed,
			DefaultCreds:    d.DefaultCreds,
		}
	})
}
