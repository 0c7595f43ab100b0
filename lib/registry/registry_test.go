package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDescriptor(t *testing.T, dir string, d Descriptor) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0644))
}

func TestList_TwoDescriptors(t *testing.T) {
	root := t.TempDir()
	writeDescriptor(t, filepath.Join(root, "a"), Descriptor{ID: "a", Arch: ArchMipsel, Kernel: "vmlinux"})
	writeDescriptor(t, filepath.Join(root, "b"), Descriptor{ID: "b", Arch: ArchArmel, Kernel: "vmlinux"})

	r := New(root)
	descriptors, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, descriptors, 2)

	views := ToPublicViews(descriptors)
	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"_`)
}

func TestList_SkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeDescriptor(t, filepath.Join(root, "good"), Descriptor{ID: "good", Arch: ArchMipsel, Kernel: "vmlinux"})
	badDir := filepath.Join(root, "bad")
	require.NoError(t, os.MkdirAll(badDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "config.json"), []byte("{not json"), 0644))

	r := New(root)
	descriptors, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "good", descriptors[0].ID)
}

func TestList_MissingLibraryDir(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist"))
	descriptors, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestGet_NotFound(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
