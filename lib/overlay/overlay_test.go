package overlay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelete_MissingFileIsNotError(t *testing.T) {
	err := Delete(filepath.Join(t.TempDir(), "does-not-exist.qcow2"))
	assert.NoError(t, err)
}

func TestCreate_MissingBaseFails(t *testing.T) {
	dir := t.TempDir()
	err := Create(filepath.Join(dir, "nonexistent-base.qcow2"), filepath.Join(dir, "out.qcow2"))
	assert.Error(t, err)
}
