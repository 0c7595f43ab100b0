package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLogHandler_FansOutRunTaggedRecords(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "events-a_1.log")

	base := slog.NewJSONHandler(os.Stderr, nil)
	h := NewInstanceLogHandler(base, func(runID string) string {
		return filepath.Join(dir, "events-"+runID+".log")
	})
	log := slog.New(h)

	log.InfoContext(context.Background(), "spawned instance", "run_id", "a_1")
	log.InfoContext(context.Background(), "unrelated message")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "spawned instance")
	assert.NotContains(t, string(data), "unrelated message")
}
