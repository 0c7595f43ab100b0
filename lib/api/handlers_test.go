package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhall/labmgr/lib/instances"
	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/paths"
	"github.com/ironhall/labmgr/lib/registry"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	reg := registry.New(t.TempDir())
	netAlloc := network.NewAllocator("br0", "br_internal")
	p := paths.New(t.TempDir())
	mgr := instances.New(reg, netAlloc, p, "", "", "192.168.200.0/24", 2*time.Second)
	return NewHandler(reg, mgr)
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSpawn_MissingFirmwareIDIsBadRequest(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/spawn", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	h.Spawn(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpawn_UnknownFirmwareIsNotFound(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/spawn", bytes.NewBufferString(`{"firmware_id":"nope"}`))
	rec := httptest.NewRecorder()

	h.Spawn(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKill_UnknownRunIDIsNotFound(t *testing.T) {
	h := newTestHandler(t)
	r := chi.NewRouter()
	r.Post("/kill/{run_id}", h.Kill)

	req := httptest.NewRequest(http.MethodPost, "/kill/does-not-exist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetLab_AlwaysReturnsOK(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/reset_lab", nil)
	rec := httptest.NewRecorder()

	h.ResetLab(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "reset", body["status"])
	assert.Equal(t, float64(0), body["stopped"])
}

func TestTopology_EmptyListOnFreshManager(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/topology", nil)
	rec := httptest.NewRecorder()

	h.Topology(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
