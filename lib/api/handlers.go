// Package api implements the REST transport over the Lab Manager: a thin
// mapping of five verbs onto manager operations plus an unauthenticated
// liveness endpoint.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ironhall/labmgr/lib/hypervisor/qemu"
	"github.com/ironhall/labmgr/lib/instances"
	"github.com/ironhall/labmgr/lib/logger"
	mw "github.com/ironhall/labmgr/lib/middleware"
	"github.com/ironhall/labmgr/lib/registry"
)

// Handler wires the Lab Manager and Firmware Registry to HTTP.
type Handler struct {
	registry *registry.Registry
	manager  *instances.Manager
}

// NewHandler creates a transport Handler.
func NewHandler(reg *registry.Registry, mgr *instances.Manager) *Handler {
	return &Handler{registry: reg, manager: mgr}
}

// Routes mounts every endpoint onto r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Get("/library", h.ListLibrary)
	r.Get("/topology", h.Topology)
	r.Post("/spawn", h.Spawn)
	r.With(mw.ResolveRunID(h.manager, ResolverErrorResponder)).Post("/kill/{run_id}", h.Kill)
	r.Post("/reset_lab", h.ResetLab)
}

// ResolverErrorResponder maps a mw.RunResolver failure to the REST error
// mapping: an unknown run_id is the only way Resolve can fail, so it is
// always a 404.
func ResolverErrorResponder(w http.ResponseWriter, err error, lookup string) {
	writeError(w, http.StatusNotFound, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Healthz reports liveness. Unauthenticated, mounted ahead of any business
// route — operators driving this system via a scheduler or supervisor need
// a fast, dependency-free check.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListLibrary returns every firmware descriptor, internal fields stripped.
func (h *Handler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	descriptors, err := h.registry.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, registry.ToPublicViews(descriptors))
}

// Topology refreshes IPs against the lease files, then returns every active
// instance's public view.
func (h *Handler) Topology(w http.ResponseWriter, r *http.Request) {
	h.manager.RefreshIPs(r.Context())
	writeJSON(w, http.StatusOK, h.manager.Topology(r.Context()))
}

type spawnRequest struct {
	FirmwareID string `json:"firmware_id"`
}

// Spawn boots a new instance of the requested firmware.
func (h *Handler) Spawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FirmwareID == "" {
		writeError(w, http.StatusBadRequest, "firmware_id is required")
		return
	}

	runID, err := h.manager.Spawn(r.Context(), req.FirmwareID)
	if err != nil {
		switch {
		case errors.Is(err, instances.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, qemu.ErrMultiHomingUnsupported):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			// Conflict and ResourceError both map to 500 per the REST mapping.
			logger.FromContext(r.Context()).ErrorContext(r.Context(), "spawn failed", "firmware_id", req.FirmwareID, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"run_id": runID})
}

// Kill stops a single instance by run id.
func (h *Handler) Kill(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if !h.manager.Stop(r.Context(), runID) {
		writeError(w, http.StatusNotFound, "unknown run_id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped", "run_id": runID})
}

// ResetLab stops every active instance.
func (h *Handler) ResetLab(w http.ResponseWriter, r *http.Request) {
	count := h.manager.Reset(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "stopped": count})
}
