// Package admin provides the /admin/* control plane of the Postmark twin:
// state management, fault injection, time travel and inspection.
package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/memdb"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

// StateStore is the state a twin exposes to the control plane.
type StateStore interface {
	// Snapshot returns the full state as a JSON-serializable value.
	Snapshot() any
	// LoadState replaces the full state from a JSON body.
	LoadState(data []byte) error
	// Reset clears all state.
	Reset()
}

// ConfigProvider exposes runtime configuration to the control plane.
type ConfigProvider interface {
	GetConfig() map[string]any
	UpdateConfig(updates map[string]any) error
}

// Handler provides the admin endpoints.
type Handler struct {
	state  StateStore
	mw     *twincore.Middleware
	clock  *memdb.Clock
	config ConfigProvider
}

// NewHandler creates a new admin handler. clock may be nil.
func NewHandler(state StateStore, mw *twincore.Middleware, clock *memdb.Clock) *Handler {
	return &Handler{
		state: state,
		mw:    mw,
		clock: clock,
	}
}

// SetConfigProvider enables the /admin/config endpoints.
func (h *Handler) SetConfigProvider(c ConfigProvider) {
	h.config = c
}

// Routes mounts the admin endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", h.handleReset)
		r.Get("/state", h.handleGetState)
		r.Post("/state", h.handleLoadState)
		r.Post("/fault/*", h.handleInjectFault)
		r.Delete("/fault/*", h.handleRemoveFault)
		r.Get("/faults", h.handleListFaults)
		r.Get("/requests", h.handleGetRequests)
		r.Post("/time/advance", h.handleTimeAdvance)
		r.Get("/time", h.handleGetTime)
		r.Get("/health", h.handleHealth)
		r.Get("/config", h.handleGetConfig)
		r.Patch("/config", h.handleUpdateConfig)
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.state.Reset()
	h.mw.ReqLog.Clear()
	h.mw.Faults.Reset()
	if h.clock != nil {
		h.clock.Reset()
	}
	twincore.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) handleLoadState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if isYAML(r.Header.Get("Content-Type")) {
		if body, err = yamlToJSON(body); err != nil {
			twincore.Error(w, http.StatusBadRequest, "failed to parse YAML: "+err.Error())
			return
		}
	}
	if err := h.state.LoadState(body); err != nil {
		twincore.Error(w, http.StatusBadRequest, "failed to load state: "+err.Error())
		return
	}
	twincore.JSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

// faultPath returns the API path a fault applies to, e.g. "/email/withTemplate".
func faultPath(r *http.Request) string {
	return "/" + chi.URLParam(r, "*")
}

func (h *Handler) handleInjectFault(w http.ResponseWriter, r *http.Request) {
	endpoint := faultPath(r)

	var fault twincore.FaultConfig
	if err := json.NewDecoder(r.Body).Decode(&fault); err != nil {
		twincore.Error(w, http.StatusBadRequest, "invalid fault config: "+err.Error())
		return
	}
	h.mw.Faults.Set(endpoint, fault)
	twincore.JSON(w, http.StatusOK, map[string]any{
		"status":   "injected",
		"endpoint": endpoint,
		"fault":    fault,
	})
}

func (h *Handler) handleRemoveFault(w http.ResponseWriter, r *http.Request) {
	endpoint := faultPath(r)
	if h.mw.Faults.Remove(endpoint) {
		twincore.JSON(w, http.StatusOK, map[string]any{"status": "removed", "endpoint": endpoint})
	} else {
		twincore.Error(w, http.StatusNotFound, "no fault registered for "+endpoint)
	}
}

func (h *Handler) handleListFaults(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.mw.Faults.All())
}

func (h *Handler) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, h.mw.ReqLog.Entries())
}

func (h *Handler) handleTimeAdvance(w http.ResponseWriter, r *http.Request) {
	if h.clock == nil {
		twincore.Error(w, http.StatusBadRequest, "simulated clock not configured")
		return
	}

	var req struct {
		Duration string `json:"duration"` // Go duration string, e.g. "24h"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twincore.Error(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		twincore.Error(w, http.StatusBadRequest, "invalid duration: "+err.Error())
		return
	}
	if d < 0 {
		twincore.Error(w, http.StatusBadRequest, "duration must not be negative")
		return
	}

	h.clock.Advance(d)
	twincore.JSON(w, http.StatusOK, map[string]any{
		"status":    "advanced",
		"duration":  d.String(),
		"offset":    h.clock.Offset().String(),
		"simulated": h.clock.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleGetTime(w http.ResponseWriter, r *http.Request) {
	if h.clock == nil {
		twincore.JSON(w, http.StatusOK, map[string]any{
			"real": time.Now().Format(time.RFC3339),
		})
		return
	}
	twincore.JSON(w, http.StatusOK, map[string]any{
		"real":      time.Now().Format(time.RFC3339),
		"simulated": h.clock.Now().Format(time.RFC3339),
		"offset":    h.clock.Offset().String(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		twincore.Error(w, http.StatusNotImplemented, "config provider not configured")
		return
	}
	twincore.JSON(w, http.StatusOK, h.config.GetConfig())
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil {
		twincore.Error(w, http.StatusNotImplemented, "config provider not configured")
		return
	}
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		twincore.Error(w, http.StatusBadRequest, "invalid config: "+err.Error())
		return
	}
	if err := h.config.UpdateConfig(updates); err != nil {
		twincore.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	twincore.JSON(w, http.StatusOK, h.config.GetConfig())
}
