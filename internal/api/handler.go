package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/anchorlab/anchorlab/internal/memory"
	"github.com/anchorlab/anchorlab/internal/orchestrator"
	"github.com/anchorlab/anchorlab/internal/profile"
	"github.com/anchorlab/anchorlab/internal/store"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers. Handlers are thin glue;
// all behavior lives in the packages they delegate to.
type Handler struct {
	mixer  *profile.Mixer
	memory *memory.Store
	orch   *orchestrator.Orchestrator
	seeds  *store.Store
	logger *zap.Logger
}

// NewHandler creates a new API handler. seeds may be nil when Postgres
// is not configured; seed routes then answer 503.
func NewHandler(
	mixer *profile.Mixer,
	mem *memory.Store,
	orch *orchestrator.Orchestrator,
	seeds *store.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		mixer:  mixer,
		memory: mem,
		orch:   orch,
		seeds:  seeds,
		logger: logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Post("/mix", h.mixProfiles)
		r.Get("/profiles", h.listProfiles)

		r.Post("/memories", h.storeMemory)
		r.Post("/memories/retrieve", h.retrieveMemories)
		r.Get("/memories/stats", h.memoryStats)

		r.Get("/agents", h.listAgents)
		r.Get("/agents/{id}", h.getAgent)
		r.Post("/agents/start", h.startAgents)
		r.Post("/agents/{id}/stop", h.stopAgent)

		r.Get("/seeds", h.listSeeds)
		r.Get("/seeds/{id}", h.getSeed)
		r.Delete("/seeds/{id}", h.deleteSeed)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "anchorlab"})
}

type mixRequest struct {
	Combinations []profile.Component `json:"combinations"`
	CustomGoal   string              `json:"custom_goal,omitempty"`
}

func (h *Handler) mixProfiles(w http.ResponseWriter, r *http.Request) {
	var req mixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	mixed, err := h.mixer.Mix(req.Combinations, req.CustomGoal)
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.seeds != nil {
		if err := h.seeds.SaveSeed(r.Context(), mixed); err != nil {
			h.logger.Warn("seed not persisted", zap.String("seed", mixed.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, mixed)
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": h.mixer.Catalog().Names(),
	})
}

type memoryRequest struct {
	Content       string             `json:"content"`
	MemoryType    memory.Type        `json:"memory_type"`
	Importance    float64            `json:"importance"`
	AnchorContext map[string]float64 `json:"anchor_context,omitempty"`
}

func (h *Handler) storeMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	id := h.memory.Store(req.Content, req.MemoryType, req.Importance, req.AnchorContext)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type retrieveRequest struct {
	MemoryType    memory.Type        `json:"memory_type,omitempty"`
	AnchorContext map[string]float64 `json:"anchor_context,omitempty"`
	Limit         int                `json:"limit,omitempty"`
}

func (h *Handler) retrieveMemories(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	results := h.memory.Retrieve(req.MemoryType, req.AnchorContext, req.Limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"memories": results,
		"count":    len(results),
	})
}

func (h *Handler) memoryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.memory.Stats())
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := h.orch.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, c.Status())
}

func (h *Handler) startAgents(w http.ResponseWriter, r *http.Request) {
	// Loops outlive the request, so they run on a background context
	// and are stopped through the orchestrator.
	h.orch.StartAll(context.Background())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "started",
		"agents": h.orch.Len(),
	})
}

func (h *Handler) stopAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.orch.Stop(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orchestrator.ErrUnknownAgent) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"agent_id": id, "status": "stopping"})
}

func (h *Handler) listSeeds(w http.ResponseWriter, r *http.Request) {
	if h.seeds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "seed store not configured"})
		return
	}
	seeds, err := h.seeds.ListSeeds(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, seeds)
}

func (h *Handler) getSeed(w http.ResponseWriter, r *http.Request) {
	if h.seeds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "seed store not configured"})
		return
	}
	id := chi.URLParam(r, "id")
	seed, err := h.seeds.GetSeed(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSeedNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "seed not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, seed)
}

func (h *Handler) deleteSeed(w http.ResponseWriter, r *http.Request) {
	if h.seeds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "seed store not configured"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.seeds.DeleteSeed(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrSeedNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "seed not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
