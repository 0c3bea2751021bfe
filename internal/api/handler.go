package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/admission"
	"github.com/nidhogg/mentat/internal/attention"
	"github.com/nidhogg/mentat/internal/runner"
	"github.com/nidhogg/mentat/internal/vectorstore"
)

// Handler exposes the operational inspection surface: attention values,
// bank balance, forced cycles and ad-hoc scheduling. The core engine has
// no wire protocol of its own; this is the ops window into it.
type Handler struct {
	engine    *attention.Engine
	scheduler *admission.Scheduler
	runner    *runner.Runner
	index     *vectorstore.Index
	logger    *zap.Logger
}

// NewHandler creates an API handler. runner and index may be nil; the
// corresponding endpoints degrade to 503.
func NewHandler(engine *attention.Engine, scheduler *admission.Scheduler, r *runner.Runner, index *vectorstore.Index, logger *zap.Logger) *Handler {
	return &Handler{
		engine:    engine,
		scheduler: scheduler,
		runner:    r,
		index:     index,
		logger:    logger,
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
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/bank", h.getBank)
		r.Get("/attention", h.listAttention)
		r.Get("/attention/{id}", h.getAttention)
		r.Post("/cycle", h.forceCycle)
		r.Post("/schedule", h.schedule)
		r.Post("/nodes/similar", h.similarNodes)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getBank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bank":  h.engine.Bank(),
		"nodes": h.engine.Size(),
	})
}

type attentionEntry struct {
	NodeID string `json:"node_id"`
	attention.AttentionValue
}

// listAttention returns stored values ordered by STI descending, capped by
// the limit query parameter (default 50).
func (h *Handler) listAttention(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	values := h.engine.Values()
	entries := make([]attentionEntry, 0, len(values))
	for id, av := range values {
		entries = append(entries, attentionEntry{NodeID: id, AttentionValue: av})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].STI != entries[j].STI {
			return entries[i].STI > entries[j].STI
		}
		return entries[i].NodeID < entries[j].NodeID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) getAttention(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	av, ok := h.engine.GetAttentionValue(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no attention value for node"})
		return
	}
	writeJSON(w, http.StatusOK, attentionEntry{NodeID: id, AttentionValue: av})
}

func (h *Handler) forceCycle(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cycle runner not configured"})
		return
	}
	stats := h.runner.ForceCycle(r.Context())
	writeJSON(w, http.StatusOK, stats)
}

type scheduleRequest struct {
	Tasks     []*admission.Task        `json:"tasks"`
	Available admission.ResourceVector `json:"available"`
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result := h.scheduler.Schedule(req.Tasks, req.Available)
	writeJSON(w, http.StatusOK, result)
}

type similarRequest struct {
	Vector []float32 `json:"vector"`
	TopK   uint64    `json:"top_k"`
}

func (h *Handler) similarNodes(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "vector index not configured"})
		return
	}
	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.TopK == 0 {
		req.TopK = 10
	}
	hits, err := h.index.SimilarNodes(r.Context(), req.Vector, req.TopK)
	if err != nil {
		h.logger.Warn("similarity search failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "similarity search failed"})
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
