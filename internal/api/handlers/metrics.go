package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/internal/engine"
	"github.com/5ys-5y5/alsign-sub001/internal/provider"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
	"github.com/5ys-5y5/alsign-sub001/pkg/redis"
)

// MetricsHandler handles metric engine API endpoints. The engine reference is
// swapped atomically on reload; in-flight evaluations keep the catalog they
// started with.
type MetricsHandler struct {
	mu          sync.RWMutex
	engine      *engine.Engine
	catalogPath string

	source   contracts.RecordSource
	results  contracts.ResultStore
	cache    *redis.Cache
	cacheTTL time.Duration
	lookback int
	logger   *logger.Logger
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(
	eng *engine.Engine,
	catalogPath string,
	source contracts.RecordSource,
	results contracts.ResultStore,
	cache *redis.Cache,
	cacheTTL time.Duration,
	lookback int,
	log *logger.Logger,
) *MetricsHandler {
	return &MetricsHandler{
		engine:      eng,
		catalogPath: catalogPath,
		source:      source,
		results:     results,
		cache:       cache,
		cacheTTL:    cacheTTL,
		lookback:    lookback,
		logger:      log,
	}
}

func (h *MetricsHandler) currentEngine() *engine.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// GetCatalog returns the loaded metric definitions and their evaluation order.
// GET /api/metrics/catalog
func (h *MetricsHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	eng := h.currentEngine()
	cat := eng.Catalog()

	hash, err := catalog.Hash(cat)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash catalog")
		respondError(w, http.StatusInternalServerError, "Failed to fingerprint catalog")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"hash":    hash,
		"order":   cat.Order(),
		"metrics": cat.Definitions(),
	})
}

// ReloadCatalog re-reads the catalog file and swaps in a new engine. A
// validation failure leaves the running catalog untouched.
// POST /api/metrics/catalog/reload
func (h *MetricsHandler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	cat, _, err := catalog.LoadFile(h.catalogPath)
	if err != nil {
		h.logger.WithError(err).Error("Catalog reload failed")
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("catalog validation failed: %v", err))
		return
	}

	h.mu.Lock()
	h.engine = engine.New(cat, h.logger.Zerolog())
	h.mu.Unlock()

	h.logger.WithField("metrics", cat.Len()).Info("Catalog reloaded")
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"metrics": cat.Len(),
	})
}

// ComputeRequest is the request body for on-demand computation. Raw may be
// omitted when the server has a record source configured.
type ComputeRequest struct {
	Ticker    string                        `json:"ticker"`
	EventDate string                        `json:"event_date"` // YYYY-MM-DD
	Raw       map[string]contracts.RawField `json:"raw,omitempty"`
	Persist   bool                          `json:"persist,omitempty"`
}

// Compute evaluates the full metric graph for one event.
// POST /api/metrics/compute
func (h *MetricsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "event_date must be YYYY-MM-DD")
		return
	}

	eng := h.currentEngine()

	ev := contracts.EventContext{
		Ticker:    req.Ticker,
		EventDate: eventDate,
		Raw:       req.Raw,
	}
	if ev.Raw == nil {
		if h.source == nil {
			respondError(w, http.StatusBadRequest, "raw payload is required (no record source configured)")
			return
		}
		built, err := provider.BuildEventContext(ctx, h.source, eng.Catalog(), req.Ticker, eventDate, h.lookback)
		if err != nil {
			h.logger.WithError(err).Error("Failed to fetch records")
			respondError(w, http.StatusBadGateway, "failed to fetch provider records")
			return
		}
		ev = *built
	}

	result, err := eng.EvaluateEvent(ctx, ev)
	if err != nil {
		h.logger.WithError(err).Error("Evaluation failed")
		respondError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	if req.Persist && h.results != nil {
		if err := h.results.SaveDocument(ctx, result); err != nil {
			h.logger.WithError(err).Error("Failed to persist document")
		}
	}
	if h.cache != nil {
		key := documentCacheKey(result.Ticker, result.EventDate)
		if err := h.cache.Set(ctx, key, result, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache document")
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

// GetDocument returns the persisted document for an event.
// GET /api/metrics/documents/{ticker}?event_date=YYYY-MM-DD
func (h *MetricsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticker := mux.Vars(r)["ticker"]
	eventDate, err := time.Parse("2006-01-02", r.URL.Query().Get("event_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "event_date must be YYYY-MM-DD")
		return
	}

	if h.cache != nil {
		var cached contracts.EventResult
		found, err := h.cache.Get(ctx, documentCacheKey(ticker, eventDate), &cached)
		if err == nil && found {
			respondJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    cached,
				"cached":  true,
			})
			return
		}
	}

	if h.results == nil {
		respondError(w, http.StatusNotFound, "no result store configured")
		return
	}

	result, err := h.results.GetDocument(ctx, ticker, eventDate)
	if err != nil {
		respondError(w, http.StatusNotFound, "document not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    result,
	})
}

func documentCacheKey(ticker string, eventDate time.Time) string {
	return fmt.Sprintf("doc:%s:%s", ticker, eventDate.Format("2006-01-02"))
}
