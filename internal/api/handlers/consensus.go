package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/5ys-5y5/alsign-sub001/internal/consensus"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
)

// ConsensusHandler handles consensus signal API endpoints.
type ConsensusHandler struct {
	store    contracts.ConsensusEventStore
	resolver *consensus.Resolver
	logger   *logger.Logger
}

// NewConsensusHandler creates a new consensus handler.
func NewConsensusHandler(store contracts.ConsensusEventStore, resolver *consensus.Resolver, log *logger.Logger) *ConsensusHandler {
	return &ConsensusHandler{
		store:    store,
		resolver: resolver,
		logger:   log,
	}
}

// GetEvent returns one consensus event by id.
// GET /api/consensus/events/{id}
func (h *ConsensusHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	event, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    event,
	})
}

// ResolveRequest selects what to resolve. With a partition key the single
// partition is resolved; with none every known partition is backfilled.
type ResolveRequest struct {
	Ticker         string `json:"ticker,omitempty"`
	AnalystName    string `json:"analyst_name,omitempty"`
	AnalystCompany string `json:"analyst_company,omitempty"`
}

// Resolve links events to their previous publication and persists the
// revision signals.
// POST /api/consensus/resolve
func (h *ConsensusHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ResolveRequest
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	// A partial key would silently resolve the wrong partition, so require
	// all three fields or none.
	keyed := req.Ticker != "" || req.AnalystName != "" || req.AnalystCompany != ""
	if keyed && (req.Ticker == "" || req.AnalystName == "" || req.AnalystCompany == "") {
		respondError(w, http.StatusBadRequest, "partition key requires ticker, analyst_name and analyst_company")
		return
	}

	if keyed {
		resolved, err := h.resolver.Resolve(ctx, contracts.PartitionKey{
			Ticker:         req.Ticker,
			AnalystName:    req.AnalystName,
			AnalystCompany: req.AnalystCompany,
		})
		if err != nil {
			h.logger.WithError(err).Error("Partition resolve failed")
			respondError(w, http.StatusInternalServerError, "resolve failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"events":  len(resolved),
			"data":    resolved,
		})
		return
	}

	total, err := h.resolver.ResolveAll(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Consensus backfill failed")
		respondError(w, http.StatusInternalServerError, "resolve failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  total,
	})
}
