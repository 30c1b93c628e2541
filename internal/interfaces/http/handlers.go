package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/risk"
)

// Handlers holds the request handlers and their collaborators.
type Handlers struct {
	validator *risk.Validator
}

// NewHandlers creates the handler set around a validator.
func NewHandlers(validator *risk.Validator) *Handlers {
	return &Handlers{validator: validator}
}

// validateRequest is the wire payload for POST /v1/risk/validate.
type validateRequest struct {
	Signal    risk.SignalRequest  `json:"signal"`
	Portfolio risk.PortfolioState `json:"portfolio"`
}

// ValidateSignal runs the risk gate on a candidate signal. A rejected signal
// is a 200 with passed=false; only malformed payloads are client errors.
func (h *Handlers) ValidateSignal(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result := h.validator.Validate(req.Signal, req.Portfolio)
	writeJSON(w, http.StatusOK, result)
}

// GateStats returns the validator's usage counters.
func (h *Handlers) GateStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.validator.Stats())
}

// Health is a liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
