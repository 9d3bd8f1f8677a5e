package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/insightdb/insightdb/internal/models"
)

// InsightPipeline resolves a question to a response envelope. Pipeline
// outcomes are never transport errors: blocked and failed requests carry
// their explanation inside the envelope.
type InsightPipeline interface {
	Answer(ctx context.Context, question string) *models.InsightResponse
}

// InsightHandler handles POST /get-insight
type InsightHandler struct {
	pipeline    InsightPipeline
	maxQuestion int
}

func NewInsightHandler(pipeline InsightPipeline, maxQuestionLength int) *InsightHandler {
	return &InsightHandler{pipeline: pipeline, maxQuestion: maxQuestionLength}
}

// GetInsight handles POST /get-insight. Malformed requests are the only
// non-200 outcome; everything past decoding returns the envelope.
func (h *InsightHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	var req models.InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	question := strings.TrimSpace(req.Query)
	if question == "" {
		models.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	if h.maxQuestion > 0 && len(question) > h.maxQuestion {
		models.WriteError(w, http.StatusBadRequest, "query exceeds maximum length")
		return
	}

	resp := h.pipeline.Answer(r.Context(), question)
	models.WriteJSON(w, http.StatusOK, resp)
}
