package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/insightdb/insightdb/internal/models"
)

const version = "1.0.0"

// HealthChecker is implemented by services that can report connectivity
type HealthChecker interface {
	TestConnection(ctx context.Context) error
}

// HealthHandler handles GET /health with a database connectivity check
type HealthHandler struct {
	db HealthChecker
}

func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Use a short timeout for health checks so they don't block
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.TestConnection(ctx); err != nil {
			checks["database"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "disabled"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
