package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insightdb/insightdb/internal/models"
	"github.com/insightdb/insightdb/internal/schema"
)

// TablesHandler serves read-only views of the introspected schema
type TablesHandler struct {
	registry *schema.Descriptor
}

func NewTablesHandler(registry *schema.Descriptor) *TablesHandler {
	return &TablesHandler{registry: registry}
}

// ListTables handles GET /api/v1/tables
func (h *TablesHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.registry.Tables()
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"tables": tables,
		"count":  len(tables),
	})
}

// GetTable handles GET /api/v1/tables/{table}
func (h *TablesHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	columns, ok := h.registry.Columns(table)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "table not found: "+table)
		return
	}

	fields := make([]map[string]interface{}, len(columns))
	for i, c := range columns {
		fields[i] = map[string]interface{}{
			"name":        c.Name,
			"type":        c.Type,
			"primary_key": c.PrimaryKey,
			"references":  c.References,
		}
	}

	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"table":   table,
		"columns": fields,
	})
}
