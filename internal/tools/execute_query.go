package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/insightdb/insightdb/internal/security"
	"github.com/insightdb/insightdb/internal/service"
)

// ExecuteQueryTool runs a read-only query. Every statement passes through
// the safety gate before it reaches the database; a rejection is reported
// back to the model as a tool result rather than an error so the loop can
// recover and rephrase.
func ExecuteQueryTool(gate *security.SafetyGate, db *service.Postgres) Tool {
	return Tool{
		Name:        "execute_safe_query",
		Description: "Execute a read-only SQL SELECT query and return the results. Mutating statements are refused.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sql": map[string]interface{}{
					"type":        "string",
					"description": "The SQL SELECT query to execute",
				},
			},
			"required": []string{"sql"},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			sqlText, _ := input["sql"].(string)
			if sqlText == "" {
				return "", fmt.Errorf("sql is required")
			}

			if ok, keyword := gate.Authorize(sqlText); !ok {
				return fmt.Sprintf("Error: The query was blocked because it contained the forbidden keyword %q.", keyword), nil
			}

			result, err := db.ExecuteQuery(ctx, sqlText)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}

			out := map[string]interface{}{
				"columns":   result.Columns,
				"rows":      result.Rows,
				"row_count": len(result.Rows),
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		},
	}
}
