package tools

import (
	"context"
	"encoding/json"

	"github.com/insightdb/insightdb/internal/schema"
)

// ListTablesTool returns the names of all tables known to the registry.
func ListTablesTool(registry *schema.Descriptor) Tool {
	return Tool{
		Name:        "list_tables",
		Description: "List the names of all tables in the database.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			out := map[string]interface{}{
				"tables": registry.Tables(),
			}
			b, _ := json.Marshal(out)
			return string(b), nil
		},
	}
}
