package tools

import (
	"context"
	"fmt"

	"github.com/insightdb/insightdb/internal/schema"
)

// DescribeTableTool returns the column layout of a single table.
func DescribeTableTool(registry *schema.Descriptor) Tool {
	return Tool{
		Name:        "describe_table",
		Description: "Describe the columns, types, and keys of a single table.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"table": map[string]interface{}{
					"type":        "string",
					"description": "The name of the table to describe",
				},
			},
			"required": []string{"table"},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			table, _ := input["table"].(string)
			if table == "" {
				return "", fmt.Errorf("table is required")
			}

			desc, ok := registry.Describe(table)
			if !ok {
				return fmt.Sprintf("Error: table %q does not exist.", table), nil
			}
			return desc, nil
		},
	}
}
