package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insightdb/insightdb/internal/schema"
	"github.com/insightdb/insightdb/internal/security"
	"github.com/insightdb/insightdb/internal/service"
	"github.com/insightdb/insightdb/internal/tools"
)

const descriptiveSystemPrompt = `You are an assistant answering questions about a SQL database. Given an input question, use the available tools to answer. Only use the given tools. Do not make up any information.

The tools are strictly read-only:
- list_tables: list the tables in the database
- describe_table: show the columns, types, and keys of one table
- execute_safe_query: run a read-only SELECT query; any mutating statement is refused

Think step by step: discover the relevant tables, inspect their structure, query only if needed, then give a clear final answer in plain language.`

// Handler answers descriptive questions with the bounded tool loop. Its
// query tool goes through the same safety gate as the direct pipeline —
// there is no privileged bypass.
type Handler struct {
	agent    *Agent
	registry *schema.Descriptor
	db       *service.Postgres
	gate     *security.SafetyGate
	audit    *security.AuditLogger
}

func NewHandler(agent *Agent, registry *schema.Descriptor, db *service.Postgres, gate *security.SafetyGate, audit *security.AuditLogger) *Handler {
	return &Handler{
		agent:    agent,
		registry: registry,
		db:       db,
		gate:     gate,
		audit:    audit,
	}
}

// Answer runs the loop and returns the final answer text and the number
// of tool invocations made. An exhausted budget surfaces as a
// plain-language failure.
func (h *Handler) Answer(ctx context.Context, question string) (string, int, error) {
	agentTools := []tools.Tool{
		tools.ListTablesTool(h.registry),
		tools.DescribeTableTool(h.registry),
		tools.ExecuteQueryTool(h.gate, h.db),
	}

	start := time.Now()
	answer, toolsUsed, err := h.agent.Run(ctx, descriptiveSystemPrompt, question, agentTools)
	execMs := time.Since(start).Milliseconds()
	h.audit.LogAgentRequest(question, len(toolsUsed), execMs, err == nil)

	if err != nil {
		if errors.Is(err, ErrBudgetExceeded) {
			return "", len(toolsUsed), fmt.Errorf("unable to answer: %w", err)
		}
		return "", len(toolsUsed), err
	}
	return answer, len(toolsUsed), nil
}
