package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/insightdb/insightdb/internal/tools"
)

// scriptedTurns replays a fixed sequence of model turns and records the
// message history length it was handed on each call.
type scriptedTurns struct {
	turns    []*modelTurn
	err      error
	calls    int
	msgSizes []int
}

func (s *scriptedTurns) Turn(ctx context.Context, system string, messages []anthropic.MessageParam, toolParams []anthropic.ToolUnionUnionParam) (*modelTurn, error) {
	s.msgSizes = append(s.msgSizes, len(messages))
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls
	s.calls++
	if i >= len(s.turns) {
		i = len(s.turns) - 1
	}
	return s.turns[i], nil
}

func toolCallTurn(name string, input map[string]interface{}) *modelTurn {
	return &modelTurn{
		StopReason: "tool_use",
		ToolCalls:  []ToolCall{{ID: "call-1", Name: name, Input: input}},
	}
}

func finalTurn(text string) *modelTurn {
	return &modelTurn{Text: text, StopReason: "end_turn"}
}

func countingTool(name string, reply string, execErr error) (tools.Tool, *int) {
	calls := new(int)
	return tools.Tool{
		Name:        name,
		Description: "test tool",
		InputSchema: map[string]interface{}{"type": "object"},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			*calls++
			return reply, execErr
		},
	}, calls
}

func TestRunReturnsFinalAnswerWithoutTools(t *testing.T) {
	a := &Agent{turns: &scriptedTurns{turns: []*modelTurn{finalTurn("two tables")}}, maxSteps: 5}

	answer, toolsUsed, err := a.Run(context.Background(), "sys", "how many tables", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "two tables" {
		t.Errorf("answer = %q", answer)
	}
	if len(toolsUsed) != 0 {
		t.Errorf("toolsUsed = %v", toolsUsed)
	}
}

func TestRunExecutesToolsThenAnswers(t *testing.T) {
	script := &scriptedTurns{turns: []*modelTurn{
		toolCallTurn("list_tables", map[string]interface{}{}),
		finalTurn("the database has a sales table"),
	}}
	tool, calls := countingTool("list_tables", `{"tables":["sales"]}`, nil)
	a := &Agent{turns: script, maxSteps: 5}

	answer, toolsUsed, err := a.Run(context.Background(), "sys", "what tables exist", []tools.Tool{tool})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "the database has a sales table" {
		t.Errorf("answer = %q", answer)
	}
	if *calls != 1 {
		t.Errorf("tool executed %d times, want 1", *calls)
	}
	if len(toolsUsed) != 1 || toolsUsed[0] != "list_tables" {
		t.Errorf("toolsUsed = %v", toolsUsed)
	}
	// second turn must carry the assistant replay and the tool result
	if len(script.msgSizes) != 2 || script.msgSizes[0] != 1 || script.msgSizes[1] != 3 {
		t.Errorf("message history sizes = %v, want [1 3]", script.msgSizes)
	}
}

func TestRunRecoversToolError(t *testing.T) {
	script := &scriptedTurns{turns: []*modelTurn{
		toolCallTurn("describe_table", map[string]interface{}{"table": "ghost"}),
		finalTurn("that table does not exist"),
	}}
	tool, calls := countingTool("describe_table", "", fmt.Errorf("table is required"))
	a := &Agent{turns: script, maxSteps: 5}

	answer, toolsUsed, err := a.Run(context.Background(), "sys", "describe ghost", []tools.Tool{tool})
	if err != nil {
		t.Fatalf("a failing tool must not abort the loop: %v", err)
	}
	if answer != "that table does not exist" {
		t.Errorf("answer = %q", answer)
	}
	if *calls != 1 || len(toolsUsed) != 1 {
		t.Errorf("calls = %d, toolsUsed = %v", *calls, toolsUsed)
	}
}

func TestRunRecoversUnknownTool(t *testing.T) {
	script := &scriptedTurns{turns: []*modelTurn{
		toolCallTurn("made_up_tool", map[string]interface{}{}),
		finalTurn("recovered"),
	}}
	a := &Agent{turns: script, maxSteps: 5}

	answer, _, err := a.Run(context.Background(), "sys", "q", nil)
	if err != nil {
		t.Fatalf("unknown tool must come back as a tool result, not an error: %v", err)
	}
	if answer != "recovered" {
		t.Errorf("answer = %q", answer)
	}
}

func TestRunBudgetExhaustion(t *testing.T) {
	// the model keeps asking for tools and never finishes
	script := &scriptedTurns{turns: []*modelTurn{
		toolCallTurn("list_tables", map[string]interface{}{}),
	}}
	tool, calls := countingTool("list_tables", "{}", nil)
	a := &Agent{turns: script, maxSteps: 3}

	_, toolsUsed, err := a.Run(context.Background(), "sys", "q", []tools.Tool{tool})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("want ErrBudgetExceeded, got %v", err)
	}
	if *calls != 3 || len(toolsUsed) != 3 {
		t.Errorf("calls = %d, toolsUsed = %v; want one per step", *calls, toolsUsed)
	}
}

func TestRunSurfacesModelError(t *testing.T) {
	a := &Agent{turns: &scriptedTurns{err: fmt.Errorf("overloaded")}, maxSteps: 5}

	_, _, err := a.Run(context.Background(), "sys", "q", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrBudgetExceeded) {
		t.Error("a transport failure is not budget exhaustion")
	}
}
