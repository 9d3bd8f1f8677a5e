package agent

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/insightdb/insightdb/internal/schema"
	"github.com/insightdb/insightdb/internal/security"
	"github.com/insightdb/insightdb/internal/service"
)

func newTestHandler(t *testing.T, turns turnClient, maxSteps int) *Handler {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry := schema.NewDescriptor(
		[]string{"sales"},
		map[string][]schema.Column{
			"sales": {{Name: "month", Type: "text"}},
		},
	)
	return NewHandler(
		&Agent{turns: turns, maxSteps: maxSteps},
		registry,
		service.NewWithDB(db, 1000),
		security.NewSafetyGate(),
		security.NewAuditLogger(false),
	)
}

func TestHandlerAnswer(t *testing.T) {
	script := &scriptedTurns{turns: []*modelTurn{
		toolCallTurn("list_tables", map[string]interface{}{}),
		finalTurn("one table, sales"),
	}}
	h := newTestHandler(t, script, 5)

	answer, steps, err := h.Answer(context.Background(), "what tables exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "one table, sales" {
		t.Errorf("answer = %q", answer)
	}
	if steps != 1 {
		t.Errorf("steps = %d, want 1", steps)
	}
}

func TestHandlerBudgetFailure(t *testing.T) {
	script := &scriptedTurns{turns: []*modelTurn{
		toolCallTurn("list_tables", map[string]interface{}{}),
	}}
	h := newTestHandler(t, script, 2)

	_, steps, err := h.Answer(context.Background(), "what tables exist")
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("want ErrBudgetExceeded, got %v", err)
	}
	if steps != 2 {
		t.Errorf("steps = %d, want 2", steps)
	}
}
