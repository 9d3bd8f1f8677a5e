package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/insightdb/insightdb/internal/handler"
	"github.com/insightdb/insightdb/internal/models"
)

type stubPipeline struct {
	lastQuestion string
}

func (s *stubPipeline) Answer(ctx context.Context, question string) *models.InsightResponse {
	s.lastQuestion = question
	return &models.InsightResponse{
		Query:      question,
		SQL:        "SELECT 1",
		Data:       []models.Row{},
		Narrative:  "ok",
		Bullets:    []string{},
		ChartType:  models.ChartKPI,
		AxisTitles: &models.AxisTitles{},
	}
}

func postInsight(t *testing.T, h *handler.InsightHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/get-insight", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.GetInsight(rr, req)
	return rr
}

func TestGetInsightOK(t *testing.T) {
	stub := &stubPipeline{}
	h := handler.NewInsightHandler(stub, 500)

	rr := postInsight(t, h, `{"query": "how many orders"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if stub.lastQuestion != "how many orders" {
		t.Errorf("question = %q", stub.lastQuestion)
	}

	var resp models.InsightResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SQL != "SELECT 1" || resp.Error != nil {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

func TestGetInsightTrimsWhitespace(t *testing.T) {
	stub := &stubPipeline{}
	h := handler.NewInsightHandler(stub, 500)

	postInsight(t, h, `{"query": "  padded question  "}`)
	if stub.lastQuestion != "padded question" {
		t.Errorf("question = %q", stub.lastQuestion)
	}
}

func TestGetInsightBadRequests(t *testing.T) {
	h := handler.NewInsightHandler(&stubPipeline{}, 20)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query": `},
		{"missing query", `{}`},
		{"blank query", `{"query": "   "}`},
		{"over length", `{"query": "` + strings.Repeat("x", 30) + `"}`},
	}
	for _, tc := range cases {
		rr := postInsight(t, h, tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rr.Code)
		}
	}
}

func TestGetInsightEnvelopeAlwaysHTTP200(t *testing.T) {
	// even a blocked outcome is HTTP 200; the error travels in the envelope
	blocked := blockedPipeline{}
	h := handler.NewInsightHandler(blocked, 500)

	rr := postInsight(t, h, `{"query": "drop the users table"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp models.InsightResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SQL != "BLOCKED" || resp.Error == nil {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

type blockedPipeline struct{}

func (blockedPipeline) Answer(ctx context.Context, question string) *models.InsightResponse {
	return models.BlockedResponse(question, "Error: This request has been blocked as it was identified as potentially destructive.")
}
