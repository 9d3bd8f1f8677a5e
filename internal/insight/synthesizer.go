package insight

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdb/insightdb/internal/schema"
)

// Completer is the free-text completion capability.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const synthesizerSystemPrompt = `You are an expert SQL developer writing PostgreSQL queries.
Given a question and the database schema, write ONE SELECT query that answers it.

RULES:
1. Generate only a single SELECT query - never INSERT, UPDATE, DELETE, DROP, or DDL
2. Use only the tables and columns listed in the schema
3. Reply with the SQL query and nothing else - no explanation, no markdown`

// Synthesizer turns a question into one candidate SQL string. The output
// is untrusted: it always goes through the safety gate before execution.
type Synthesizer struct {
	llm      Completer
	registry *schema.Descriptor
}

func NewSynthesizer(llm Completer, registry *schema.Descriptor) *Synthesizer {
	return &Synthesizer{llm: llm, registry: registry}
}

// Synthesize produces the candidate query: LLM output stripped of any
// markdown fencing, then run through the deterministic time-series
// post-processor.
func (s *Synthesizer) Synthesize(ctx context.Context, question string) (string, error) {
	user := fmt.Sprintf("Schema:\n%s\nQuestion: %s", s.registry.Context(), question)
	text, err := s.llm.Complete(ctx, synthesizerSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}

	sql := StripFences(text)
	if sql == "" {
		return "", fmt.Errorf("synthesize: model returned no query")
	}
	return PostprocessTimeSeries(sql), nil
}

// StripFences removes ``` fencing (with optional sql/sqlite/postgresql
// language tags), surrounding whitespace, and a trailing semicolon.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i != -1 {
		body := s[i+3:]
		// drop a language tag on the opening fence line
		if nl := strings.IndexByte(body, '\n'); nl != -1 {
			tag := strings.ToLower(strings.TrimSpace(body[:nl]))
			switch tag {
			case "sql", "sqlite", "postgresql", "postgres", "":
				body = body[nl+1:]
			}
		}
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		s = strings.TrimSpace(body)
	}
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

var (
	reOrderBy = regexp.MustCompile(`(?i)\border\s+by\s+([A-Za-z0-9_." ]+?)(?:\s+(?:asc|desc)\b|\s*$|\s+limit\b)`)
	reLimit   = regexp.MustCompile(`(?i)\s+limit\s+\d+`)
	reDesc    = regexp.MustCompile(`(?i)\bdesc\b`)
)

var timeLikeKeys = []string{"month", "date", "day", "week", "quarter", "year", "time"}

// PostprocessTimeSeries is a fixed transformation applied to every
// candidate query: when the ordering key is time-like, a row limit would
// truncate the series and a descending order would reverse it, so the
// limit is removed and the order is forced ascending. The rule is
// deterministic and independent of how the question was phrased.
func PostprocessTimeSeries(sql string) string {
	m := reOrderBy.FindStringSubmatch(sql)
	if m == nil {
		return sql
	}
	key := strings.ToLower(m[1])
	timeLike := false
	for _, kw := range timeLikeKeys {
		if strings.Contains(key, kw) {
			timeLike = true
			break
		}
	}
	if !timeLike {
		return sql
	}

	sql = reLimit.ReplaceAllString(sql, "")

	// Force ascending order from the ORDER BY clause onward.
	if idx := reOrderBy.FindStringIndex(sql); idx != nil {
		head, tail := sql[:idx[0]], sql[idx[0]:]
		sql = head + reDesc.ReplaceAllString(tail, "ASC")
	}
	return strings.TrimSpace(sql)
}
