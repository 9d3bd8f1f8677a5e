package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers so
// raw SQL and questions never land in the logs verbatim.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogQuery records a query execution event.
func (a *AuditLogger) LogQuery(sql, question string, executionTimeMs int64, rowCount int, success bool, errMsg string) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "query_audit").
		Str("sql_hash", hashStr(sql)[:16]).
		Str("question_hash", hashStr(question)[:16]).
		Int64("execution_time_ms", executionTimeMs).
		Int("row_count", rowCount).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogGateRejection records a safety-gate rejection.
func (a *AuditLogger) LogGateRejection(sql, question, keyword string) {
	if !a.enabled {
		return
	}
	log.Warn().
		Str("event", "gate_rejection").
		Str("sql_hash", hashStr(sql)[:16]).
		Str("question_hash", hashStr(question)[:16]).
		Str("keyword", keyword).
		Msg("audit")
}

// LogAgentRequest records a descriptive-agent run.
func (a *AuditLogger) LogAgentRequest(question string, steps int, executionTimeMs int64, success bool) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "agent_audit").
		Str("question_hash", hashStr(question)[:16]).
		Int("steps", steps).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success).
		Msg("agent audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
