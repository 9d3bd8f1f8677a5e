package security

import (
	"github.com/rs/zerolog/log"
)

// QueryStats records per-query execution telemetry. Postgres has no
// bytes-billed notion, so the tracked cost dimensions are row volume and
// wall-clock duration.
type QueryStats struct {
	maxRows int
}

func NewQueryStats(maxRows int) *QueryStats {
	return &QueryStats{maxRows: maxRows}
}

// CheckLimits returns an error string when a result exceeds the row cap.
// A zero cap disables the check.
func (qs *QueryStats) CheckLimits(rowCount int) (bool, string) {
	if qs.maxRows <= 0 || rowCount <= qs.maxRows {
		return true, ""
	}
	return false, "result too large: query returned more rows than the configured limit"
}

// LogQueryStats logs volume and duration with a hashed SQL identifier.
func (qs *QueryStats) LogQueryStats(sql string, rowCount int, durationMs int64) {
	log.Info().
		Str("event", "query_stats").
		Str("sql_hash", hashStr(sql)[:16]).
		Int("row_count", rowCount).
		Int64("duration_ms", durationMs).
		Msg("query stats")
}
