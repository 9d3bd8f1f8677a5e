package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Intent is the triage category assigned to an incoming question.
type Intent string

const (
	IntentDataQuery   Intent = "data_query"
	IntentDescriptive Intent = "descriptive_question"
	IntentDestructive Intent = "destructive_request"
)

// Valid reports whether the label is one of the three recognized intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentDataQuery, IntentDescriptive, IntentDestructive:
		return true
	}
	return false
}

// Chart type labels recommended to the caller.
const (
	ChartKPI   = "kpi"
	ChartBar   = "bar"
	ChartPie   = "pie"
	ChartTable = "table"
	ChartNone  = "none"
)

// Row is a single result row keyed by column name. Monetary values are
// replaced by their display rendering, everything else passes through.
type Row map[string]interface{}

// AxisTitles holds suggested chart axis labels.
type AxisTitles struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// InsightResponse is the envelope returned by POST /get-insight for every
// outcome; callers branch on the Error field, never on shape. Bullets and
// AxisTitles are always present so no key ever disappears between
// outcomes.
type InsightResponse struct {
	Query      string      `json:"query"`
	SQL        string      `json:"sql"`
	Data       []Row       `json:"data"`
	Narrative  string      `json:"narrative"`
	Bullets    []string    `json:"bullets"`
	ChartType  string      `json:"chartType"`
	AxisTitles *AxisTitles `json:"axisTitles"`
	Error      *string     `json:"error"`
}

// BlockedResponse builds the envelope for a destructive request.
func BlockedResponse(question, message string) *InsightResponse {
	return &InsightResponse{
		Query:      question,
		SQL:        "BLOCKED",
		Data:       []Row{},
		Narrative:  message,
		Bullets:    []string{},
		ChartType:  ChartNone,
		AxisTitles: &AxisTitles{},
		Error:      &message,
	}
}

// FailureResponse builds the envelope for a pipeline failure. sql carries
// the best-effort partial SQL, or "N/A" when nothing was synthesized.
func FailureResponse(question, sql, message string) *InsightResponse {
	if sql == "" {
		sql = "N/A"
	}
	return &InsightResponse{
		Query:      question,
		SQL:        sql,
		Data:       []Row{},
		Narrative:  message,
		Bullets:    []string{},
		ChartType:  ChartNone,
		AxisTitles: &AxisTitles{},
		Error:      &message,
	}
}
