package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insightdb/insightdb/internal/llm"
	"github.com/insightdb/insightdb/internal/models"
	"github.com/rs/zerolog/log"
)

// Generator derives the narrative, axis titles, and chart recommendation
// from a formatted result set. Every call here is advisory: a malformed
// or failed model reply degrades to a deterministic fallback and is never
// surfaced to the caller.
type Generator struct {
	llm Completer
}

func NewGenerator(llm Completer) *Generator {
	return &Generator{llm: llm}
}

// Summarize produces a short narrative and bullet highlights. Fallback:
// a row-count summary with no bullets.
func (g *Generator) Summarize(ctx context.Context, question string, rows []models.Row) (string, []string) {
	fallback := fmt.Sprintf("The query returned %d row(s).", len(rows))

	data, err := json.Marshal(rows)
	if err != nil {
		return fallback, nil
	}
	prompt := fmt.Sprintf(
		"Given the user's question: '%s' and the following data: '%s', "+
			"write a brief summary insight (1-2 sentences) as 'summary', and if there are any key findings, "+
			"list them as bullet points in a 'bullets' array. "+
			"Respond in JSON with keys 'summary' and 'bullets'.",
		question, data)

	text, err := g.llm.Complete(ctx, "", prompt)
	if err != nil {
		log.Warn().Err(err).Msg("narrative generation failed, using fallback")
		return fallback, nil
	}

	var reply struct {
		Summary string   `json:"summary"`
		Bullets []string `json:"bullets"`
	}
	raw := llm.ExtractJSON(text)
	if raw == "" || json.Unmarshal([]byte(raw), &reply) != nil || reply.Summary == "" {
		return fallback, nil
	}
	return reply.Summary, reply.Bullets
}

// AxisTitles suggests chart axis labels. Fallback: the first and second
// column names, or empty strings where the result has fewer columns.
func (g *Generator) AxisTitles(ctx context.Context, question, sql string, columns []string) models.AxisTitles {
	fallback := models.AxisTitles{}
	if len(columns) > 0 {
		fallback.X = columns[0]
	}
	if len(columns) > 1 {
		fallback.Y = columns[1]
	}

	cols, err := json.Marshal(columns)
	if err != nil {
		return fallback
	}
	prompt := fmt.Sprintf(
		"Given the user's question: '%s', the SQL query: '%s', and the column names: %s, "+
			"suggest the best X and Y axis titles for a chart visualizing this data. "+
			"Respond in JSON as: {\"x\": <x axis title>, \"y\": <y axis title>}.",
		question, sql, cols)

	text, err := g.llm.Complete(ctx, "", prompt)
	if err != nil {
		log.Warn().Err(err).Msg("axis title generation failed, using fallback")
		return fallback
	}

	var reply struct {
		X *string `json:"x"`
		Y *string `json:"y"`
	}
	raw := llm.ExtractJSON(text)
	if raw == "" || json.Unmarshal([]byte(raw), &reply) != nil || reply.X == nil || reply.Y == nil {
		return fallback
	}
	return models.AxisTitles{X: *reply.X, Y: *reply.Y}
}

var recognizedCharts = map[string]bool{
	models.ChartKPI:   true,
	models.ChartBar:   true,
	models.ChartPie:   true,
	models.ChartTable: true,
}

// ChartType recommends a chart for the result set. A reply outside the
// four recognized labels degrades to "table"; a failed call degrades to
// the deterministic shape heuristic.
func (g *Generator) ChartType(ctx context.Context, question string, columns []string, rows []models.Row) string {
	data, err := json.Marshal(rows)
	if err != nil {
		return HeuristicChart(columns, rows)
	}
	prompt := fmt.Sprintf(
		"Given the user's question: '%s' and the following data: '%s', "+
			"recommend the best chart type to visualize the answer. "+
			"Choose one from: 'kpi', 'bar', 'pie', 'table'. "+
			"Respond ONLY with the chart type.",
		question, data)

	text, err := g.llm.Complete(ctx, "", prompt)
	if err != nil {
		log.Warn().Err(err).Msg("chart recommendation failed, using heuristic")
		return HeuristicChart(columns, rows)
	}

	chart := strings.ToLower(strings.Trim(strings.TrimSpace(text), `"'.`))
	if !recognizedCharts[chart] {
		return models.ChartTable
	}
	return chart
}

// HeuristicChart picks a chart purely from result shape: nothing → none,
// a single value → kpi, a categorical column with a numeric second column
// → pie for small sets, bar otherwise, and table for everything else.
func HeuristicChart(columns []string, rows []models.Row) string {
	if len(rows) == 0 {
		return models.ChartNone
	}
	if len(rows) == 1 && len(columns) == 1 {
		return models.ChartKPI
	}
	if len(columns) >= 2 {
		if _, ok := numericValue(rows[0][columns[1]]); ok {
			if len(rows) > 2 && len(rows) <= 7 {
				return models.ChartPie
			}
			return models.ChartBar
		}
	}
	return models.ChartTable
}
