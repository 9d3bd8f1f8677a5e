package insight

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/insightdb/insightdb/internal/models"
	"github.com/insightdb/insightdb/internal/security"
	"github.com/insightdb/insightdb/internal/service"
)

const (
	destructiveMessage  = "Error: This request has been blocked as it was identified as potentially destructive."
	classifyFailMessage = "An error occurred while processing your request: the question could not be classified."
	emptyResultMessage  = "The query executed successfully but returned no results."
)

// DescriptiveAgent answers schema and metadata questions with a bounded
// tool loop. The pipeline only needs the final answer and the step count.
type DescriptiveAgent interface {
	Answer(ctx context.Context, question string) (string, int, error)
}

// Pipeline drives a question through classification, synthesis, the
// safety gate, execution, and presentation. Answer never returns an
// error: every outcome is expressed as a response envelope.
type Pipeline struct {
	classifier  *Classifier
	synthesizer *Synthesizer
	formatter   *Formatter
	generator   *Generator
	cache       *Cache
	gate        *security.SafetyGate
	db          *service.Postgres
	stats       *security.QueryStats
	audit       *security.AuditLogger
	pii         *security.PIIDetector
	masker      *security.DataMasker
	descriptive DescriptiveAgent

	group singleflight.Group
}

// PipelineDeps bundles the collaborators wired in by the server.
type PipelineDeps struct {
	Classifier  *Classifier
	Synthesizer *Synthesizer
	Formatter   *Formatter
	Generator   *Generator
	Cache       *Cache
	Gate        *security.SafetyGate
	DB          *service.Postgres
	Stats       *security.QueryStats
	Audit       *security.AuditLogger
	PII         *security.PIIDetector
	Masker      *security.DataMasker
	Descriptive DescriptiveAgent
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		classifier:  deps.Classifier,
		synthesizer: deps.Synthesizer,
		formatter:   deps.Formatter,
		generator:   deps.Generator,
		cache:       deps.Cache,
		gate:        deps.Gate,
		db:          deps.DB,
		stats:       deps.Stats,
		audit:       deps.Audit,
		pii:         deps.PII,
		masker:      deps.Masker,
		descriptive: deps.Descriptive,
	}
}

// Answer resolves a question to a response envelope. Concurrent callers
// asking the same question share one execution.
func (p *Pipeline) Answer(ctx context.Context, question string) *models.InsightResponse {
	v, _, _ := p.group.Do(question, func() (interface{}, error) {
		return p.answer(ctx, question), nil
	})
	return v.(*models.InsightResponse)
}

func (p *Pipeline) answer(ctx context.Context, question string) *models.InsightResponse {
	if p.pii != nil {
		if found, keyword := p.pii.Detect(question); found {
			msg := fmt.Sprintf("Error: This request has been blocked because it asks for sensitive personal data (%s).", keyword)
			return models.BlockedResponse(question, msg)
		}
	}

	// The answer to a repeated question does not depend on
	// re-classification, so the cache is probed across all intents
	// before any model call is made.
	if cached, intent, ok := p.cache.Lookup(question); ok {
		log.Debug().Str("intent", string(intent)).Msg("cache hit")
		return cached
	}

	intent, err := p.classifier.Classify(ctx, question)
	if err != nil {
		if errors.Is(err, ErrClassificationParse) {
			log.Warn().Err(err).Msg("classifier returned unusable output")
		} else {
			log.Error().Err(err).Msg("classification failed")
		}
		return models.FailureResponse(question, "N/A", classifyFailMessage)
	}

	switch intent {
	case models.IntentDestructive:
		p.audit.LogGateRejection("", question, "intent")
		return models.BlockedResponse(question, destructiveMessage)
	case models.IntentDescriptive:
		return p.answerDescriptive(ctx, question)
	default:
		return p.answerDataQuery(ctx, question)
	}
}

func (p *Pipeline) answerDataQuery(ctx context.Context, question string) *models.InsightResponse {
	sqlText, err := p.synthesizer.Synthesize(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("sql synthesis failed")
		msg := "An error occurred while processing your request: " + err.Error()
		return models.FailureResponse(question, "N/A", msg)
	}

	if ok, keyword := p.gate.Authorize(sqlText); !ok {
		p.audit.LogGateRejection(sqlText, question, keyword)
		msg := fmt.Sprintf("Error: The generated query was blocked because it contained the forbidden keyword %q.", keyword)
		return models.FailureResponse(question, sqlText, msg)
	}

	result, err := p.db.ExecuteQuery(ctx, sqlText)
	if err != nil {
		p.audit.LogQuery(sqlText, question, 0, 0, false, err.Error())
		msg := "An error occurred while processing your request: " + err.Error()
		return models.FailureResponse(question, sqlText, msg)
	}
	p.audit.LogQuery(sqlText, question, result.ExecutionTimeMs, len(result.Rows), true, "")
	p.stats.LogQueryStats(sqlText, len(result.Rows), result.ExecutionTimeMs)

	if ok, msg := p.stats.CheckLimits(len(result.Rows)); !ok {
		return models.FailureResponse(question, sqlText, msg)
	}

	if len(result.Rows) == 0 {
		resp := &models.InsightResponse{
			Query:      question,
			SQL:        sqlText,
			Data:       []models.Row{},
			Narrative:  emptyResultMessage,
			Bullets:    []string{},
			ChartType:  p.generator.ChartType(ctx, question, result.Columns, nil),
			AxisTitles: &models.AxisTitles{},
			Error:      nil,
		}
		p.cache.Put(question, models.IntentDataQuery, resp)
		return resp
	}

	table := InferTable(sqlText)
	rows := p.formatter.Format(result.Rows, table)
	if p.masker != nil {
		rows = p.masker.MaskRows(rows)
	}

	narrative, bullets := p.generator.Summarize(ctx, question, rows)
	if bullets == nil {
		bullets = []string{}
	}
	axes := p.generator.AxisTitles(ctx, question, sqlText, result.Columns)
	chart := p.generator.ChartType(ctx, question, result.Columns, rows)

	resp := &models.InsightResponse{
		Query:      question,
		SQL:        sqlText,
		Data:       rows,
		Narrative:  narrative,
		Bullets:    bullets,
		ChartType:  chart,
		AxisTitles: &axes,
		Error:      nil,
	}
	p.cache.Put(question, models.IntentDataQuery, resp)
	return resp
}

func (p *Pipeline) answerDescriptive(ctx context.Context, question string) *models.InsightResponse {
	answer, steps, err := p.descriptive.Answer(ctx, question)
	if err != nil {
		log.Error().Err(err).Int("steps", steps).Msg("descriptive agent failed")
		msg := "An error occurred while processing your request: " + err.Error()
		return models.FailureResponse(question, "N/A", msg)
	}

	resp := &models.InsightResponse{
		Query:      question,
		SQL:        "N/A",
		Data:       []models.Row{},
		Narrative:  answer,
		Bullets:    []string{},
		ChartType:  models.ChartNone,
		AxisTitles: &models.AxisTitles{},
		Error:      nil,
	}
	p.cache.Put(question, models.IntentDescriptive, resp)
	return resp
}
