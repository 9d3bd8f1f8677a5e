package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/insightdb/insightdb/internal/agent"
	"github.com/insightdb/insightdb/internal/handler"
	"github.com/insightdb/insightdb/internal/insight"
	"github.com/insightdb/insightdb/internal/llm"
	"github.com/insightdb/insightdb/internal/middleware"
	"github.com/insightdb/insightdb/internal/security"
	"github.com/insightdb/insightdb/internal/service"
)

// setupRoutes returns (router, db, error) so the database pool can be
// closed on shutdown
func (s *Server) setupRoutes() (http.Handler, *service.Postgres, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Services ───────────────────────────────────────────────────────────────
	db, err := service.New(ctx, cfg.DatabaseURL, cfg.MaxOpenConns, cfg.QueryTimeoutMs)
	if err != nil {
		return nil, nil, err
	}

	registry, err := db.IntrospectSchema(ctx)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Msg("service configuration")

	if cfg.AnthropicAPIKey == "" {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - insight requests will fail")
	}
	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Security ───────────────────────────────────────────────────────────────
	gate := security.NewSafetyGate()
	stats := security.NewQueryStats(cfg.MaxResultRows)
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	var piiDetector *security.PIIDetector
	if cfg.EnablePIIDetection {
		piiDetector = security.NewPIIDetector(cfg.PIIKeywords)
	}
	var dataMasker *security.DataMasker
	if cfg.EnableDataMasking {
		dataMasker = security.NewDataMasker(cfg.SensitiveColumns)
	}

	// ─── AI ──────────────────────────────────────────────────────────────────────
	client := llm.NewClient(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL, cfg.LLMTimeoutSec)
	descAgent := agent.NewAgent(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL, cfg.AgentMaxSteps)
	descriptive := agent.NewHandler(descAgent, registry, db, gate, auditLogger)

	pipeline := insight.NewPipeline(insight.PipelineDeps{
		Classifier:  insight.NewClassifier(client),
		Synthesizer: insight.NewSynthesizer(client, registry),
		Formatter:   insight.NewFormatter(registry),
		Generator:   insight.NewGenerator(client),
		Cache:       insight.NewCache(cfg.CacheMaxEntries),
		Gate:        gate,
		DB:          db,
		Stats:       stats,
		Audit:       auditLogger,
		PII:         piiDetector,
		Masker:      dataMasker,
		Descriptive: descriptive,
	})

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(db)
	insightH := handler.NewInsightHandler(pipeline, cfg.MaxQuestionLength)
	tablesH := handler.NewTablesHandler(registry)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Post("/get-insight", insightH.GetInsight)

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Get("/tables", tablesH.ListTables)
			r.Get("/tables/{table}", tablesH.GetTable)
		})
	})

	return r, db, nil
}
