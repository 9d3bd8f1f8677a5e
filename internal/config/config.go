package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Database
	DatabaseURL    string `json:"database_url"`
	QueryTimeoutMs int    `json:"query_timeout_ms"`
	MaxOpenConns   int    `json:"max_open_conns"`
	MaxResultRows  int    `json:"max_result_rows"`

	// Security
	MaxQuestionLength  int      `json:"max_question_length"`
	EnableDataMasking  bool     `json:"enable_data_masking"`
	EnablePIIDetection bool     `json:"enable_pii_detection"`
	SensitiveColumns   []string `json:"sensitive_columns"`
	PIIKeywords        []string `json:"pii_keywords"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`

	// AI / LLM
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"` // override for custom proxy
	Model            string `json:"model"`
	LLMTimeoutSec    int    `json:"llm_timeout_sec"`
	AgentMaxSteps    int    `json:"agent_max_steps"`

	// Response cache
	CacheMaxEntries int `json:"cache_max_entries"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		APIKeyHeader:       "X-API-Key",
		EnableAuth:         false,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		QueryTimeoutMs:     DefaultQueryTimeoutMs,
		MaxOpenConns:       DefaultMaxOpenConns,
		MaxResultRows:      DefaultMaxResultRows,
		MaxQuestionLength:  DefaultMaxQuestionLength,
		EnableDataMasking:  true,
		EnablePIIDetection: true,
		SensitiveColumns:   DefaultSensitiveColumns,
		PIIKeywords:        DefaultPIIKeywords,
		EnableAuditLogging: true,
		LLMTimeoutSec:      DefaultLLMTimeoutSec,
		AgentMaxSteps:      DefaultAgentMaxSteps,
		CacheMaxEntries:    DefaultCacheMaxEntries,
	}

	// Load from JSON config file if specified
	if path := getEnv("INSIGHTDB_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("INSIGHTDB_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("INSIGHTDB_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("INSIGHTDB_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("INSIGHTDB_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("INSIGHTDB_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("INSIGHTDB_MODEL", ""); v != "" {
		cfg.Model = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("QUERY_TIMEOUT_MS", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.QueryTimeoutMs = t
		}
	}
	if v := getEnv("AGENT_MAX_STEPS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AgentMaxSteps = n
		}
	}
	if v := getEnv("CACHE_MAX_ENTRIES", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheMaxEntries = n
		}
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
