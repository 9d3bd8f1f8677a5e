package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultQueryTimeoutMs = 60000
	DefaultMaxOpenConns   = 10
	DefaultMaxResultRows  = 10000

	DefaultMaxQuestionLength = 2000

	DefaultLLMTimeoutSec   = 60
	DefaultAgentMaxSteps   = 10
	DefaultCacheMaxEntries = 1024

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

var DefaultSensitiveColumns = []string{
	"email", "phone", "ssn", "social_security_number",
	"credit_card", "password", "secret", "token",
	"api_key", "access_key", "private_key",
}

var DefaultPIIKeywords = []string{
	"password", "ssn", "social security", "credit card",
	"bank account", "pin", "secret", "private key",
	"access token", "api key",
}
