package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Provider names accepted for LLM_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds runtime configuration values for the ghostwriter CLI and server.
type Config struct {
	LLMProvider     string
	LLMModel        string
	LLMEndpoint     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Temperature     float64

	TavilyAPIKey string

	GhostURL      string
	GhostAdminKey string

	MinQualityScore     float64
	EnableObservability bool
	EnableEvaluation    bool
	ExportMetrics       bool
	ExportEvaluation    bool
	ExportDir           string

	ArchivePath string

	SentryDSN   string
	Environment string
	LogLevel    string

	ServerPort    int
	ShutdownGrace time.Duration
	RateLimit     RateLimitConfig
}

// RateLimitConfig holds the HTTP rate limiter settings.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultLLMProvider     = ProviderOpenAI
	defaultOpenAIModel     = "gpt-4-turbo-preview"
	defaultAnthropicModel  = "claude-3-5-sonnet-20241022"
	defaultTemperature     = 0.7
	defaultMinQualityScore = 70
	defaultExportDir       = "."
	defaultArchivePath     = "./data/ghostwriter.db"
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultServerPort      = 8080
	defaultShutdownGrace   = 10 * time.Second

	defaultRateLimitRPS   = 1.0
	defaultRateLimitBurst = 5
	defaultRateLimitTTL   = 10 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", defaultLLMProvider)),
		LLMModel:        os.Getenv("LLM_MODEL"),
		LLMEndpoint:     os.Getenv("LLM_ENDPOINT"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		TavilyAPIKey:    os.Getenv("TAVILY_API_KEY"),
		GhostURL:        os.Getenv("GHOST_URL"),
		GhostAdminKey:   os.Getenv("GHOST_ADMIN_API_KEY"),
		ExportDir:       getEnv("EXPORT_DIR", defaultExportDir),
		ArchivePath:     getEnv("ARCHIVE_PATH", defaultArchivePath),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		Environment:     getEnv("ENV", defaultEnvironment),
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		ShutdownGrace:   defaultShutdownGrace,
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModelFor(cfg.LLMProvider)
	}

	temperature, err := parseFloat("LLM_TEMPERATURE", defaultTemperature)
	if err != nil {
		return nil, err
	}
	cfg.Temperature = temperature

	minScore, err := parseFloat("MIN_QUALITY_SCORE", defaultMinQualityScore)
	if err != nil {
		return nil, err
	}
	cfg.MinQualityScore = minScore

	cfg.EnableObservability, err = parseBool("ENABLE_OBSERVABILITY", true)
	if err != nil {
		return nil, err
	}
	cfg.EnableEvaluation, err = parseBool("ENABLE_EVALUATION", true)
	if err != nil {
		return nil, err
	}
	cfg.ExportMetrics, err = parseBool("EXPORT_METRICS", true)
	if err != nil {
		return nil, err
	}
	cfg.ExportEvaluation, err = parseBool("EXPORT_EVALUATION", true)
	if err != nil {
		return nil, err
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	cfg.RateLimit.RequestsPerSecond, err = parseFloat("RATE_LIMIT_RPS", defaultRateLimitRPS)
	if err != nil {
		return nil, err
	}

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
	burst, err := strconv.Atoi(burstValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", burstValue)
	}
	cfg.RateLimit.Burst = burst
	cfg.RateLimit.ClientTTL = defaultRateLimitTTL

	return cfg, nil
}

// Validate checks that every credential required by the selected provider and
// the external services is present. Missing values are reported together so a
// user can fix the environment in one pass.
func (c *Config) Validate() error {
	var missing []string

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	default:
		return eris.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	if c.TavilyAPIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if c.GhostURL == "" {
		missing = append(missing, "GHOST_URL")
	}
	if c.GhostAdminKey == "" {
		missing = append(missing, "GHOST_ADMIN_API_KEY")
	}

	if len(missing) > 0 {
		return eris.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.MinQualityScore < 0 || c.MinQualityScore > 100 {
		return eris.Errorf("MIN_QUALITY_SCORE must be within [0,100], got %g", c.MinQualityScore)
	}

	return nil
}

// ApplyProvider switches the active provider and re-derives the default
// model for it. Apply an explicit model override after calling this, not
// before, or the override is lost.
func (c *Config) ApplyProvider(provider string) {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(provider))
	c.LLMModel = defaultModelFor(c.LLMProvider)
}

func defaultModelFor(provider string) string {
	if provider == ProviderAnthropic {
		return defaultAnthropicModel
	}
	return defaultOpenAIModel
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
