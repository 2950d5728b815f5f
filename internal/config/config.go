package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. It is loaded once in main and
// passed down explicitly; nothing below main reads the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	CORSAllowedOrigins []string

	// PipelineTimeout is applied uniformly to every pipeline run; each
	// external call inherits whatever remains of it.
	PipelineTimeout time.Duration
	MaxAudioBytes   int64

	// Speech-to-text service (Whisper-compatible API).
	TranscriberBaseURL  string
	TranscriberAPIKey   string
	TranscriberModel    string
	TranscriberLanguage string

	// Language-understanding gateway (OpenAI-compatible chat completions).
	LLMGatewayURL string
	LLMAPIKey     string
	LLMModel      string

	// Record store (Airtable-compatible REST API).
	AirtableBaseURL string
	AirtableViewURL string
	AirtableAPIKey  string
	AirtableBaseID  string
	AirtableTableID string

	// Boot-time readiness probe against the record store. Never used
	// inside a pipeline run.
	StartupProbe        bool
	StartupProbeMaxWait time.Duration

	// Optional XLSX journal of persisted leads for field-office review.
	JournalPath string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENVIRONMENT", "local"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"https://airtable.com"}),

		PipelineTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 60*time.Second),
		MaxAudioBytes:   int64(getEnvAsInt("MAX_AUDIO_BYTES", 10<<20)),

		TranscriberBaseURL:  getEnv("TRANSCRIBER_BASE_URL", "https://api.openai.com/v1"),
		TranscriberAPIKey:   getEnv("TRANSCRIBER_API_KEY", ""),
		TranscriberModel:    getEnv("TRANSCRIBER_MODEL", "whisper-1"),
		TranscriberLanguage: getEnv("TRANSCRIBER_LANGUAGE", "en"),

		LLMGatewayURL: getEnv("LLM_GATEWAY_URL", ""),
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),
		LLMModel:      getEnv("LLM_MODEL", ""),

		AirtableBaseURL: getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com"),
		AirtableViewURL: getEnv("AIRTABLE_VIEW_URL", "https://airtable.com"),
		AirtableAPIKey:  getEnv("AIRTABLE_API_KEY", ""),
		AirtableBaseID:  getEnv("CRM_BASE_ID", ""),
		AirtableTableID: getEnv("LEADS_TABLE_ID", ""),

		StartupProbe:        getEnvAsBool("STARTUP_PROBE", true),
		StartupProbeMaxWait: getEnvAsDuration("STARTUP_PROBE_MAX_WAIT", 30*time.Second),

		JournalPath: getEnv("LEAD_JOURNAL_PATH", ""),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
