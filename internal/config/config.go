// Package config loads the simulator's settings from the environment.
//
// Every variable has a default, so an empty environment yields a working
// local setup with generation disabled (no OPENAI_API_KEY). Load reports
// every malformed or out-of-range variable at once.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CORSConfig lists allowed browser origins; empty allows any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry tracing settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "coachsim")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig configures the chat-completion client that voices personas.
type LLMConfig struct {
	APIKey           string        // OPENAI_API_KEY; empty disables generation
	BaseURL          string        // OPENAI_BASE_URL; empty uses the provider default
	Model            string        // LLM_MODEL
	MaxTokens        int           // LLM_MAX_TOKENS
	Temperature      float64       // LLM_TEMPERATURE in [0..2]
	PresencePenalty  float64       // LLM_PRESENCE_PENALTY in [-2..2]
	FrequencyPenalty float64       // LLM_FREQUENCY_PENALTY in [-2..2]
	Timeout          time.Duration // LLM_TIMEOUT per request
	Fallback         bool          // LLM_FALLBACK: canned in-character reply on failure
	MaxPromptTokens  int           // LLM_MAX_PROMPT_TOKENS
}

// CoachingConfig bounds coaching sessions.
type CoachingConfig struct {
	SessionMaxMessages int    // SESSION_MAX_MESSAGES, welcome included
	MessageMaxRunes    int    // MESSAGE_MAX_RUNES for a coach message
	MemoryCacheSize    int    // MEMORY_CACHE_SIZE, per-user memory managers kept loaded
	DefaultUserID      string // DEFAULT_USER_ID when the request names no user
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // must outlast LLM_TIMEOUT for a coaching turn
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	DBPath   string // SQLite file
	LLM      LLMConfig
	Coaching CoachingConfig

	RateRPS   float64
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig

	// IdempotencyTTL is how long a recorded turn can be replayed.
	IdempotencyTTL time.Duration

	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and validates the result.
// The returned error joins one entry per offending variable.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.int("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.bool("LOG_PRETTY", false),
		SwaggerEnabled: e.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DBPath: e.str("DB_PATH", "coachsim.db"),
		LLM: LLMConfig{
			APIKey:           strings.TrimSpace(e.str("OPENAI_API_KEY", "")),
			BaseURL:          e.str("OPENAI_BASE_URL", ""),
			Model:            e.str("LLM_MODEL", "gpt-4"),
			MaxTokens:        e.int("LLM_MAX_TOKENS", 300),
			Temperature:      e.float("LLM_TEMPERATURE", 0.8),
			PresencePenalty:  e.float("LLM_PRESENCE_PENALTY", 0.6),
			FrequencyPenalty: e.float("LLM_FREQUENCY_PENALTY", 0.3),
			Timeout:          e.dur("LLM_TIMEOUT", 30*time.Second),
			Fallback:         e.bool("LLM_FALLBACK", false),
			MaxPromptTokens:  e.int("LLM_MAX_PROMPT_TOKENS", 6000),
		},
		Coaching: CoachingConfig{
			SessionMaxMessages: e.int("SESSION_MAX_MESSAGES", 16),
			MessageMaxRunes:    e.int("MESSAGE_MAX_RUNES", 2000),
			MemoryCacheSize:    e.int("MEMORY_CACHE_SIZE", 256),
			DefaultUserID:      strings.TrimSpace(e.str("DEFAULT_USER_ID", "anonymous")),
		},

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.int("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.bool("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.bool("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "coachsim"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, errors.Join(append(e.errs, cfg.validate()...)...)
}

// validate returns one error per rule the config breaks.
func (c Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")

	check(strings.TrimSpace(c.LLM.Model) != "", "LLM_MODEL must not be empty")
	check(c.LLM.MaxTokens > 0, "LLM_MAX_TOKENS must be > 0")
	check(c.LLM.Temperature >= 0 && c.LLM.Temperature <= 2, "LLM_TEMPERATURE must be between 0 and 2")
	check(c.LLM.PresencePenalty >= -2 && c.LLM.PresencePenalty <= 2 &&
		c.LLM.FrequencyPenalty >= -2 && c.LLM.FrequencyPenalty <= 2,
		"LLM penalties must be between -2 and 2")
	check(c.LLM.Timeout > 0, "LLM_TIMEOUT must be > 0")
	check(c.LLM.MaxPromptTokens >= c.LLM.MaxTokens, "LLM_MAX_PROMPT_TOKENS must be >= LLM_MAX_TOKENS")
	check(c.LLM.Timeout <= 0 || c.WriteTimeout <= 0 || c.WriteTimeout > c.LLM.Timeout,
		"WRITE_TIMEOUT must exceed LLM_TIMEOUT")

	check(c.Coaching.SessionMaxMessages >= 2, "SESSION_MAX_MESSAGES must be >= 2")
	check(c.Coaching.MessageMaxRunes > 0, "MESSAGE_MAX_RUNES must be > 0")
	check(c.Coaching.MemoryCacheSize > 0, "MEMORY_CACHE_SIZE must be > 0")
	check(c.Coaching.DefaultUserID != "", "DEFAULT_USER_ID must not be empty")

	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errs
}

// MarshalZerologObject logs the effective settings at startup. The API key
// is reduced to whether one is set.
func (c Config) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("port", c.Port).
		Str("gin_mode", c.GinMode).
		Str("api_base_path", c.APIBasePath).
		Str("db_path", c.DBPath).
		Bool("swagger", c.SwaggerEnabled).
		Str("llm_model", c.LLM.Model).
		Bool("llm_enabled", c.LLM.APIKey != "").
		Bool("llm_fallback", c.LLM.Fallback).
		Int("session_max_messages", c.Coaching.SessionMaxMessages).
		Float64("rate_rps", c.RateRPS).
		Int("rate_burst", c.RateBurst).
		Bool("otel", c.OTEL.Enabled)
}

// env reads typed variables, remembering every value that fails to parse.
type env struct {
	errs []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	return v, ok && v != ""
}

func (e *env) str(k, def string) string {
	if v, ok := e.lookup(k); ok {
		return v
	}
	return def
}

func (e *env) fail(k, v, kind string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q is not a valid %s", k, v, kind))
}

func (e *env) float(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		e.fail(k, v, "number")
		return def
	}
	return f
}

func (e *env) int(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.fail(k, v, "integer")
		return def
	}
	return i
}

func (e *env) bool(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.fail(k, v, "boolean")
	return def
}

func (e *env) dur(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.fail(k, v, "duration")
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and no trailing '/', except root.
func normalizeBasePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
