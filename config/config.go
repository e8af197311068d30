package config

import (
	"fmt"
	"strings"
	"time"
	"wanderplan/database"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string
	GinMode      string
	AppEnv       string
	FrontendURLs []string

	// Proxies whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string

	Generator string // "gemini" or "groq"

	Gemini struct {
		BaseURL    string
		APIVersion string
		Model      string
		Timeout    time.Duration
	}
	Groq struct {
		BaseURL     string
		Model       string
		Temperature float64
		Timeout     time.Duration
	}
	SerpAPI struct {
		BaseURL  string
		RelayURL string
		UseRelay bool
		Currency string
		Timeout  time.Duration
	}

	RateLimit struct {
		RequestsPerSecond float64
		Burst             int
		Idle              time.Duration
	}

	Database database.Config

	// Server-wide keys used when a session has not saved its own.
	FallbackKeys map[string]string
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"GIN_MODE":              "debug",
	"APP_ENV":               "development",
	"FRONTEND_URL":          "",
	"TRUSTED_PROXIES":       "",
	"TRIP_GENERATOR":        "gemini",
	"GEMINI_BASE_URL":       "",
	"GEMINI_API_VERSION":    "v1",
	"GEMINI_MODEL":          "gemini-pro",
	"GEMINI_TIMEOUT":        "60s",
	"GROQ_BASE_URL":         "https://api.groq.com",
	"GROQ_MODEL":            "llama-3.3-70b-versatile",
	"GROQ_TEMPERATURE":      0.7,
	"GROQ_TIMEOUT":          "60s",
	"SERPAPI_BASE_URL":      "https://serpapi.com",
	"SERPAPI_RELAY_URL":     "https://api.allorigins.win/get",
	"SERPAPI_USE_RELAY":     false,
	"SERPAPI_CURRENCY":      "USD",
	"SERPAPI_TIMEOUT":       "30s",
	"RATE_LIMIT_RPS":        5.0,
	"RATE_LIMIT_BURST":      10,
	"RATE_LIMIT_IDLE":       "10m",
	"DATABASE_URL":          "",
	"DB_HOST":               "",
	"DB_PORT":               "5432",
	"DB_USER":               "postgres",
	"DB_PASSWORD":           "postgres",
	"DB_NAME":               "wanderplan",
	"DB_SSLMODE":            "disable",
	"SERVER_GEMINI_API_KEY": "",
	"SERVER_GROQ_API_KEY":   "",
	"SERVER_SERP_API_KEY":   "",
}

// Load reads configuration from the environment. Call godotenv.Load first
// to pick up a local .env file.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	cfg.Port = v.GetString("PORT")
	cfg.GinMode = v.GetString("GIN_MODE")
	cfg.AppEnv = v.GetString("APP_ENV")
	cfg.FrontendURLs = splitList(v.GetString("FRONTEND_URL"))
	cfg.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))

	cfg.Generator = strings.ToLower(v.GetString("TRIP_GENERATOR"))
	if cfg.Generator != "gemini" && cfg.Generator != "groq" {
		return Config{}, fmt.Errorf("unknown TRIP_GENERATOR %q (want gemini or groq)", cfg.Generator)
	}

	cfg.Gemini.BaseURL = v.GetString("GEMINI_BASE_URL")
	cfg.Gemini.APIVersion = v.GetString("GEMINI_API_VERSION")
	cfg.Gemini.Model = v.GetString("GEMINI_MODEL")
	cfg.Gemini.Timeout = v.GetDuration("GEMINI_TIMEOUT")

	cfg.Groq.BaseURL = v.GetString("GROQ_BASE_URL")
	cfg.Groq.Model = v.GetString("GROQ_MODEL")
	cfg.Groq.Temperature = v.GetFloat64("GROQ_TEMPERATURE")
	cfg.Groq.Timeout = v.GetDuration("GROQ_TIMEOUT")

	cfg.SerpAPI.BaseURL = v.GetString("SERPAPI_BASE_URL")
	cfg.SerpAPI.RelayURL = v.GetString("SERPAPI_RELAY_URL")
	cfg.SerpAPI.UseRelay = v.GetBool("SERPAPI_USE_RELAY")
	cfg.SerpAPI.Currency = v.GetString("SERPAPI_CURRENCY")
	cfg.SerpAPI.Timeout = v.GetDuration("SERPAPI_TIMEOUT")

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.Burst = v.GetInt("RATE_LIMIT_BURST")
	cfg.RateLimit.Idle = v.GetDuration("RATE_LIMIT_IDLE")

	cfg.Database.URL = v.GetString("DATABASE_URL")
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetString("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.SSLMode = v.GetString("DB_SSLMODE")

	cfg.FallbackKeys = map[string]string{}
	for _, name := range []string{"GEMINI_API_KEY", "GROQ_API_KEY", "SERP_API_KEY"} {
		if key := v.GetString("SERVER_" + name); key != "" {
			cfg.FallbackKeys[name] = key
		}
	}

	return cfg, nil
}

// AllowedOrigins is the local dev servers plus FRONTEND_URL entries.
func (c Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8080"}
	return append(origins, c.FrontendURLs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
