package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv          string
	AppPort         string
	DBDSN           string
	JWTSecret       string
	JWTExpiresMin   int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	CORSOrigins     string

	RedisAddr     string
	RedisPassword string
	NATSURL       string

	SearchAPIKeys     []string
	SearchEngineID    string
	SearchAPIURL      string
	SearchFallbackURL string
	SearchProxyURL    string

	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	SessionRestoreTimeout time.Duration
}

// maxSearchKeys caps how many search credentials are rotated through.
const maxSearchKeys = 3

func Load() Config {
	expires := intOr("JWT_EXPIRES_MIN", 10080)
	restoreMs := intOr("SESSION_RESTORE_TIMEOUT_MS", 5000)
	return Config{
		AppEnv:          get("APP_ENV", "production"),
		AppPort:         get("APP_PORT", "8080"),
		DBDSN:           must("DB_DSN"),
		JWTSecret:       must("JWT_SECRET"),
		JWTExpiresMin:   expires,
		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
		CORSOrigins:     get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),
		NATSURL:       get("NATS_URL", ""),

		SearchAPIKeys:     splitKeys(get("SEARCH_API_KEYS", "")),
		SearchEngineID:    get("SEARCH_ENGINE_ID", ""),
		SearchAPIURL:      get("SEARCH_API_URL", "https://www.googleapis.com/customsearch/v1"),
		SearchFallbackURL: get("SEARCH_FALLBACK_URL", "https://html.duckduckgo.com/html/"),
		SearchProxyURL:    get("SEARCH_PROXY_URL", "https://api.allorigins.win/raw?url="),

		AIProvider:   strings.ToLower(get("AI_PROVIDER", "gemini")),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: get("OPENAI_API_KEY", ""),
		OpenAIModel:  get("OPENAI_MODEL", "gpt-4o-mini"),

		SessionRestoreTimeout: time.Duration(restoreMs) * time.Millisecond,
	}
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		keys = append(keys, k)
		if len(keys) == maxSearchKeys {
			break
		}
	}
	return keys
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

// intOr parses k as an integer, using def when it is unset. A value that is
// set but not a number is a startup error like a missing secret.
func intOr(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		panic("invalid env: " + k + " must be an integer")
	}
	return n
}
