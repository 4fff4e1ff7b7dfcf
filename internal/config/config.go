package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	BedrockModelID string
	PromptVersion  string

	MediaBucket       string
	MediaJobsTable    string
	UploadURLLifetime time.Duration

	OpenAIAPIKey       string
	TranscriptionModel string

	SafeBrowsingAPIKey   string
	SafeBrowsingEndpoint string
	URLHausEndpoint      string
	ReputationTimeout    time.Duration

	RateLimitSalt    string
	AnonBurstLimit   int
	AnonDailyLimit   int
	APIKeyDailyLimit int

	AnalysisCacheTTL time.Duration
	WorkerCount      int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		PromptVersion:  getEnv("PROMPT_VERSION", "1"),

		MediaBucket:       getEnv("MEDIA_BUCKET", ""),
		MediaJobsTable:    getEnv("MEDIA_JOBS_TABLE", "media_jobs"),
		UploadURLLifetime: getEnvAsDuration("UPLOAD_URL_LIFETIME", 10*time.Minute),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),

		SafeBrowsingAPIKey:   getEnv("SAFE_BROWSING_API_KEY", ""),
		SafeBrowsingEndpoint: getEnv("SAFE_BROWSING_ENDPOINT", "https://safebrowsing.googleapis.com/v4/threatMatches:find"),
		URLHausEndpoint:      getEnv("URLHAUS_ENDPOINT", "https://urlhaus-api.abuse.ch/v1/url/"),
		ReputationTimeout:    getEnvAsDuration("REPUTATION_TIMEOUT", 5*time.Second),

		RateLimitSalt:    getEnv("RATE_LIMIT_SALT", ""),
		AnonBurstLimit:   getEnvAsInt("ANON_BURST_LIMIT", 3),
		AnonDailyLimit:   getEnvAsInt("ANON_DAILY_LIMIT", 10),
		APIKeyDailyLimit: getEnvAsInt("API_KEY_DAILY_LIMIT", 100),

		AnalysisCacheTTL: getEnvAsDuration("ANALYSIS_CACHE_TTL", 24*time.Hour),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 2),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// IsProduction reports whether the service runs with production fail policies.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
