package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	JWTSecret          string
	StoragePath        string
	StorageBaseURL     string
	GeoIPDBPath        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int

	ServiceAccountFile string
	GoogleProject      string
	GoogleRegion       string
	VertexBaseURL      string
	VertexImageModel   string
	VertexVideoModel   string
	TokenURL           string
	TokenScope         string
	TokenCache         string
	RedisURL           string

	PollInterval       time.Duration
	MaxPollAttempts    int
	DefaultImageCount  int
	DefaultVideoLength int
	DefaultAspectRatio string
	DefaultResolution  string
	GenerateAudio      bool

	JobMaxRetries  int
	JobRetryDelay  time.Duration
	JobConcurrency int
	JobMinInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	region := getEnv("GOOGLE_CLOUD_REGION", "us-central1")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		GoogleProject:      os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleRegion:       region,
		VertexBaseURL:      getEnv("VERTEX_BASE_URL", "https://"+region+"-aiplatform.googleapis.com/v1"),
		VertexImageModel:   getEnv("VERTEX_IMAGE_MODEL", "imagen-3.0-generate-002"),
		VertexVideoModel:   getEnv("VERTEX_VIDEO_MODEL", "veo-3.0-generate-001"),
		TokenURL:           getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		TokenScope:         getEnv("GOOGLE_TOKEN_SCOPE", "https://www.googleapis.com/auth/cloud-platform"),
		TokenCache:         strings.ToLower(getEnv("TOKEN_CACHE", "none")),
		RedisURL:           os.Getenv("REDIS_URL"),

		PollInterval:       time.Second * time.Duration(getEnvInt("GENERATION_POLL_INTERVAL_SECONDS", 5)),
		MaxPollAttempts:    getEnvInt("GENERATION_MAX_POLL_ATTEMPTS", 36),
		DefaultImageCount:  getEnvInt("DEFAULT_IMAGE_COUNT", 4),
		DefaultVideoLength: getEnvInt("DEFAULT_VIDEO_DURATION_SECONDS", 5),
		DefaultAspectRatio: getEnv("DEFAULT_ASPECT_RATIO", "16:9"),
		DefaultResolution:  getEnv("DEFAULT_RESOLUTION", "720p"),
		GenerateAudio:      getEnvBool("GENERATE_AUDIO", false),

		JobMaxRetries:  getEnvInt("JOB_MAX_RETRIES", 0),
		JobRetryDelay:  time.Second * time.Duration(getEnvInt("JOB_RETRY_DELAY_SECONDS", 10)),
		JobConcurrency: getEnvInt("JOB_CONCURRENCY", 1),
		JobMinInterval: time.Millisecond * time.Duration(getEnvInt("JOB_MIN_INTERVAL_MS", 0)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.TokenCache {
	case "none", "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when TOKEN_CACHE=redis")
		}
	default:
		return nil, fmt.Errorf("TOKEN_CACHE must be one of none, memory, redis; got %q", cfg.TokenCache)
	}

	if cfg.JobMaxRetries < 0 {
		cfg.JobMaxRetries = 0
	}
	if cfg.JobConcurrency < 1 {
		cfg.JobConcurrency = 1
	}
	if cfg.MaxPollAttempts < 1 {
		cfg.MaxPollAttempts = 36
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
