package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL   string
	DBAutoMigrate bool
	JWTSecretKey  string
	JWTTTL        time.Duration
	ServerPort    int
	LogMode       string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIJudgeModel string
	OpenAITimeout    time.Duration

	// Cloudflare R2 (аватары). Пустые значения отключают загрузку.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// Пустой REDIS_URL отключает кеш рейтинга.
	RedisURL        string
	RankingCacheTTL time.Duration

	CORSAllowedOrigins []string

	MaxEvaluationAttempts int
	StaleEvaluationAfter  time.Duration
	SweepInterval         time.Duration
	RankingRefreshEvery   time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	openAITimeout, err := intEnv("OPENAI_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	maxAttempts, err := intEnv("MAX_EVALUATION_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("MAX_EVALUATION_ATTEMPTS must be positive, got %d", maxAttempts)
	}

	jwtTTL, err := durationEnv("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	staleAfter, err := durationEnv("STALE_EVALUATION_AFTER", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	sweepEvery, err := durationEnv("SWEEP_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	rankingEvery, err := durationEnv("RANKING_REFRESH_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	rankingTTL, err := durationEnv("RANKING_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	model := envOrDefault("OPENAI_MODEL", "gpt-4-turbo-preview")

	cfg := &Config{
		DatabaseURL:   dbURL,
		DBAutoMigrate: boolEnv("DB_AUTO_MIGRATE", false),
		JWTSecretKey:  jwtKey,
		JWTTTL:        jwtTTL,
		ServerPort:    port,
		LogMode:       envOrDefault("LOG_MODE", "dev"),

		OpenAIAPIKey:     apiKey,
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:      model,
		OpenAIJudgeModel: envOrDefault("OPENAI_JUDGE_MODEL", model),
		OpenAITimeout:    time.Duration(openAITimeout) * time.Second,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		RankingCacheTTL: rankingTTL,

		CORSAllowedOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		MaxEvaluationAttempts: maxAttempts,
		StaleEvaluationAfter:  staleAfter,
		SweepInterval:         sweepEvery,
		RankingRefreshEvery:   rankingEvery,
	}

	return cfg, nil
}

// R2Enabled сообщает, заданы ли все параметры Cloudflare R2.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

func boolEnv(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
