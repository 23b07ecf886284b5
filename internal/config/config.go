package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
)

const (
	RatingPolicyElo        = "elo"
	RatingPolicyDifficulty = "difficulty"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	RabbitMQURL     string
	EvaluationQueue string

	SandboxTimeout  time.Duration
	SandboxMemoryMB int64

	AdvisorAPIURL  string
	AdvisorAPIKey  string
	AdvisorModel   string
	AdvisorTimeout time.Duration

	RatingPolicy  string
	EloKFactor    int
	ProblemWindow int
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	log := logger.NewNamedLogger("config")

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:         getEnv("API_PORT", "8080"),
		JWTKey:          []byte(getEnv("JWT_SECRET", "")),
		JWTExp:          time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "codebattle"),
		DBSslMode:       getEnv("DB_SSLMODE", "disable"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisUsername:   getEnv("REDIS_USERNAME", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		RedisTLS:        getEnv("REDIS_TLS", "false") == "true",
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		EvaluationQueue: getEnv("EVALUATION_QUEUE", "submission_evaluations"),
		SandboxTimeout:  time.Duration(getEnvAsInt("SANDBOX_TIMEOUT_SECONDS", 10)) * time.Second,
		SandboxMemoryMB: int64(getEnvAsInt("SANDBOX_MEMORY_MB", 256)),
		AdvisorAPIURL:   getEnv("ADVISOR_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		AdvisorAPIKey:   getEnv("ADVISOR_API_KEY", ""),
		AdvisorModel:    getEnv("ADVISOR_MODEL", "gemini-1.5-flash"),
		AdvisorTimeout:  time.Duration(getEnvAsInt("ADVISOR_TIMEOUT_SECONDS", 20)) * time.Second,
		RatingPolicy:    getEnv("RATING_POLICY", RatingPolicyElo),
		EloKFactor:      getEnvAsInt("ELO_K_FACTOR", 32),
		ProblemWindow:   getEnvAsInt("PROBLEM_WINDOW", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AdvisorAPIKey == "" {
		log.Warn("ADVISOR_API_KEY is not set, advisory estimation will report an error")
	}
	if cfg.RabbitMQURL == "" {
		log.Warn("RABBITMQ_URL is not set, submissions are evaluated inline")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTKey) == 0 {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.RatingPolicy != RatingPolicyElo && c.RatingPolicy != RatingPolicyDifficulty {
		return fmt.Errorf("RATING_POLICY must be %q or %q, got %q", RatingPolicyElo, RatingPolicyDifficulty, c.RatingPolicy)
	}
	if c.EloKFactor <= 0 {
		return fmt.Errorf("ELO_K_FACTOR must be positive")
	}
	if c.ProblemWindow <= 0 {
		return fmt.Errorf("PROBLEM_WINDOW must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSslMode,
	)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
