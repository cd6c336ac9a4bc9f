package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taskpad-backend/internal/ai"
	"taskpad-backend/internal/pipeline"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	DefaultModel = pipeline.DefaultModel
)

type Config struct {
	HTTPAddr        string
	Storage         string
	ShutdownTimeout time.Duration

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration
	LLMRetries int

	MinConfidence float64
	PromptsFile   string
	JWTSecret     string

	LogLevel string
	LogJSON  bool
}

// Load reads the environment after applying an optional .env file. Values
// that fail to parse fall back to their defaults.
func Load() *Config {
	_ = godotenv.Load()

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}

	return &Config{
		HTTPAddr:        getString("HTTP_ADDR", ":8080"),
		Storage:         strings.ToLower(getString("STORAGE", StoragePostgres)),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getString("DB_SSLMODE", "disable"),

		LLMBaseURL: getString("LLM_BASE_URL", ai.DefaultBaseURL),
		LLMAPIKey:  apiKey,
		LLMModel:   getString("LLM_MODEL", DefaultModel),
		LLMTimeout: getDuration("LLM_TIMEOUT", 30*time.Second),
		LLMRetries: getInt("LLM_RETRIES", 2),

		MinConfidence: getFloat("MIN_CONFIDENCE", 0.6),
		PromptsFile:   os.Getenv("PROMPTS_FILE"),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		LogLevel: getString("LOG_LEVEL", "info"),
		LogJSON:  getBool("LOG_JSON", false),
	}
}

// Validate reports every missing or out-of-range value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY (or GROQ_API_KEY) is required"))
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DBUser == "" {
			errs = append(errs, errors.New("DB_USER is required for postgres storage"))
		}
		if c.DBName == "" {
			errs = append(errs, errors.New("DB_NAME is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("MIN_CONFIDENCE must be within [0, 1], got %v", c.MinConfidence))
	}
	if c.LLMRetries < 0 {
		errs = append(errs, fmt.Errorf("LLM_RETRIES must not be negative, got %d", c.LLMRetries))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
