package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Selection SelectionConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisDB       int
}

// SelectionConfig holds process-wide engine defaults; per-creator rows in
// selection_configs override them.
type SelectionConfig struct {
	CooldownDays        int
	MaxPerCategory      int
	MaxUrgentPerWeek    int
	MinPoolBudget       int
	MinPoolBump         int
	MinPerformanceScore float64
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	// UsageBackend is "postgres" (count the ledger) or "redis" (rolling sorted sets).
	UsageBackend string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Caption Selector"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "caption_selector"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisUsername: getEnv("REDIS_USERNAME", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Selection: SelectionConfig{
			CooldownDays:        getEnvInt("SELECTION_COOLDOWN_DAYS", 7),
			MaxPerCategory:      getEnvInt("SELECTION_MAX_PER_CATEGORY", 20),
			MaxUrgentPerWeek:    getEnvInt("SELECTION_MAX_URGENT_PER_WEEK", 5),
			MinPoolBudget:       getEnvInt("SELECTION_MIN_POOL_BUDGET", 200),
			MinPoolBump:         getEnvInt("SELECTION_MIN_POOL_BUMP", 50),
			MinPerformanceScore: getEnvFloat("SELECTION_MIN_PERFORMANCE_SCORE", 0),
			ReadTimeout:         getEnvDuration("SELECTION_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:        getEnvDuration("SELECTION_WRITE_TIMEOUT", 5*time.Second),
			UsageBackend:        getEnv("SELECTION_USAGE_BACKEND", "postgres"),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Selection.UsageBackend != "postgres" && cfg.Selection.UsageBackend != "redis" {
		return nil, errors.New("SELECTION_USAGE_BACKEND must be postgres or redis")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}
