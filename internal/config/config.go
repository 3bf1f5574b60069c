package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL       string `yaml:"databaseUrl"`
	JWTSecret         string `yaml:"-"`
	Port              string `yaml:"port"`
	FCMServiceAccount string `yaml:"fcmServiceAccount"`
	LogLevel          string `yaml:"logLevel"`
	Development       bool   `yaml:"development"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redisDb"`
	AnalyticsTTL  int    `yaml:"analyticsTtlSeconds"`

	NATSURL string `yaml:"natsUrl"`

	CleanupSchedule string `yaml:"cleanupSchedule"`
}

// Load reads .env when present, then the process environment, then the
// optional YAML file named by CONFIG_FILE. Values set in the file win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "wellness.db"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Development:       getEnvBool("DEVELOPMENT", false),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		AnalyticsTTL:      getEnvInt("ANALYTICS_TTL_SECONDS", 300),
		NATSURL:           getEnv("NATS_URL", ""),
		CleanupSchedule:   getEnv("CLEANUP_SCHEDULE", "@every 1h"),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
