package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Redis Config. Пустой адрес включает режим одного инстанса
	RedisAddr        string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass        string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	BroadcastChannel string `env:"BROADCAST_CHANNEL" envDefault:"alerts"`
	InstanceID       string `env:"INSTANCE_ID"`

	// Auth Config
	JWTSecret string `env:"JWT_SECRET"`

	// Routing / ETA Config
	GoogleMapsAPIKey  string        `env:"GOOGLE_MAPS_API_KEY"`
	RoutingTimeout    time.Duration `env:"ROUTING_TIMEOUT" envDefault:"5s"`
	ETACacheTTL       time.Duration `env:"ETA_CACHE_TTL" envDefault:"60s"`
	ETACoordPrecision int           `env:"ETA_COORD_PRECISION" envDefault:"5"`

	// Dispatch Config
	AutoAssignDelay   time.Duration `env:"AUTO_ASSIGN_DELAY" envDefault:"30s"`
	ReassignDelay     time.Duration `env:"REASSIGN_DELAY" envDefault:"1s"`
	DoneDeleteDelay   time.Duration `env:"DONE_DELETE_DELAY" envDefault:"10s"`
	ResolvedRetention time.Duration `env:"RESOLVED_RETENTION" envDefault:"24h"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL"`
	CandidatePoolSize int           `env:"CANDIDATE_POOL_SIZE" envDefault:"20"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// WebSocket Config
	WSAllowedOrigins []string `env:"WS_ALLOWED_ORIGINS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		BroadcastChannel:  getEnv("BROADCAST_CHANNEL", "alerts"),
		InstanceID:        getEnv("INSTANCE_ID", uuid.NewString()),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		GoogleMapsAPIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		RoutingTimeout:    getEnvAsDuration("ROUTING_TIMEOUT", 5*time.Second),
		ETACacheTTL:       getEnvAsDuration("ETA_CACHE_TTL", 60*time.Second),
		ETACoordPrecision: getEnvAsInt("ETA_COORD_PRECISION", 5),
		AutoAssignDelay:   getEnvAsDuration("AUTO_ASSIGN_DELAY", 30*time.Second),
		ReassignDelay:     getEnvAsDuration("REASSIGN_DELAY", time.Second),
		DoneDeleteDelay:   getEnvAsDuration("DONE_DELETE_DELAY", 10*time.Second),
		ResolvedRetention: getEnvAsDuration("RESOLVED_RETENTION", 24*time.Hour),
		CandidatePoolSize: getEnvAsInt("CANDIDATE_POOL_SIZE", 20),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		WSAllowedOrigins:  getEnvAsSlice("WS_ALLOWED_ORIGINS"),
	}

	// Интервал очистки зависит от профиля развертывания
	defaultSweep := 30 * time.Second
	if cfg.IsProduction() {
		defaultSweep = time.Hour
	}
	cfg.SweepInterval = getEnvAsDuration("SWEEP_INTERVAL", defaultSweep)

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-for-demo"
	}
	if cfg.CandidatePoolSize <= 0 {
		return nil, fmt.Errorf("CANDIDATE_POOL_SIZE must be positive, got %d", cfg.CandidatePoolSize)
	}

	return cfg, nil
}

// IsProduction сообщает, запущено ли приложение в боевом профиле
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsSlice разбирает список через запятую
func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
