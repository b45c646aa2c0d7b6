package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/rajivgeraev/sudak-api/internal/store"
)

// Поддерживаемые хранилища
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config структура конфигурации
type Config struct {
	Port            string
	AppEnv          string
	LogLevel        string
	JWTSecret       string
	StoreBackend    string
	StoreQuotaBytes int
	DatabaseURL     string
	DatabaseConfig  DatabaseConfig
	RedisConfig     RedisConfig
	ChatConfig      ChatConfig
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig содержит конфигурацию Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ChatConfig настраивает демонстрационный автоответ в чате
type ChatConfig struct {
	AutoReply            bool
	AutoReplyProbability float64
	AutoReplyDelay       time.Duration
}

// Load читает переменные из .env и окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "sudak_user"),
		Password: getEnv("PGPASSWORD", "sudak_pass"),
		Name:     getEnv("PGDATABASE", "sudak"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("неверное значение REDIS_DB: %w", err)
	}

	quota, err := strconv.Atoi(getEnv("STORE_QUOTA_BYTES", strconv.Itoa(store.DefaultQuotaBytes)))
	if err != nil {
		return nil, fmt.Errorf("неверное значение STORE_QUOTA_BYTES: %w", err)
	}

	autoReply, err := strconv.ParseBool(getEnv("CHAT_AUTO_REPLY", "false"))
	if err != nil {
		return nil, fmt.Errorf("неверное значение CHAT_AUTO_REPLY: %w", err)
	}

	probability, err := strconv.ParseFloat(getEnv("CHAT_AUTO_REPLY_PROBABILITY", "0.3"), 64)
	if err != nil || probability < 0 || probability > 1 {
		return nil, fmt.Errorf("неверное значение CHAT_AUTO_REPLY_PROBABILITY")
	}

	delay, err := time.ParseDuration(getEnv("CHAT_AUTO_REPLY_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("неверное значение CHAT_AUTO_REPLY_DELAY: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AppEnv:          getEnv("APP_ENV", "production"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		StoreBackend:    getEnv("STORE_BACKEND", StoreMemory),
		StoreQuotaBytes: quota,
		DatabaseURL:     getEnv("DATABASE_URL", dbURL),
		DatabaseConfig:  dbConfig,
		RedisConfig: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		ChatConfig: ChatConfig{
			AutoReply:            autoReply,
			AutoReplyProbability: probability,
			AutoReplyDelay:       delay,
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("не задана переменная окружения JWT_SECRET")
	}

	switch cfg.StoreBackend {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return nil, fmt.Errorf("неизвестное хранилище STORE_BACKEND=%q", cfg.StoreBackend)
	}

	return cfg, nil
}

// LoadConfig загружает конфигурацию или завершает процесс
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
