package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	MySQLDSN string

	KafkaBrokers []string
	KafkaTopic   string

	WebhookSecret   string
	WebhookWorkers  int
	WebhookTimeout  time.Duration
	ProcessingDelay time.Duration
	FailureRate     float64
	CardMonthlyRate float64
}

// Load reads configuration from the environment, with an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:password@tcp(localhost:3306)/fiadopay?parseTime=true&multiStatements=true"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "payments_updated"),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", "fiadopay-secret"),
		WebhookWorkers:  getEnvInt("WEBHOOK_WORKERS", 10),
		WebhookTimeout:  getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		ProcessingDelay: getEnvDuration("PROCESSING_DELAY", 2*time.Second),
		FailureRate:     getEnvFloat("FAILURE_RATE", 0.1),
		CardMonthlyRate: getEnvFloat("CARD_MONTHLY_RATE", 1.0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
