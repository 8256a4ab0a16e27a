package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RabbitURL       string
	OTLPEndpoint    string
	EventCacheTTL   time.Duration
	ListCacheTTL    time.Duration
	IdempotencyTTL  time.Duration
	RateLimit       int
	OutboxInterval  time.Duration
	OutboxBatch     int
	NoShowInterval  time.Duration
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		DatabaseDSN:     os.Getenv("DATABASE_DSN"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getenv("MONGO_DB", "events"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         atoi(os.Getenv("REDIS_DB"), 0),
		RabbitURL:       os.Getenv("RABBIT_URL"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		EventCacheTTL:   duration(os.Getenv("EVENT_CACHE_TTL"), 30*time.Minute),
		ListCacheTTL:    duration(os.Getenv("LIST_CACHE_TTL"), 5*time.Minute),
		IdempotencyTTL:  duration(os.Getenv("IDEMPOTENCY_TTL"), time.Hour),
		RateLimit:       atoi(os.Getenv("RATE_LIMIT_PER_MINUTE"), 120),
		OutboxInterval:  duration(os.Getenv("OUTBOX_INTERVAL"), 5*time.Second),
		OutboxBatch:     atoi(os.Getenv("OUTBOX_BATCH"), 50),
		NoShowInterval:  duration(os.Getenv("NOSHOW_INTERVAL"), 10*time.Minute),
		ShutdownTimeout: duration(os.Getenv("SHUTDOWN_TIMEOUT"), 5*time.Second),
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func duration(s string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(s)
	if d <= 0 {
		return def
	}
	return d
}
