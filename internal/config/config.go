package config

import (
	"os"
	"strconv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Trip sources, tried in order: remote config URL, DynamoDB roster,
	// local files, synthetic generator.
	TripConfigURL  string
	TripConfigPath string
	TripDataDir    string
	DynamoTable    string
	SyntheticSeed  int64

	// Push transports (enabled when set)
	KinesisStream string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Simulation
	TickIntervalMS int
	DefaultSpeed   float64

	// Stream auth
	TokenSecret string

	// Summarizer
	SummarizerAPIKey string
	SummarizerModel  string
	SummarizerURL    string
}

func Load() *Config {
	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		TripConfigURL:    getEnv("FLEET_TRIP_CONFIG_URL", ""),
		TripConfigPath:   getEnv("TRIP_CONFIG_PATH", "data/trip-config.json"),
		TripDataDir:      getEnv("TRIP_DATA_DIR", "data"),
		DynamoTable:      getEnv("DYNAMODB_TRIPS_TABLE", ""),
		SyntheticSeed:    int64(getEnvInt("SYNTHETIC_SEED", 1)),
		KinesisStream:    getEnv("KINESIS_FLEET_EVENTS_STREAM", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		TickIntervalMS:   getEnvInt("TICK_INTERVAL_MS", 100),
		DefaultSpeed:     getEnvFloat("SIMULATION_SPEED", 10),
		TokenSecret:      getEnv("FLEET_TOKEN_SECRET", "fleet_secret"),
		SummarizerAPIKey: getEnv("SUMMARIZER_API_KEY", ""),
		SummarizerModel:  getEnv("SUMMARIZER_MODEL", ""),
		SummarizerURL:    getEnv("SUMMARIZER_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
