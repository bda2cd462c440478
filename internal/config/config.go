package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr           string
	DBPath             string
	Redis              RedisConfig
	NotifyURL          string
	GeocodeURL         string
	GeocodeTimeout     time.Duration
	RegionLimit        int
	LocationPermission bool
	StatsWindowMinutes int
}

type RedisConfig struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		DBPath:   getEnv("DB_PATH", "reminders.db"),
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			User:        getEnv("REDIS_USER", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			DialTimeout: getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			Timeout:     getEnvAsDuration("REDIS_TIMEOUT", 3*time.Second),
		},
		NotifyURL:          getEnv("NOTIFY_URL", "http://localhost:9090"),
		GeocodeURL:         getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org/reverse"),
		GeocodeTimeout:     getEnvAsDuration("GEOCODE_TIMEOUT", 3*time.Second),
		RegionLimit:        getEnvAsInt("REGION_LIMIT", 20),
		LocationPermission: getEnvAsBool("LOCATION_PERMISSION", true),
		StatsWindowMinutes: getEnvAsInt("STATS_TIME_WINDOW_MINUTES", 10),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
