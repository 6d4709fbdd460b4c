package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Optional demo member created at startup when both are set.
	SeedMemberEmail    string
	SeedMemberPassword string
	SeedMemberName     string

	OTLPEndpoint string

	// Cron expression for the reminder digest sweep.
	DigestSchedule string
	// How far ahead (in days) a loan counts as due soon.
	DueSoonDays int
}

func Load() Config {
	// .env is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:  getEnv("JWT_SECRET", "dev-only-secret"),
		AccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		SeedMemberEmail:    getEnv("SEED_MEMBER_EMAIL", ""),
		SeedMemberPassword: getEnv("SEED_MEMBER_PASSWORD", ""),
		SeedMemberName:     getEnv("SEED_MEMBER_NAME", "Demo Member"),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 8 * * *"),
		DueSoonDays:    getEnvInt("DUE_SOON_DAYS", 7),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "membership")
	pass := getEnv("DB_PASSWORD", "membership")
	name := getEnv("DB_NAME", "membership")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return d
	}
	return fallback
}
