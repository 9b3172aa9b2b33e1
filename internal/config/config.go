package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	devJWTSecret = "dcip-dev-secret"
	devAPIKey    = "dcip-dev-api-key"
)

// Config is the resolved process configuration.
type Config struct {
	Port           string
	Env            string
	APIKey         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	LogFile        string
	CORSOrigins    string
	OTPRateLimit   int

	DB        DBConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	OTP       OTPConfig
	Scheduler SchedulerConfig
}

// DBConfig holds the postgres connection and pool settings.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SMTPConfig is left with an empty Host in development, which selects the
// logging mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type OTPConfig struct {
	RegistrationTTL time.Duration
	ResetTTL        time.Duration
	ResetTokenTTL   time.Duration
	MaxAttempts     int
}

type SchedulerConfig struct {
	Interval           time.Duration
	AssignmentDeadline time.Duration
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv parses values such as "15m" or "72h".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// Load reads the environment into a Config. Secrets are mandatory in
// production; elsewhere fixed development values are used.
func Load() Config {
	cfg := Config{
		Port:           GetEnv("PORT", "3000"),
		Env:            GetEnv("ENV", "development"),
		APIKey:         GetEnv("API_KEY", ""),
		JWTSecret:      GetEnv("JWT_SECRET", ""),
		AccessTokenTTL: GetDurationEnv("ACCESS_TOKEN_TTL", 24*time.Hour),
		LogFile:        GetEnv("LOG_FILE", ""),
		CORSOrigins:    GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		OTPRateLimit:   GetIntEnv("OTP_RATE_LIMIT", 5),
		DB: DBConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "dcip"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:     GetEnv("SMTP_HOST", ""),
			Port:     GetIntEnv("SMTP_PORT", 587),
			User:     GetEnv("SMTP_USER", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("SMTP_FROM", ""),
		},
		OTP: OTPConfig{
			RegistrationTTL: GetDurationEnv("OTP_REGISTRATION_TTL", 10*time.Minute),
			ResetTTL:        GetDurationEnv("OTP_RESET_TTL", 10*time.Minute),
			ResetTokenTTL:   GetDurationEnv("OTP_RESET_TOKEN_TTL", 15*time.Minute),
			MaxAttempts:     GetIntEnv("OTP_MAX_ATTEMPTS", 5),
		},
		Scheduler: SchedulerConfig{
			Interval:           GetDurationEnv("SCHEDULER_INTERVAL", 5*time.Minute),
			AssignmentDeadline: GetDurationEnv("ASSIGNMENT_DEADLINE", 72*time.Hour),
		},
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			log.Fatal("JWT_SECRET must be set in production")
		}
		log.Println("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.APIKey == "" {
		if cfg.Env == "production" {
			log.Fatal("API_KEY must be set in production")
		}
		log.Println("API_KEY not set, using development key")
		cfg.APIKey = devAPIKey
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}

	return cfg
}

// DSN renders the postgres connection string.
func (c DBConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode
}

// Addr is host:port for the redis client.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}
