package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string
	CORSOrigins []string
	LogDir      string

	// Database config
	DBDriver    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string
	DBPath      string // SQLite database file path

	// Payment config
	RazorpayKeyID     string
	RazorpayKeySecret string
	PaymentMock       bool

	// Technician auth config
	JWTSecret                 string
	JWTExpiryHours            int
	RequireTechnicianAuth     bool
	DefaultTechnicianEmail    string
	DefaultTechnicianPassword string

	// Lock backend; memory when RedisAddr is empty
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LockTTLSeconds int

	RateLimitRPS   float64
	RateLimitBurst int

	// Cron spec for the monthly appliance ageing sweep, disabled when empty
	MaintenanceSchedule string
}

// PlaceholderRazorpayKeyID is the sandbox key used when none is configured
// outside production
const PlaceholderRazorpayKeyID = "rzp_test_dummy"

// Load reads .env (if present) and the process environment into a Config
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	applyPostgresAliases()

	environment := getEnv("ENVIRONMENT", "development")

	// production never falls back to placeholder payment credentials
	keyID, keySecret := PlaceholderRazorpayKeyID, "dummy_secret"
	if environment == "production" {
		keyID, keySecret = "", ""
	}

	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: environment,
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogDir:      getEnv("LOG_DIR", "logs"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "boltnexus"),
		DBSSLMode:   getEnv("DB_SSLMODE", "require"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBPath:      getEnv("DB_PATH", "./boltnexus.db"),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", keyID),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", keySecret),
		PaymentMock:       getEnvAsBool("PAYMENT_GATEWAY_MOCK", false),

		JWTSecret:                 getEnv("JWT_SECRET", "boltnexus_default_secret_key"),
		JWTExpiryHours:            getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		RequireTechnicianAuth:     getEnvAsBool("REQUIRE_TECHNICIAN_AUTH", false),
		DefaultTechnicianEmail:    getEnv("DEFAULT_TECHNICIAN_EMAIL", "technician@boltnexus.in"),
		DefaultTechnicianPassword: getEnv("DEFAULT_TECHNICIAN_PASSWORD", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		LockTTLSeconds: getEnvAsInt("LOCK_TTL_SECONDS", 30),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),

		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", ""),
	}
}

// applyPostgresAliases maps libpq-style variables onto DB_* when present
func applyPostgresAliases() {
	aliases := map[string]string{
		"PGHOST":     "DB_HOST",
		"PGPORT":     "DB_PORT",
		"PGUSER":     "DB_USER",
		"PGPASSWORD": "DB_PASSWORD",
		"PGDATABASE": "DB_NAME",
	}
	for from, to := range aliases {
		if v := os.Getenv(from); v != "" {
			os.Setenv(to, v)
		}
	}
}

// JWTExpiration returns the lifetime of issued technician tokens
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// LockTTL returns how long a booking lock may be held
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesMockGateway reports whether payments should be simulated. In production
// only an explicit PAYMENT_GATEWAY_MOCK enables it.
func (c *Config) UsesMockGateway() bool {
	if c.PaymentMock {
		return true
	}
	if c.IsProduction() {
		return false
	}
	return c.RazorpayKeyID == "" || c.RazorpayKeyID == PlaceholderRazorpayKeyID
}

// Helper function to get environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get integer environment variable with fallback
func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
