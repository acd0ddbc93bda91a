package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DefaultBranchID int64
	Currency        string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string

	Logger LoggerConfig

	WhatsApp WhatsAppConfig

	Reminder ReminderConfig

	Messaging MessagingConfig

	Scheduler SchedulerConfig
}

type LoggerConfig struct {
	Level string
}

// WhatsAppConfig configures the Meta WhatsApp Cloud API provider.
// When Token or PhoneNumberID is empty the no-op provider is used.
type WhatsAppConfig struct {
	BaseURL            string
	Token              string
	PhoneNumberID      string
	WebhookVerifyToken string
}

// ReminderConfig holds the overdue-day thresholds for reminder tiers
// and the grace period applied before a fee counts as overdue.
type ReminderConfig struct {
	GracePeriodDays int
	FirstDays       int
	SecondDays      int
	FinalDays       int
}

type MessagingConfig struct {
	MaxAttempts    int
	RatePerSecond  float64
	Burst          int
	DispatchBatch  int
	BackoffSeconds int
}

type SchedulerConfig struct {
	RunIntervalSeconds     int
	ReminderScanHourUTC    int
	DispatchTimeoutSeconds int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "shulebooks"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DefaultBranchID: getenvInt64("DEFAULT_BRANCH", 0),
		Currency:        getenv("CURRENCY", "UGX"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "shulebooks"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		Logger: LoggerConfig{
			Level: getenv("LOG_LEVEL", "info"),
		},

		WhatsApp: WhatsAppConfig{
			BaseURL:            getenv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v19.0"),
			Token:              strings.TrimSpace(getenv("WHATSAPP_TOKEN", "")),
			PhoneNumberID:      strings.TrimSpace(getenv("WHATSAPP_PHONE_NUMBER_ID", "")),
			WebhookVerifyToken: strings.TrimSpace(getenv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", "")),
		},

		Reminder: ReminderConfig{
			GracePeriodDays: getenvInt("REMINDER_GRACE_DAYS", 3),
			FirstDays:       getenvInt("REMINDER_FIRST_DAYS", 7),
			SecondDays:      getenvInt("REMINDER_SECOND_DAYS", 15),
			FinalDays:       getenvInt("REMINDER_FINAL_DAYS", 30),
		},

		Messaging: MessagingConfig{
			MaxAttempts:    getenvInt("MESSAGING_MAX_ATTEMPTS", 5),
			RatePerSecond:  getenvFloat("MESSAGING_RATE_PER_SECOND", 10),
			Burst:          getenvInt("MESSAGING_BURST", 20),
			DispatchBatch:  getenvInt("MESSAGING_DISPATCH_BATCH", 50),
			BackoffSeconds: getenvInt("MESSAGING_BACKOFF_SECONDS", 30),
		},

		Scheduler: SchedulerConfig{
			RunIntervalSeconds:     getenvInt("SCHEDULER_RUN_INTERVAL_SECONDS", 60),
			ReminderScanHourUTC:    getenvInt("SCHEDULER_REMINDER_SCAN_HOUR_UTC", 6),
			DispatchTimeoutSeconds: getenvInt("SCHEDULER_DISPATCH_TIMEOUT_SECONDS", 30),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
