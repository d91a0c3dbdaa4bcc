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

	DefaultCurrency string
	ReceiptDir      string

	SMTP SMTPConfig

	Providers ProvidersConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ProviderConfig enumerates one gateway's startup options. The set is
// immutable after Load and injected explicitly wherever it is needed.
type ProviderConfig struct {
	Enabled       bool
	Primary       bool
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

type ProvidersConfig struct {
	Paystack    ProviderConfig
	Flutterwave ProviderConfig
	Remita      ProviderConfig
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "matricula"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "matricula"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DefaultCurrency:   getenv("DEFAULT_CURRENCY", "NGN"),
		ReceiptDir:        getenv("RECEIPT_DIR", "receipts"),
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@matricula.local"),
		},
		Providers: ProvidersConfig{
			Paystack:    loadProvider("PAYSTACK", "https://api.paystack.co"),
			Flutterwave: loadProvider("FLUTTERWAVE", "https://api.flutterwave.com/v3"),
			Remita:      loadProvider("REMITA", "https://remitademo.net/remita/exapp/api/v1"),
		},
	}

	return cfg
}

func loadProvider(prefix string, defaultBaseURL string) ProviderConfig {
	return ProviderConfig{
		Enabled:       getenvBool(prefix+"_ENABLED", false),
		Primary:       getenvBool(prefix+"_PRIMARY", false),
		SecretKey:     strings.TrimSpace(getenv(prefix+"_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(getenv(prefix+"_WEBHOOK_SECRET", "")),
		BaseURL:       strings.TrimRight(getenv(prefix+"_BASE_URL", defaultBaseURL), "/"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
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
