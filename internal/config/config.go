package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	// CBR key-rate integration, used to default loan interest rates.
	CBRURL string

	// SMTP settings for forecast warnings and payment reminders.
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	NotifyEmail  string

	// Forecast parameters.
	WarningThreshold float64
	ForecastDays     int

	// Engine safety caps; zero keeps the engine defaults.
	MaxOccurrences   int
	MaxPayoffPeriods int
	StagnantPeriods  int

	// Cron spec of the daily forecast check.
	ForecastSchedule string
}

// NewConfig loads configuration from the environment, reading a .env
// file first when present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=finplan password=finplan dbname=finplan sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		CBRURL:           getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", ""),
		NotifyEmail:      getEnv("NOTIFY_EMAIL", ""),
		ForecastSchedule: getEnv("FORECAST_SCHEDULE", "0 8 * * *"),
	}

	var err error
	if cfg.WarningThreshold, err = getFloat("WARNING_THRESHOLD", 100); err != nil {
		return nil, err
	}
	if cfg.ForecastDays, err = getInt("FORECAST_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.MaxOccurrences, err = getInt("MAX_OCCURRENCES", 0); err != nil {
		return nil, err
	}
	if cfg.MaxPayoffPeriods, err = getInt("MAX_PAYOFF_PERIODS", 0); err != nil {
		return nil, err
	}
	if cfg.StagnantPeriods, err = getInt("STAGNANT_PERIODS", 0); err != nil {
		return nil, err
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.ForecastDays <= 0 {
		return nil, fmt.Errorf("FORECAST_DAYS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
