package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Alerts    AlertsConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	ConnectBackoff  time.Duration
	SeedDefaults    bool
}

type AuthConfig struct {
	JWTSecret             string
	JWTIssuer             string
	SessionTTL            time.Duration
	PinRateLimitPerMinute int
	PinRateLimitBurst     int
}

type AlertsConfig struct {
	// EscalationThreshold is used when settings carry no positive threshold.
	EscalationThreshold float64
	CashflowDays        int
}

type SchedulerConfig struct {
	Enabled                 bool
	RenewalRolloverSchedule string
	SessionSweepSchedule    string
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	// SSE streams stay open, so write timeout defaults to disabled.
	writeTimeout, err := parseOptionalDurationEnv("SERVER_WRITE_TIMEOUT", 0)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:           getEnv("SERVER_HOST", "0.0.0.0"),
		Port:           serverPort,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		AllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS"),
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return cfg, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 2)
	if err != nil {
		return cfg, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return cfg, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	connectBackoff, err := parseDurationEnv("DB_CONNECT_BACKOFF", time.Second)
	if err != nil {
		return cfg, err
	}

	seedDefaults, err := parseBoolEnv("DB_SEED_DEFAULTS", true)
	if err != nil {
		return cfg, err
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "subtracker"),
		Password:        getEnv("DB_PASSWORD", "subtracker"),
		Name:            getEnv("DB_NAME", "subtracker"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
		ConnectBackoff:  connectBackoff,
		SeedDefaults:    seedDefaults,
	}

	sessionTTL, err := parseDurationEnv("PIN_SESSION_TTL", 15*time.Minute)
	if err != nil {
		return cfg, err
	}

	pinRateLimitPerMinute, err := parseIntEnv("PIN_RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return cfg, err
	}

	pinRateLimitBurst, err := parseIntEnv("PIN_RATE_LIMIT_BURST", 5)
	if err != nil {
		return cfg, err
	}

	cfg.Auth = AuthConfig{
		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTIssuer:             getEnv("JWT_ISSUER", "subtracker"),
		SessionTTL:            sessionTTL,
		PinRateLimitPerMinute: pinRateLimitPerMinute,
		PinRateLimitBurst:     pinRateLimitBurst,
	}

	escalationThreshold, err := parseFloatEnv("ALERT_ESCALATION_THRESHOLD", 50)
	if err != nil {
		return cfg, err
	}

	cashflowDays, err := parseIntEnv("CASHFLOW_DEFAULT_DAYS", 30)
	if err != nil {
		return cfg, err
	}

	cfg.Alerts = AlertsConfig{
		EscalationThreshold: escalationThreshold,
		CashflowDays:        cashflowDays,
	}

	schedulerEnabled, err := parseBoolEnv("SCHEDULER_ENABLED", true)
	if err != nil {
		return cfg, err
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:                 schedulerEnabled,
		RenewalRolloverSchedule: getEnv("RENEWAL_ROLLOVER_SCHEDULE", "0 5 * * *"),
		SessionSweepSchedule:    getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("PIN_SESSION_TTL must be greater than 0")
	}

	if c.Alerts.EscalationThreshold < 0 {
		return fmt.Errorf("ALERT_ESCALATION_THRESHOLD cannot be negative")
	}

	if c.Scheduler.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Scheduler.RenewalRolloverSchedule); err != nil {
			return fmt.Errorf("RENEWAL_ROLLOVER_SCHEDULE is invalid: %w", err)
		}
		if _, err := parser.Parse(c.Scheduler.SessionSweepSchedule); err != nil {
			return fmt.Errorf("SESSION_SWEEP_SCHEDULE is invalid: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}

	return parsed, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseOptionalDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}

	return parsed, nil
}

func parseCSVEnv(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
