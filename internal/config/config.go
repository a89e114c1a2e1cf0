package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Environment    string          `mapstructure:"environment"`
	Server         ServerConfig    `mapstructure:"server"`
	Database       DatabaseConfig  `mapstructure:"database"`
	JWT            JWTConfig       `mapstructure:"jwt"`
	Redis          RedisConfig     `mapstructure:"redis"`
	Outbox         OutboxConfig    `mapstructure:"outbox"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	CORS           CORSConfig      `mapstructure:"cors"`
	PayPal         PayPalConfig    `mapstructure:"paypal"`
	SMTP           SMTPConfig      `mapstructure:"smtp"`
	Twilio         TwilioConfig    `mapstructure:"twilio"`
	Worker         WorkerConfig    `mapstructure:"worker"`
	Payments       PaymentsConfig  `mapstructure:"payments"`
	Audit          AuditConfig     `mapstructure:"audit"`
	Superuser      SuperuserConfig `mapstructure:"superuser"`
	Log            LogConfig       `mapstructure:"log"`
	StaticRoot     string          `mapstructure:"static_root"`
	MigrationsPath string          `mapstructure:"migrations_path"`
	Timezone       string          `mapstructure:"timezone"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

// DSN returns the lib/pq keyword connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the postgres:// form golang-migrate expects.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
	Issuer             string `mapstructure:"issuer"`
}

type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	PoolSize      int           `mapstructure:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns"`
	ChannelPrefix string        `mapstructure:"channel_prefix"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxDeliveries int           `mapstructure:"max_deliveries"`
	RetentionDays int           `mapstructure:"retention_days"`
}

type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	TTL               time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type PayPalConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether credentials for the gateway were supplied.
func (c PayPalConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type WorkerConfig struct {
	HealthPort       int    `mapstructure:"health_port"`
	ExpirySchedule   string `mapstructure:"expiry_schedule"`
	ReminderSchedule string `mapstructure:"reminder_schedule"`
	CleanupSchedule  string `mapstructure:"cleanup_schedule"`
}

type PaymentsConfig struct {
	PendingTTL        time.Duration `mapstructure:"pending_ttl"`
	OfflinePendingTTL time.Duration `mapstructure:"offline_pending_ttl"`
	Currency          string        `mapstructure:"currency"`
}

type AuditConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
	BufferSize    int `mapstructure:"buffer_size"`
}

type SuperuserConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// envOverlay holds the flat variables container platforms set. Non-empty
// values win over the config file.
type envOverlay struct {
	DBName             string `envconfig:"DB_NAME"`
	DBUser             string `envconfig:"DB_USER"`
	DBPassword         string `envconfig:"DB_PASSWORD"`
	DBHost             string `envconfig:"DB_HOST"`
	DBPort             int    `envconfig:"DB_PORT"`
	DBSSLMode          string `envconfig:"DB_SSLMODE"`
	SecretKey          string `envconfig:"SECRET_KEY"`
	RefreshSecretKey   string `envconfig:"REFRESH_SECRET_KEY"`
	PayPalClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
	PayPalBaseURL      string `envconfig:"PAYPAL_BASE_URL"`
	RedisURL           string `envconfig:"REDIS_URL"`
	SMTPHost           string `envconfig:"SMTP_HOST"`
	SMTPPort           int    `envconfig:"SMTP_PORT"`
	SMTPUsername       string `envconfig:"SMTP_USERNAME"`
	SMTPPassword       string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom           string `envconfig:"SMTP_FROM"`
	TwilioAccountSID   string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber   string `envconfig:"TWILIO_FROM_NUMBER"`
	SuperuserUsername  string `envconfig:"SUPERUSER_USERNAME"`
	SuperuserEmail     string `envconfig:"SUPERUSER_EMAIL"`
	SuperuserPassword  string `envconfig:"SUPERUSER_PASSWORD"`
	StaticRoot         string `envconfig:"STATIC_ROOT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("timezone", "Local")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_lifetime", 5*time.Minute)

	v.SetDefault("jwt.expiry_hours", 1)
	v.SetDefault("jwt.refresh_expiry_hours", 24)
	v.SetDefault("jwt.issuer", "clinic-api")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.channel_prefix", "clinic")

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.max_deliveries", 5)
	v.SetDefault("outbox.retention_days", 7)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.ttl", 10*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("paypal.base_url", "https://api-m.sandbox.paypal.com")
	v.SetDefault("paypal.timeout", 30*time.Second)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@clinic.local")

	v.SetDefault("worker.health_port", 8081)
	v.SetDefault("worker.expiry_schedule", "@every 15m")
	v.SetDefault("worker.reminder_schedule", "0 9 * * *")
	v.SetDefault("worker.cleanup_schedule", "@daily")

	v.SetDefault("payments.pending_ttl", 30*time.Minute)
	v.SetDefault("payments.offline_pending_ttl", 72*time.Hour)
	v.SetDefault("payments.currency", "USD")

	v.SetDefault("audit.retention_days", 90)
	v.SetDefault("audit.buffer_size", 256)

	v.SetDefault("log.level", "info")

	v.SetDefault("static_root", "staticfiles")
	v.SetDefault("migrations_path", "migrations")
}

// Load reads .env, then the YAML file (config/config.yaml unless path is
// set), then environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverlay
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	env.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (e envOverlay) apply(cfg *Config) {
	setString(&cfg.Database.Name, e.DBName)
	setString(&cfg.Database.User, e.DBUser)
	setString(&cfg.Database.Password, e.DBPassword)
	setString(&cfg.Database.Host, e.DBHost)
	setString(&cfg.Database.SSLMode, e.DBSSLMode)
	if e.DBPort != 0 {
		cfg.Database.Port = e.DBPort
	}

	setString(&cfg.JWT.Secret, e.SecretKey)
	setString(&cfg.JWT.RefreshSecret, e.RefreshSecretKey)

	setString(&cfg.PayPal.ClientID, e.PayPalClientID)
	setString(&cfg.PayPal.ClientSecret, e.PayPalClientSecret)
	setString(&cfg.PayPal.BaseURL, e.PayPalBaseURL)

	setString(&cfg.Redis.URL, e.RedisURL)

	setString(&cfg.SMTP.Host, e.SMTPHost)
	setString(&cfg.SMTP.Username, e.SMTPUsername)
	setString(&cfg.SMTP.Password, e.SMTPPassword)
	setString(&cfg.SMTP.From, e.SMTPFrom)
	if e.SMTPPort != 0 {
		cfg.SMTP.Port = e.SMTPPort
	}

	setString(&cfg.Twilio.AccountSID, e.TwilioAccountSID)
	setString(&cfg.Twilio.AuthToken, e.TwilioAuthToken)
	setString(&cfg.Twilio.FromNumber, e.TwilioFromNumber)

	setString(&cfg.Superuser.Username, e.SuperuserUsername)
	setString(&cfg.Superuser.Email, e.SuperuserEmail)
	setString(&cfg.Superuser.Password, e.SuperuserPassword)

	setString(&cfg.StaticRoot, e.StaticRoot)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (SECRET_KEY)")
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = c.JWT.Secret
	}
	if c.JWT.ExpiryHours <= 0 || c.JWT.RefreshExpiryHours <= 0 {
		return errors.New("jwt expiry hours must be positive")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Location resolves Timezone, the zone reservation slots are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
