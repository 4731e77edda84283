package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Donation      DonationConfig      `mapstructure:"donation"`
	Notification  NotificationConfig  `mapstructure:"notification"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type StripeConfig struct {
	SecretKey     string        `mapstructure:"secret_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
}

// DonationConfig carries product policy values. The bounds are policy, not
// design invariants, so they stay configurable.
type DonationConfig struct {
	MinAmount float64 `mapstructure:"min_amount"`
	MaxAmount float64 `mapstructure:"max_amount"`
}

type NotificationConfig struct {
	SMTPHost            string `mapstructure:"smtp_host"`
	SMTPPort            int    `mapstructure:"smtp_port"`
	SMTPUsername        string `mapstructure:"smtp_username"`
	SMTPPassword        string `mapstructure:"smtp_password"`
	FromAddress         string `mapstructure:"from_address"`
	ReplyToAddress      string `mapstructure:"reply_to_address"`
	AdminAddress        string `mapstructure:"admin_address"`
	OrganizationName    string `mapstructure:"organization_name"`
	OrganizationAddress string `mapstructure:"organization_address"`
	TaxID               string `mapstructure:"tax_id"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds a Config from environment variables for container
// deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			CallTimeout:   30 * time.Second,
		},
		Donation: DonationConfig{
			MinAmount: getEnvAsFloat("DONATION_MIN_AMOUNT", 5),
			MaxAmount: getEnvAsFloat("DONATION_MAX_AMOUNT", 10000),
		},
		Notification: NotificationConfig{
			SMTPHost:            getEnv("SMTP_HOST", ""),
			SMTPPort:            getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:        getEnv("SMTP_USERNAME", ""),
			SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
			FromAddress:         getEnv("EMAIL_FROM", "donations@bbe.org"),
			ReplyToAddress:      getEnv("EMAIL_REPLY_TO", "info@bbe.org"),
			AdminAddress:        getEnv("ADMIN_EMAIL", "admin@bbe.org"),
			OrganizationName:    getEnv("ORG_NAME", "Beyond Borders Empowerment"),
			OrganizationAddress: getEnv("ORG_ADDRESS", ""),
			TaxID:               getEnv("ORG_TAX_ID", ""),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Stripe.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("stripe config: %v", err))
	}

	if err := c.Donation.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("donation config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("webhook_secret is required")
	}
	return nil
}

func (c *DonationConfig) Validate() error {
	if c.MinAmount <= 0 {
		return errors.New("min_amount must be positive")
	}
	if c.MaxAmount <= c.MinAmount {
		return errors.New("max_amount must be greater than min_amount")
	}
	return nil
}
