package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is "json" or "text".
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Database Database
	Auth     Auth
	Mail     Mail
	Payments Payments

	// FrontendURL is the base for reset links and checkout redirects.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	// RedisURL backs the consumed reset-token set. Empty keeps it in process.
	RedisURL string `env:"REDIS_URL"`
	// SlackWebhookURL receives manual reconciliation alerts. Empty disables them.
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
}

type Database struct {
	// URL empty selects the in-memory store (development only).
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
}

type Auth struct {
	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ResetTTL          time.Duration `env:"RESET_TTL" envDefault:"15m"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	MinPasswordLength int           `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
}

type Mail struct {
	// Provider is "sendgrid", "postmark" or "log".
	Provider             string        `env:"MAIL_PROVIDER" envDefault:"log"`
	SendGridAPIKey       string        `env:"SENDGRID_API_KEY"`
	PostmarkServerToken  string        `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string        `env:"POSTMARK_ACCOUNT_TOKEN"`
	From                 string        `env:"MAIL_FROM" envDefault:"no-reply@streamgate.local"`
	FromName             string        `env:"MAIL_FROM_NAME" envDefault:"Streamgate"`
	Timeout              time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
}

type Payments struct {
	// Provider is "hmac" or "paddle".
	Provider         string        `env:"PAYMENT_PROVIDER" envDefault:"hmac"`
	WebhookSecret    string        `env:"WEBHOOK_SECRET"`
	SignatureHeader  string        `env:"WEBHOOK_SIGNATURE_HEADER" envDefault:"Stripe-Signature"`
	WebhookTolerance time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`

	CheckoutAPIURL      string `env:"CHECKOUT_API_URL"`
	CheckoutAPIKey      string `env:"CHECKOUT_API_KEY"`
	CheckoutAmount      int64  `env:"CHECKOUT_AMOUNT" envDefault:"2000"`
	CheckoutCurrency    string `env:"CHECKOUT_CURRENCY" envDefault:"xof"`
	CheckoutProductName string `env:"CHECKOUT_PRODUCT_NAME" envDefault:"Abonnement Standard"`

	PaddleAPIKey      string `env:"PADDLE_API_KEY"`
	PaddleEnvironment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PaddlePriceID     string `env:"PADDLE_PRICE_ID"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mail.Provider {
	case "log":
	case "sendgrid":
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("%w: SENDGRID_API_KEY is required for the sendgrid provider", ErrInvalidConfig)
		}
	case "postmark":
		if c.Mail.PostmarkServerToken == "" || c.Mail.PostmarkAccountToken == "" {
			return fmt.Errorf("%w: postmark server and account tokens are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown MAIL_PROVIDER %q", ErrInvalidConfig, c.Mail.Provider)
	}

	switch c.Payments.Provider {
	case "hmac":
	case "paddle":
		if c.Payments.PaddleAPIKey == "" {
			return fmt.Errorf("%w: PADDLE_API_KEY is required for the paddle provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown PAYMENT_PROVIDER %q", ErrInvalidConfig, c.Payments.Provider)
	}

	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("%w: MIN_PASSWORD_LENGTH must be positive", ErrInvalidConfig)
	}
	if c.Database.StoreTimeout <= 0 {
		return fmt.Errorf("%w: STORE_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return nil
}
