package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	OAuth       OAuthConfig
	Cloudinary  CloudinaryConfig
	MercadoPago MercadoPagoConfig
	Groq        GroqConfig
	Valuation   ValuationConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	PublicURL    string // external base URL, used for provider callbacks and back_urls
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// MercadoPagoConfig for checkout preferences and direct Pix payments.
// Timeout must fail fast relative to the provider's webhook retry window.
type MercadoPagoConfig struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ValuationConfig sets the fixed fee charged per AI evaluation.
type ValuationConfig struct {
	AmountCents int64
	Currency    string
	Title       string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Env:          env("APP_ENV", "development"),
			PublicURL:    env("PUBLIC_URL", "http://localhost:8080"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DATABASE_DSN", "autovalor:autovalor@tcp(localhost:3306)/autovalor?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "autovalor",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  env("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken: os.Getenv("MERCADO_PAGO_ACCESS_TOKEN"),
			BaseURL:     env("MERCADO_PAGO_BASE_URL", "https://api.mercadopago.com"),
			Timeout:     8 * time.Second,
		},
		Groq: GroqConfig{
			APIKey:  os.Getenv("GROQ_API_KEY"),
			BaseURL: env("GROQ_BASE_URL", "https://api.groq.com"),
			Model:   env("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},
		Valuation: ValuationConfig{
			AmountCents: envInt64("VALUATION_AMOUNT_CENTS", 990),
			Currency:    env("VALUATION_CURRENCY", "BRL"),
			Title:       "Avaliação AutoValorAI",
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
