// Package config содержит логику чтения конфигурации сервиса House In Meta.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса House In Meta.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	BaseURL         string `env:"BASE_URL"`
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	SMTPHost        string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort        int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser        string `env:"GMAIL_USER"`
	SMTPPassword    string `env:"GMAIL_APP_PASSWORD"`
	SupportEmail    string `env:"SUPPORT_EMAIL" envDefault:"support@houseinmeta.com"`
	NotifyEmail     string `env:"NOTIFY_EMAIL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Рядом лежащий файл .env подхватывается до разбора окружения.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envBaseURL := cfg.BaseURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:3000", "address and port for HTTP server")
	flag.StringVar(&cfg.BaseURL, "b", "http://localhost:3000", "base URL of the backend API")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envBaseURL != "" {
		cfg.BaseURL = envBaseURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:3000"
	}

	return cfg, nil
}

// MailConfigured сообщает, заданы ли учётные данные SMTP.
// При их отсутствии сервис работает, но письма не отправляются.
func (c *Config) MailConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPassword != ""
}

// PaymentConfigured сообщает, задан ли секретный ключ платёжного провайдера.
func (c *Config) PaymentConfigured() bool {
	return c.StripeSecretKey != ""
}
