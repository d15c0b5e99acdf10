package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config contém as configurações da aplicação
type Config struct {
	TelegramBotToken string
	TelegramChatID   int64

	CheckInterval   time.Duration
	DefaultUndercut float64
	DatabasePath    string

	// Credenciais OAuth do Mercado Livre
	MLAppID        string
	MLClientSecret string
	MLAccessToken  string
	MLRefreshToken string
	SiteID         string

	// Caminho do .env onde tokens renovados são persistidos
	EnvPath string

	// Endereço do servidor de métricas (vazio = desabilitado)
	MetricsAddr string
}

// Load carrega as configurações das variáveis de ambiente
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN não configurado")
	}

	cfg := &Config{
		TelegramBotToken: token,
		CheckInterval:    180 * time.Second,
		DefaultUndercut:  1.00,
		DatabasePath:     "./tracker.db",
		MLAppID:          os.Getenv("ML_APP_ID"),
		MLClientSecret:   os.Getenv("ML_CLIENT_SECRET"),
		MLAccessToken:    os.Getenv("ML_ACCESS_TOKEN"),
		MLRefreshToken:   os.Getenv("ML_REFRESH_TOKEN"),
		SiteID:           "MLB",
		EnvPath:          ".env",
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	// Chat ID para onde os alertas são enviados
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			cfg.TelegramChatID = chatID
		}
	}

	// Intervalo entre ciclos de verificação
	if envInterval := os.Getenv("CHECK_INTERVAL_SECONDS"); envInterval != "" {
		if parsed, err := strconv.Atoi(envInterval); err == nil && parsed > 0 {
			cfg.CheckInterval = time.Duration(parsed) * time.Second
		}
	}

	// Margem padrão usada pelo /add quando não informada
	if envUndercut := os.Getenv("DEFAULT_UNDERCUT_REAIS"); envUndercut != "" {
		if parsed, err := strconv.ParseFloat(envUndercut, 64); err == nil && parsed >= 0 {
			cfg.DefaultUndercut = parsed
		}
	}

	if envPath := os.Getenv("DATABASE_PATH"); envPath != "" {
		cfg.DatabasePath = envPath
	}

	if siteID := os.Getenv("ML_SITE_ID"); siteID != "" {
		cfg.SiteID = siteID
	}

	return cfg, nil
}
