package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ml-tracker/config"
	"ml-tracker/internal/bot"
	"ml-tracker/internal/database"
	"ml-tracker/internal/mercadolivre"
	"ml-tracker/internal/metrics"
	"ml-tracker/internal/monitor"
	"ml-tracker/internal/scraper"

	"github.com/joho/godotenv"
)

func main() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		log.Println("Arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializar banco de dados
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Erro ao inicializar banco de dados: %v", err)
	}
	defer db.Close()

	// Inicializar bot do Telegram
	telegramBot, err := bot.Init(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Erro ao inicializar bot do Telegram: %v", err)
	}

	// Cliente da API do Mercado Livre com renovação de token injetada
	tokens := mercadolivre.NewTokenSource(mercadolivre.TokenSourceConfig{
		AppID:        cfg.MLAppID,
		ClientSecret: cfg.MLClientSecret,
		AccessToken:  cfg.MLAccessToken,
		RefreshToken: cfg.MLRefreshToken,
		EnvPath:      cfg.EnvPath,
	})
	api := mercadolivre.NewClient(cfg.SiteID, tokens)

	// Fallback de scraping da página pública para o modo listing
	registry := scraper.NewRegistry()

	resolver := monitor.NewResolver(api, registry)
	notifier := bot.NewNotifier(telegramBot, cfg.TelegramChatID)

	// Criar gerenciador de monitoramento
	monitorInstance := monitor.New(db, resolver, notifier, cfg.CheckInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Iniciar monitoramento em background
	go monitorInstance.Start(ctx)

	// Servidor de métricas (opcional)
	if cfg.MetricsAddr != "" {
		go func() {
			log.Printf("Servidor de métricas em %s", cfg.MetricsAddr)
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Printf("Erro no servidor de métricas: %v", err)
			}
		}()
	}

	// Configurar comandos do bot
	go bot.SetupCommands(telegramBot, db, monitorInstance, api, cfg.DefaultUndercut, cfg.TelegramChatID)

	// Aguardar sinal de interrupção
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Encerrando bot...")
}
