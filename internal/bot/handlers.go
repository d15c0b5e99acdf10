package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"ml-tracker/internal/database"
	"ml-tracker/internal/mercadolivre"
	"ml-tracker/internal/models"
	"ml-tracker/internal/monitor"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const commandTimeout = 60 * time.Second

// Handlers agrupa as dependências dos comandos do bot
type Handlers struct {
	bot             *tgbotapi.BotAPI
	db              *database.DB
	monitor         *monitor.Monitor
	api             *mercadolivre.Client
	defaultUndercut float64
	authorizedChat  int64
}

// SetupCommands processa os comandos do bot. Bloqueia até o canal de updates
// ser fechado.
func SetupCommands(bot *tgbotapi.BotAPI, db *database.DB, mon *monitor.Monitor, api *mercadolivre.Client, defaultUndercut float64, authorizedChat int64) {
	h := &Handlers{
		bot:             bot,
		db:              db,
		monitor:         mon,
		api:             api,
		defaultUndercut: defaultUndercut,
		authorizedChat:  authorizedChat,
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}

		parts := strings.Fields(update.Message.Text)
		if len(parts) == 0 {
			continue
		}

		command := strings.ToLower(parts[0])
		// Remover @botname se presente
		if idx := strings.Index(command, "@"); idx > 0 {
			command = command[:idx]
		}

		// /start e /help são públicos; o resto exige o chat autorizado
		isPublic := command == "/start" || command == "/help"
		if !isPublic && h.authorizedChat != 0 && update.Message.Chat.ID != h.authorizedChat {
			h.reply(update.Message, "Você não está autorizado a usar este bot.")
			continue
		}

		args := parts[1:]
		switch command {
		case "/start", "/help":
			h.handleHelp(update.Message)
		case "/add":
			h.handleAdd(update.Message, args)
		case "/list":
			h.handleList(update.Message)
		case "/remove":
			h.handleRemove(update.Message, args)
		case "/setprice":
			h.handleSetPrice(update.Message, args)
		case "/setundercut":
			h.handleSetUndercut(update.Message, args)
		case "/setmode":
			h.handleSetMode(update.Message, args)
		case "/check":
			h.handleCheck(update.Message, args)
		default:
			h.reply(update.Message, "Comando não reconhecido. Use /help para ver os comandos disponíveis.")
		}
	}
}

func (h *Handlers) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.Printf("Erro ao enviar resposta: %v", err)
	}
}

func (h *Handlers) handleHelp(message *tgbotapi.Message) {
	h.reply(message, "✅ ML Tracker ON (Listing + Catalog)\n\n"+
		"Comandos:\n"+
		"/add <MLB... ou link> <meu_preco> [undercut_reais] [mode]\n"+
		"mode: listing | catalog (padrão: listing)\n\n"+
		"/list\n"+
		"/remove <MLB...>\n"+
		"/setprice <MLB...> <meu_preco>\n"+
		"/setundercut <MLB...> <reais>\n"+
		"/setmode <MLB...> <listing|catalog>\n"+
		"/check <MLB...>\n")
}

func (h *Handlers) handleAdd(message *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		h.reply(message, "Uso: /add <MLB... ou link> <meu_preco> [undercut_reais] [listing|catalog]")
		return
	}

	itemID, ok := mercadolivre.ExtractItemID(args[0])
	if !ok {
		h.reply(message, "Não consegui identificar o ITEM_ID (MLB...). Envie MLB... ou link do anúncio.")
		return
	}

	myPrice, err := parseDecimal(args[1])
	if err != nil {
		h.reply(message, "Preço inválido. Ex: /add MLB123456789 299.90 1.00 catalog")
		return
	}

	undercut := h.defaultUndercut
	mode := models.ModeListing

	// O terceiro argumento pode ser a margem ou direto o modo
	if len(args) >= 3 {
		if m, err := models.ParseMode(args[2]); err == nil {
			mode = m
		} else if v, err := parseDecimal(args[2]); err == nil && v >= 0 {
			undercut = v
		} else {
			h.reply(message, "undercut_reais inválido. Ex: /add MLB123456789 299.90 1.00 catalog")
			return
		}
	}

	if len(args) >= 4 {
		m, err := models.ParseMode(args[3])
		if err != nil {
			h.reply(message, "Mode inválido. Use: listing ou catalog.")
			return
		}
		mode = m
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	it, err := h.api.GetItem(ctx, itemID)
	if err != nil || it.Price == nil {
		log.Printf("Comando /add %s: %v", itemID, err)
		h.reply(message, "Não consegui puxar o preço via API autenticada do ML. Verifique o item e tente de novo.")
		return
	}

	if mode == models.ModeCatalog && it.CatalogProductID == "" {
		h.reply(message, fmt.Sprintf(
			"⚠️ Esse item não está vinculado a catálogo (catalog_product_id vazio).\n"+
				"Use listing:\n/add %s %.2f %.2f listing", itemID, myPrice, undercut))
		return
	}

	item := &models.TrackedItem{
		ItemID:           itemID,
		Title:            it.Title,
		MyPrice:          myPrice,
		UndercutReais:    undercut,
		Mode:             mode,
		MySellerID:       it.SellerID,
		CatalogProductID: it.CatalogProductID,
		LastSeenPrice:    it.Price,
	}
	if err := h.db.UpsertItem(item); err != nil {
		h.reply(message, fmt.Sprintf("Erro ao salvar item: %v", err))
		return
	}

	catalogInfo := item.CatalogProductID
	if catalogInfo == "" {
		catalogInfo = "—"
	}
	h.reply(message, fmt.Sprintf(
		"✅ Adicionado:\n%s\nID: %s\nModo: %s\nPreço atual: %s\nSeu preço: R$ %.2f\nMargem: R$ %.2f\nCatalog ID: %s",
		item.Title, item.ItemID, item.Mode,
		models.FormatPrice(item.LastSeenPrice), item.MyPrice, item.UndercutReais, catalogInfo))
}

func (h *Handlers) handleList(message *tgbotapi.Message) {
	items, err := h.db.ListItems()
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao listar itens: %v", err))
		return
	}

	if len(items) == 0 {
		h.reply(message, "Nenhum item monitorado ainda. Use /add")
		return
	}

	var sb strings.Builder
	sb.WriteString("📦 Itens monitorados:")
	for _, it := range items {
		title := it.Title
		if len(title) > 80 {
			title = title[:80]
		}
		catalogInfo := it.CatalogProductID
		if catalogInfo == "" {
			catalogInfo = "—"
		}
		sb.WriteString(fmt.Sprintf(
			"\n\n• %s (%s)\n%s\nMeu: R$ %.2f | Margem: R$ %.2f\nÚltimo: %s | Estado: %s\nCatalog: %s",
			it.ItemID, it.Mode, title, it.MyPrice, it.UndercutReais,
			models.FormatPrice(it.LastSeenPrice), it.LastState, catalogInfo))
	}
	h.reply(message, sb.String())
}

func (h *Handlers) handleRemove(message *tgbotapi.Message, args []string) {
	if len(args) < 1 {
		h.reply(message, "Uso: /remove <MLB...>")
		return
	}
	itemID, ok := mercadolivre.ExtractItemID(args[0])
	if !ok {
		h.reply(message, "ITEM_ID inválido.")
		return
	}

	removed, err := h.db.RemoveItem(itemID)
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao remover item: %v", err))
		return
	}
	if !removed {
		h.reply(message, "Não encontrei esse item no monitoramento.")
		return
	}
	h.reply(message, "✅ Removido.")
}

func (h *Handlers) handleSetPrice(message *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		h.reply(message, "Uso: /setprice <MLB...> <meu_preco>")
		return
	}
	itemID, ok := mercadolivre.ExtractItemID(args[0])
	if !ok {
		h.reply(message, "ITEM_ID inválido.")
		return
	}
	price, err := parseDecimal(args[1])
	if err != nil {
		h.reply(message, "Preço inválido.")
		return
	}

	updated, err := h.db.SetMyPrice(itemID, price)
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao atualizar preço: %v", err))
		return
	}
	if !updated {
		h.reply(message, "Não encontrei esse item no monitoramento.")
		return
	}
	h.reply(message, "✅ Atualizado.")
}

func (h *Handlers) handleSetUndercut(message *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		h.reply(message, "Uso: /setundercut <MLB...> <reais>")
		return
	}
	itemID, ok := mercadolivre.ExtractItemID(args[0])
	if !ok {
		h.reply(message, "ITEM_ID inválido.")
		return
	}
	undercut, err := parseDecimal(args[1])
	if err != nil || undercut < 0 {
		h.reply(message, "Valor inválido. A margem deve ser um número maior ou igual a zero.")
		return
	}

	updated, err := h.db.SetUndercut(itemID, undercut)
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao atualizar margem: %v", err))
		return
	}
	if !updated {
		h.reply(message, "Não encontrei esse item no monitoramento.")
		return
	}
	h.reply(message, "✅ Atualizado.")
}

func (h *Handlers) handleSetMode(message *tgbotapi.Message, args []string) {
	if len(args) < 2 {
		h.reply(message, "Uso: /setmode <MLB...> <listing|catalog>")
		return
	}
	itemID, ok := mercadolivre.ExtractItemID(args[0])
	if !ok {
		h.reply(message, "Uso: /setmode <MLB...> <listing|catalog>")
		return
	}
	mode, err := models.ParseMode(args[1])
	if err != nil {
		h.reply(message, "Uso: /setmode <MLB...> <listing|catalog>")
		return
	}

	item, err := h.db.GetItem(itemID)
	if errors.Is(err, database.ErrNotFound) {
		h.reply(message, "Não encontrei esse item no monitoramento.")
		return
	}
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao buscar item: %v", err))
		return
	}

	// O modo catálogo exige um catalog_product_id conhecido
	if mode == models.ModeCatalog && item.CatalogProductID == "" {
		h.reply(message, "⚠️ Esse item não tem catalog_product_id. Use listing ou remova e adicione outro item.")
		return
	}

	if _, err := h.db.SetMode(itemID, mode); err != nil {
		h.reply(message, fmt.Sprintf("Erro ao atualizar modo: %v", err))
		return
	}
	h.reply(message, "✅ Modo atualizado.")
}

func (h *Handlers) handleCheck(message *tgbotapi.Message, args []string) {
	if len(args) < 1 {
		h.reply(message, "Uso: /check <MLB...>")
		return
	}
	itemID, ok := mercadolivre.ExtractItemID(args[0])
	if !ok {
		h.reply(message, "ITEM_ID inválido.")
		return
	}

	item, err := h.db.GetItem(itemID)
	if errors.Is(err, database.ErrNotFound) {
		h.reply(message, "Não encontrei esse item no monitoramento.")
		return
	}
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao buscar item: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	h.monitor.CheckItem(ctx, item)

	updated, err := h.db.GetItem(itemID)
	if err != nil {
		h.reply(message, fmt.Sprintf("Erro ao buscar item atualizado: %v", err))
		return
	}

	h.reply(message, fmt.Sprintf(
		"📊 %s (%s)\nMeu preço: R$ %.2f | Margem: R$ %.2f\nConcorrente: %s\nEstado: %s",
		updated.ItemID, updated.Mode, updated.MyPrice, updated.UndercutReais,
		models.FormatPrice(updated.LastSeenPrice), updated.LastState))
}

// parseDecimal aceita vírgula ou ponto como separador decimal
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
