package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier envia alertas de monitoramento para o chat do operador
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier cria um notifier para o chat configurado
func NewNotifier(bot *tgbotapi.BotAPI, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// Send entrega uma mensagem de texto ao operador
func (n *Notifier) Send(text string) error {
	if n.chatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID não configurado no .env")
	}
	_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text))
	return err
}
