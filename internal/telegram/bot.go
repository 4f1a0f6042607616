package telegram

import (
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
}

func NewBot(token, webhookURL string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	// set webhook
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, err
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, err
	}
	slog.Info("telegram: webhook set", "url", webhookURL, "bot", api.Self.UserName)

	return &Bot{api: api, h: NewHandlers(api, deps)}, nil
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	if m := update.Message; m != nil && m.Chat != nil {
		var from int64
		if m.From != nil {
			from = m.From.ID
		}
		slog.Info("webhook: message", "chat_id", m.Chat.ID, "from", from, "text", m.Text)
		go b.h.HandleMessage(m)
	} else {
		slog.Debug("webhook: non-message update received", "update_id", update.UpdateID)
	}
	w.WriteHeader(http.StatusOK)
}
