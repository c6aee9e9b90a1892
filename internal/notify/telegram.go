// Package notify sends daily-run summaries to Telegram, adapted from the
// teacher's internal/telegram/client.go Bot API POST pattern.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Telegram sends messages via the Telegram Bot API's sendMessage call.
type Telegram struct {
	BotToken   string
	ChatID     string
	HTTPClient *http.Client
	DebugLog   bool
}

// NewTelegram returns a Telegram client. A blank token or chat ID is
// tolerated: Notify degrades to a logged no-op, matching the teacher's
// credential-presence check in client.go.
func NewTelegram(botToken, chatID string, debugLog bool) *Telegram {
	return &Telegram{
		BotToken:   botToken,
		ChatID:     chatID,
		HTTPClient: http.DefaultClient,
		DebugLog:   debugLog,
	}
}

// Notify posts text to the configured chat, logging and returning rather
// than erroring the whole daily run if Telegram is unreachable: a failed
// notification must never fail the run that already saved the store.
func (t *Telegram) Notify(text string) {
	if t.BotToken == "" || t.ChatID == "" {
		log.Println("notify: Telegram credentials missing, skipping notification")
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	if t.DebugLog {
		log.Printf("[DEBUG] notify: Telegram message: %s", text)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: marshaling Telegram payload: %v", err)
		return
	}

	resp, err := t.HTTPClient.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("notify: Telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("notify: Telegram returned status %d", resp.StatusCode)
	}
}
