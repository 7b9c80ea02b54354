package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	userAgent = "dts-converter/1.0"

	// DefaultAPIURL is the Telegram Bot API base URL.
	DefaultAPIURL = "https://api.telegram.org"

	// maxMessageRunes is Telegram's limit for a message text.
	maxMessageRunes = 4096
)

// Notifier delivers a human-readable message to an operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Config configures notification delivery.
type Config struct {
	Enabled        bool
	TelegramToken  string
	TelegramChatID string
	TelegramAPIURL string
	RequestTimeout time.Duration
}

// New builds a Telegram notifier when enabled and fully configured. Otherwise
// a no-op implementation is returned.
func New(cfg Config) Notifier {
	token := strings.TrimSpace(cfg.TelegramToken)
	chatID := strings.TrimSpace(cfg.TelegramChatID)
	if !cfg.Enabled || token == "" || chatID == "" {
		return Noop{}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.TelegramAPIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Telegram{
		endpoint: apiURL + "/bot" + token + "/sendMessage",
		chatID:   chatID,
		client:   &http.Client{Timeout: timeout},
	}
}

// Noop discards every message.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, string) error { return nil }

// Telegram sends HTML-formatted messages through the Bot API sendMessage
// method.
type Telegram struct {
	endpoint string
	chatID   string
	client   *http.Client
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify implements Notifier.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if t == nil || t.client == nil {
		return nil
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      truncateRunes(message, maxMessageRunes),
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		return fmt.Errorf("send telegram message: %w", redact(err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, describe(raw))
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && !parsed.OK {
		return fmt.Errorf("telegram rejected message: %s", parsed.Description)
	}
	return nil
}

func describe(raw []byte) string {
	var parsed sendMessageResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Description != "" {
		return parsed.Description
	}
	return strings.TrimSpace(string(raw))
}

// redact strips the request URL from net/http client errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
