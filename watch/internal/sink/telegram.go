package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/buttonwatch/buttonwatch/watch/change"
)

// DefaultTelegramAPI is the production Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram delivers change alerts through the Telegram Bot API
// (sendMessage) with retry and exponential backoff.
type Telegram struct {
	baseURL    string
	token      string
	chatID     int64
	client     *http.Client
	maxRetries int
	logger     *slog.Logger
}

// TelegramOption configures a Telegram notifier.
type TelegramOption func(*Telegram)

// WithTelegramAPI overrides the Bot API base URL (tests).
func WithTelegramAPI(url string) TelegramOption {
	return func(t *Telegram) { t.baseURL = url }
}

// WithTelegramRetries sets the maximum number of retries. Default: 3.
func WithTelegramRetries(n int) TelegramOption {
	return func(t *Telegram) { t.maxRetries = n }
}

// WithTelegramLogger sets a custom logger.
func WithTelegramLogger(l *slog.Logger) TelegramOption {
	return func(t *Telegram) { t.logger = l }
}

// NewTelegram creates a Telegram notifier. chatID must be the numeric chat
// identifier; a non-integer value is a construction error and the session
// then runs console-only rather than aborting.
func NewTelegram(botToken, chatID string, opts ...TelegramOption) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: chat id %q is not an integer: %w", chatID, err)
	}

	t := &Telegram{
		baseURL:    DefaultTelegramAPI,
		token:      botToken,
		chatID:     id,
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

func (t *Telegram) Notify(ctx context.Context, c change.Change) error {
	body, err := json.Marshal(map[string]any{
		"chat_id": t.chatID,
		"text":    c.ChatMessage(),
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("telegram: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
			t.logger.Warn("telegram: request failed", "attempt", attempt+1, "error", err)
			continue
		}

		var result struct {
			OK          bool   `json:"ok"`
			Description string `json:"description"`
		}
		decErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 && decErr == nil && result.OK {
			return nil
		}
		if decErr != nil {
			lastErr = fmt.Errorf("telegram: decode response: %w", decErr)
		} else {
			lastErr = fmt.Errorf("telegram: status %d: %s", resp.StatusCode, result.Description)
		}
		t.logger.Warn("telegram: bad response", "attempt", attempt+1, "status", resp.StatusCode)
	}
	return fmt.Errorf("telegram: all retries exhausted: %w", lastErr)
}

func (t *Telegram) Close() error { return nil }
