package watch

import (
	"log/slog"

	"github.com/buttonwatch/buttonwatch/watch/internal/sink"
)

// Notifier delivers change notifications.
type Notifier = sink.Notifier

// NotifyFunc adapts a function into a Notifier.
type NotifyFunc = sink.NotifyFunc

// NewConsoleSink writes notifications to stdout (or a given writer).
var NewConsoleSink = sink.NewConsole

// NewTelegramSink sends notifications through the Telegram Bot API.
// It fails when chatID is not a decimal integer.
func NewTelegramSink(botToken, chatID string, opts ...sink.TelegramOption) (*sink.Telegram, error) {
	return sink.NewTelegram(botToken, chatID, opts...)
}

// NewWebhookSink POSTs change envelopes to an HTTP endpoint.
var NewWebhookSink = sink.NewWebhook

// NewCallbackSink invokes a function per change.
var NewCallbackSink = sink.NewCallback

// NewSinkRouter fans one change out to every notifier, logging failures
// and returning the first one.
func NewSinkRouter(logger *slog.Logger, notifiers ...Notifier) *sink.Router {
	return sink.NewRouter(logger, notifiers...)
}
