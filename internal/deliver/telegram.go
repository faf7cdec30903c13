package deliver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	// ErrNoToken is returned when the bot token is empty.
	ErrNoToken = errors.New("no Telegram bot token configured")

	// ErrNoChat is returned when no chat is configured.
	ErrNoChat = errors.New("no Telegram chat configured")
)

// Telegram uploads documents through the Bot API. The bot is created on
// first use.
type Telegram struct {
	token    string
	chat     string
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// TelegramOption configures a Telegram channel.
type TelegramOption func(*Telegram)

// WithEndpoint overrides the Bot API endpoint format string
// ("https://api.telegram.org/bot%s/%s").
func WithEndpoint(endpoint string) TelegramOption {
	return func(t *Telegram) {
		if endpoint != "" {
			t.endpoint = endpoint
		}
	}
}

// WithTelegramHTTPClient sets the HTTP client.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTelegramLogger sets the logger.
func WithTelegramLogger(logger *slog.Logger) TelegramOption {
	return func(t *Telegram) {
		t.logger = logger
	}
}

// NewTelegram creates a channel posting to chat, a numeric chat id or an
// @channel name.
func NewTelegram(token, chat string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:    token,
		chat:     chat,
		endpoint: tgbotapi.APIEndpoint,
		client:   http.DefaultClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Chat returns the configured chat.
func (t *Telegram) Chat() string {
	return t.chat
}

// SendDocument uploads the file at path with a caption.
func (t *Telegram) SendDocument(ctx context.Context, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingAttachment, path)
	}

	doc, err := t.documentConfig(path, caption)
	if err != nil {
		return err
	}

	bot, err := t.botAPI()
	if err != nil {
		return err
	}

	msg, err := bot.Send(doc)
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}

	t.logger.Info("document sent to Telegram", "chat", t.chat, "message_id", msg.MessageID)
	return nil
}

func (t *Telegram) documentConfig(path, caption string) (tgbotapi.DocumentConfig, error) {
	chat := strings.TrimSpace(t.chat)
	if chat == "" {
		return tgbotapi.DocumentConfig{}, ErrNoChat
	}

	var doc tgbotapi.DocumentConfig
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		doc = tgbotapi.NewDocument(id, tgbotapi.FilePath(path))
	} else {
		doc = tgbotapi.NewDocument(0, tgbotapi.FilePath(path))
		doc.ChannelUsername = "@" + strings.TrimPrefix(chat, "@")
	}
	doc.Caption = caption
	return doc, nil
}

func (t *Telegram) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	if t.token == "" {
		return nil, ErrNoToken
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	t.bot = bot
	return bot, nil
}
