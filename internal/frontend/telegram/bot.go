package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieMate/internal/agent"
	"github.com/vadimtrunov/MovieMate/internal/config"
	"github.com/vadimtrunov/MovieMate/internal/core"
)

// botAPI is the subset of tgbotapi.BotAPI used to talk back to Telegram.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// CacheClearer empties the shared result cache for the /clearcache command.
type CacheClearer interface {
	Len() int
	Clear()
}

// Bot is the Telegram frontend for MovieMate.
// It implements the core.Frontend interface.
type Bot struct {
	bot      *tgbotapi.BotAPI
	api      botAPI
	agent    *agent.Agent
	cache    CacheClearer
	sessions *sessionManager
	logger   *slog.Logger
}

// compile-time check.
var _ core.Frontend = (*Bot)(nil)

// New creates a new Telegram Bot. All chats share the agent and cache; each
// chat keeps its own conversation state.
func New(token string, allowedUserIDs []int64, a *agent.Agent, cache CacheClearer, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := newBot(api, allowedUserIDs, a, cache, logger)
	b.bot = api
	return b, nil
}

func newBot(api botAPI, allowedUserIDs []int64, a *agent.Agent, cache CacheClearer, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		agent:    a,
		cache:    cache,
		sessions: newSessionManager(allowedUserIDs),
		logger:   logger,
	}
}

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled.
// Updates are handled one at a time, so a chat never sees interleaved turns.
func (b *Bot) Start(ctx context.Context) error {
	if b.bot == nil {
		return fmt.Errorf("telegram bot is not connected")
	}

	b.logger.Info("telegram bot started",
		slog.String("username", b.bot.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops the bot (no-op, Start returns when ctx is canceled).
func (b *Bot) Stop(_ context.Context) error {
	return nil
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	chat := update.FromChat()
	if chat == nil {
		return
	}
	ctx = config.ContextWithLogger(ctx, b.logger.With(slog.Int64("chat_id", chat.ID)))

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
