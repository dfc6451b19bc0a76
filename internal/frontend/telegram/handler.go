package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieMate/internal/config"
	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/metadata/tmdb"
	"github.com/vadimtrunov/MovieMate/internal/session"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	resetMsg        = "Conversation reset. Send a message to start over."
	staleMsg        = "That result is no longer available. Ask me again!"
	helpMsg         = "Ask me about movies: search by title, recommend by genre, " +
		"find similar movies, or list what an actor or director made.\n\n" +
		"/reset starts a new conversation\n/clearcache drops cached movie data"

	cardPosterSize   = "w200"
	detailPosterSize = "w500"
)

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	logger := config.LoggerFromContext(ctx)
	chatID := msg.Chat.ID

	if msg.From == nil || !b.sessions.isAllowed(msg.From.ID) {
		b.sendText(ctx, chatID, unauthorizedMsg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	logger.Debug("received message", slog.Int64("user_id", msg.From.ID))

	// Show typing indicator.
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator

	state, turn := b.agent.Step(ctx, b.sessions.load(chatID), text)
	b.sessions.store(chatID, state)

	b.sendTurn(ctx, chatID, sessionTag(state.ID()), state.Len()-1, turn)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.sendText(ctx, chatID, session.Greeting)
	case "help":
		b.sendText(ctx, chatID, helpMsg)
	case "reset":
		b.sessions.reset(chatID)
		b.sendText(ctx, chatID, resetMsg)
	case "clearcache":
		n := b.cache.Len()
		b.cache.Clear()
		config.LoggerFromContext(ctx).Info("cache cleared", slog.Int("entries", n))
		b.sendText(ctx, chatID, fmt.Sprintf("Cache cleared (%d entries removed).", n))
	default:
		b.sendText(ctx, chatID, "Unknown command. Try /help.")
	}
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	logger := config.LoggerFromContext(ctx)

	// Acknowledge the callback immediately.
	b.api.Request(tgbotapi.NewCallback(cq.ID, "")) //nolint:errcheck // best-effort ack

	if cq.Message == nil || !b.sessions.isAllowed(cq.From.ID) {
		return
	}
	chatID := cq.Message.Chat.ID

	logger.Debug("received callback", slog.String("data", cq.Data))

	if cq.Data == callbackBack {
		b.sessions.store(chatID, b.sessions.load(chatID).ClearSelection())
		del := tgbotapi.NewDeleteMessage(chatID, cq.Message.MessageID)
		if _, err := b.api.Request(del); err != nil {
			logger.Debug("failed to delete detail message", slog.String("error", err.Error()))
		}
		return
	}

	tag, turnIdx, idx, ok := parseDetailsCallback(cq.Data)
	if !ok {
		return
	}

	// Buttons from a conversation that was reset point at another history.
	state := b.sessions.load(chatID)
	turn, ok := state.Turn(turnIdx)
	if !ok || tag != sessionTag(state.ID()) || idx >= len(turn.Results) {
		b.sendText(ctx, chatID, staleMsg)
		return
	}
	movie := turn.Results[idx]
	b.sessions.store(chatID, state.Select(movie))

	b.sendDetails(ctx, chatID, movie)
}

// sendTurn sends the assistant text followed by one card per attached result.
func (b *Bot) sendTurn(ctx context.Context, chatID int64, tag string, turnIdx int, turn session.Turn) {
	b.sendMarkdown(ctx, chatID, EscapeMdV2(turn.Content), turn.Content, nil)
	for i, m := range turn.Results {
		b.sendMovie(ctx, chatID, tmdb.PosterURL(m.PosterPath, cardPosterSize),
			FormatCard(i+1, m), m.Title, detailsKeyboard(tag, turnIdx, i))
	}
}

func (b *Bot) sendDetails(ctx context.Context, chatID int64, m core.Movie) {
	b.sendMovie(ctx, chatID, tmdb.PosterURL(m.PosterPath, detailPosterSize),
		FormatDetails(m), m.Title, backKeyboard())
}

// sendMovie sends a poster with a MarkdownV2 caption, falling back to a text
// message when there is no poster or Telegram rejects the photo.
func (b *Bot) sendMovie(ctx context.Context, chatID int64, posterURL, caption, plain string, kb tgbotapi.InlineKeyboardMarkup) {
	if posterURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(posterURL))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeMarkdownV2
		photo.ReplyMarkup = kb
		_, err := b.api.Send(photo)
		if err == nil {
			return
		}
		config.LoggerFromContext(ctx).Debug("failed to send poster",
			slog.String("url", posterURL),
			slog.String("error", err.Error()),
		)
	}
	b.sendMarkdown(ctx, chatID, caption, plain, &kb)
}

// sendMarkdown sends MarkdownV2 text and retries as plain text if Telegram
// rejects the markup.
func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, markdown, plain string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, markdown)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		config.LoggerFromContext(ctx).Warn("failed to send markdown, retrying plain",
			slog.String("error", err.Error()),
		)
		fallback := tgbotapi.NewMessage(chatID, plain)
		if kb != nil {
			fallback.ReplyMarkup = *kb
		}
		b.send(ctx, fallback)
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(ctx context.Context, msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		config.LoggerFromContext(ctx).Error("failed to send message",
			slog.Int64("chat_id", msg.ChatID),
			slog.String("error", err.Error()),
		)
	}
}
