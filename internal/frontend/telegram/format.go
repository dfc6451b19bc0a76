package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

const (
	callbackDetails = "det:" // det:<session tag>:<turn>:<index>
	callbackBack    = "back"

	cardOverviewLen   = 200
	detailOverviewLen = 700 // keeps detail captions under Telegram's 1024 limit
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// FormatCard renders one result as a short MarkdownV2 caption.
func FormatCard(n int, m core.Movie) string {
	var sb strings.Builder
	sb.WriteString(FormatBold(fmt.Sprintf("%d. %s", n, m.Title)))
	if y := year(m); y != "" {
		sb.WriteString(" " + FormatItalic("("+y+")"))
	}
	if line := ratingLine(m); line != "" {
		sb.WriteString("\n" + EscapeMdV2(line))
	}
	if m.Overview != "" {
		sb.WriteString("\n\n" + EscapeMdV2(truncate(m.Overview, cardOverviewLen)))
	}
	return sb.String()
}

// FormatDetails renders the detail view of a selected movie.
func FormatDetails(m core.Movie) string {
	var sb strings.Builder
	sb.WriteString(FormatBold(m.Title))
	if y := year(m); y != "" {
		sb.WriteString(" " + FormatItalic("("+y+")"))
	}
	sb.WriteString("\n\n" + FormatBold("Director:") + " " + EscapeMdV2(m.Director))
	if len(m.Cast) > 0 {
		sb.WriteString("\n" + FormatBold("Cast:") + " " + EscapeMdV2(strings.Join(m.Cast, ", ")))
	}
	if line := ratingLine(m); line != "" {
		sb.WriteString("\n" + EscapeMdV2(line))
	}
	if m.Overview != "" {
		sb.WriteString("\n\n" + EscapeMdV2(truncate(m.Overview, detailOverviewLen)))
	}
	return sb.String()
}

// sessionTag shortens a session ID for callback data, which Telegram limits
// to 64 bytes.
func sessionTag(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// detailsKeyboard returns the "Show details" button for result idx of a turn
// in the conversation identified by tag.
func detailsKeyboard(tag string, turn, idx int) tgbotapi.InlineKeyboardMarkup {
	data := fmt.Sprintf("%s%s:%d:%d", callbackDetails, tag, turn, idx)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Show details", data)),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("« Back to results", callbackBack)),
	)
}

// parseDetailsCallback decodes "det:<tag>:<turn>:<index>".
func parseDetailsCallback(data string) (tag string, turn, idx int, ok bool) {
	rest, found := strings.CutPrefix(data, callbackDetails)
	if !found {
		return "", 0, 0, false
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	turn, err := strconv.Atoi(parts[1])
	if err != nil || turn < 0 {
		return "", 0, 0, false
	}
	idx, err = strconv.Atoi(parts[2])
	if err != nil || idx < 0 {
		return "", 0, 0, false
	}
	return parts[0], turn, idx, true
}

func year(m core.Movie) string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

func ratingLine(m core.Movie) string {
	if m.VoteCount == 0 {
		return ""
	}
	return fmt.Sprintf("⭐ %.1f (%d votes)", m.VoteAverage, m.VoteCount)
}

// truncate shortens s to at most n runes, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
