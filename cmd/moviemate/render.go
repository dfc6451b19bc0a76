package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/metadata/tmdb"
	"github.com/vadimtrunov/MovieMate/internal/session"
)

const (
	cardOverviewLen = 160
	minRenderWidth  = 30
)

// renderTurn renders an assistant turn: its text followed by one card per result.
func renderTurn(turn session.Turn, width int) string {
	var sb strings.Builder
	sb.WriteString(styleAssistant.Render(turn.Content))
	for i, m := range turn.Results {
		sb.WriteString("\n")
		sb.WriteString(renderCard(i+1, m, width))
	}
	return sb.String()
}

// renderCard renders one result as a bordered card.
func renderCard(n int, m core.Movie, width int) string {
	lines := []string{titleLine(n, m)}
	if m.Director != "" && m.Director != core.UnknownDirector {
		lines = append(lines, styleDim.Render("Directed by "+m.Director))
	}
	if m.Overview != "" {
		lines = append(lines, truncate(m.Overview, cardOverviewLen))
	}
	if poster := tmdb.PosterURL(m.PosterPath, "w200"); poster != "" {
		lines = append(lines, styleDim.Render(poster))
	}
	return styleCard.Width(cardWidth(width)).Render(strings.Join(lines, "\n"))
}

// renderDetails renders the detail panel for the selected movie.
func renderDetails(m core.Movie, width int) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(m.Title))
	sb.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(styleInfo.Render(label+": ") + value + "\n")
	}
	field("Released", m.ReleaseDate)
	if m.VoteCount > 0 {
		field("Rating", styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage))+
			styleDim.Render(fmt.Sprintf(" (%d votes)", m.VoteCount)))
	}
	field("Director", m.Director)
	field("Cast", strings.Join(m.Cast, ", "))
	field("Poster", tmdb.PosterURL(m.PosterPath, "w500"))

	if m.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(cardWidth(width)).Render(m.Overview))
		sb.WriteString("\n")
	}
	sb.WriteString("\n" + styleDim.Render("/back returns to the conversation"))
	return sb.String()
}

func titleLine(n int, m core.Movie) string {
	title := styleMovie.Render(fmt.Sprintf("%d. %s", n, m.Title))
	if len(m.ReleaseDate) >= 4 {
		title += styleDim.Render(" (" + m.ReleaseDate[:4] + ")")
	}
	if m.VoteCount > 0 {
		title += "  " + styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage))
	}
	return title
}

func cardWidth(width int) int {
	if width < minRenderWidth {
		return minRenderWidth
	}
	return width - 4
}

// truncate shortens s to at most n runes, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
