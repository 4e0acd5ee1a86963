package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/service"
)

const barWidth = 20

var (
	ringGlyphs  = []string{"○", "◔", "◑", "◕", "●"}
	levelGlyphs = []string{"·", "░", "▒", "▓", "▆", "█"}
	// 256-color greens, lightest to darkest
	levelColors = []string{"\033[38;5;240m", "\033[38;5;151m", "\033[38;5;114m", "\033[38;5;71m", "\033[38;5;34m", "\033[38;5;22m"}
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
)

func paint(s, code string, color bool) string {
	if !color || code == "" {
		return s
	}
	return code + s + ansiReset
}

// formatBook renders one line: marker, title, author, progress in the
// book's display style, then its ID.
func formatBook(b *domain.Book, color bool) string {
	marker := " "
	switch {
	case b.Completed:
		marker = "✓"
	case b.Pinned:
		marker = "*"
	}

	return fmt.Sprintf("%s %s by %s  %s  %s",
		marker,
		paint(b.Title, ansiBold, color),
		b.Author,
		formatProgress(b),
		paint(b.ID, ansiDim, color),
	)
}

func formatProgress(b *domain.Book) string {
	pct := b.ProgressPercent()

	switch b.DisplayStyle {
	case domain.DisplayStylePercentage:
		return fmt.Sprintf("%d%%", pct)
	case domain.DisplayStyleCircular:
		return fmt.Sprintf("%s %d%%", ringGlyphs[min(pct/25, len(ringGlyphs)-1)], pct)
	default:
		filled := min(pct*barWidth/100, barWidth)
		return fmt.Sprintf("%s%s %d/%d",
			strings.Repeat("█", filled),
			strings.Repeat("░", barWidth-filled),
			b.CurrentPage, b.TotalPages,
		)
	}
}

func writeSummary(w io.Writer, s *service.Summary) {
	fmt.Fprintf(w, "Books:            %d (%d reading, %d completed)\n", s.TotalBooks, s.CurrentBooks, s.TotalBooksCompleted)
	fmt.Fprintf(w, "Pages read:       %d\n", s.TotalPagesRead)
	fmt.Fprintf(w, "Average progress: %d%%\n", s.AverageCompletionRate)
	fmt.Fprintf(w, "Pages today:      %d\n", s.PagesToday)
	fmt.Fprintf(w, "Current streak:   %s\n", days(s.CurrentStreakDays))
	fmt.Fprintf(w, "Longest streak:   %s\n", days(s.LongestStreakDays))
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// writeHabitChart draws columns left to right, oldest first, with one row
// per position in the 7-day column. The final column is partial.
func writeHabitChart(w io.Writer, chart []domain.HabitWeek, color bool) {
	if len(chart) == 0 {
		return
	}
	first := chart[0][0]
	lastWeek := chart[len(chart)-1]
	last := lastWeek[len(lastWeek)-1]
	fmt.Fprintf(w, "Reading habit %s to %s\n", first.Date, last.Date)

	var sb strings.Builder
	for row := range domain.HabitWeekDays {
		sb.Reset()
		for _, week := range chart {
			if row >= len(week) {
				sb.WriteByte(' ')
				continue
			}
			level := week[row].Level
			sb.WriteString(paint(levelGlyphs[level], levelColors[level], color))
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	sb.Reset()
	sb.WriteString("Less ")
	for level := range levelGlyphs {
		sb.WriteString(paint(levelGlyphs[level], levelColors[level], color))
	}
	sb.WriteString(" More")
	fmt.Fprintln(w, sb.String())
}
