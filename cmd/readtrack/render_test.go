package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/domain"
)

func testBook(style domain.DisplayStyle, current int) *domain.Book {
	b := domain.NewBook("book-1", "Emma", "Austen", 400, current, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	b.DisplayStyle = style
	return b
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		style   domain.DisplayStyle
		current int
		want    string
	}{
		{domain.DisplayStylePercentage, 100, "25%"},
		{domain.DisplayStyleCircular, 100, "◔ 25%"},
		{domain.DisplayStyleCircular, 400, "● 100%"},
		{domain.DisplayStyleBar, 200, strings.Repeat("█", 10) + strings.Repeat("░", 10) + " 200/400"},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			assert.Equal(t, tt.want, formatProgress(testBook(tt.style, tt.current)))
		})
	}
}

func TestFormatBook_Markers(t *testing.T) {
	b := testBook(domain.DisplayStylePercentage, 10)
	assert.Equal(t, "  Emma by Austen  3%  book-1", formatBook(b, false))

	b.Pinned = true
	assert.True(t, strings.HasPrefix(formatBook(b, false), "* "))

	done := testBook(domain.DisplayStylePercentage, 400)
	done.Pinned = true
	assert.True(t, strings.HasPrefix(formatBook(done, false), "✓ "))
}

func TestFormatBook_ColorOnlyWhenAsked(t *testing.T) {
	b := testBook(domain.DisplayStyleBar, 0)

	assert.NotContains(t, formatBook(b, false), "\033[")
	assert.Contains(t, formatBook(b, true), ansiBold+"Emma"+ansiReset)
}

func TestWriteHabitChart(t *testing.T) {
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ledger := domain.NewLedger([]domain.DailyProgressEntry{{Date: "2026-03-14", PagesRead: 12}})
	chart := domain.BuildHabitChart(ledger, today)

	var buf bytes.Buffer
	writeHabitChart(&buf, chart, false)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+domain.HabitWeekDays+1)
	assert.Equal(t, "Reading habit 2025-03-15 to 2026-03-14", lines[0])

	// Only the first row reaches the partial final column.
	assert.Equal(t, domain.MaxHabitColumns, utf8.RuneCountInString(lines[1]))
	assert.True(t, strings.HasSuffix(lines[1], "█"))
	for _, row := range lines[2 : 1+domain.HabitWeekDays] {
		assert.Equal(t, domain.MaxHabitColumns-1, utf8.RuneCountInString(row))
	}
	assert.Equal(t, "Less ·░▒▓▆█ More", lines[len(lines)-1])
}
