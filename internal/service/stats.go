package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
)

// Summary bundles the aggregate reading statistics.
type Summary struct {
	GeneratedAt           time.Time          `json:"generatedAt"`
	TotalBooks            int                `json:"totalBooks"`
	CurrentBooks          int                `json:"currentBooks"`
	TotalBooksCompleted   int                `json:"totalBooksCompleted"`
	TotalPagesRead        int                `json:"totalPagesRead"`
	AverageCompletionRate int                `json:"averageCompletionRate"`
	PagesToday            int                `json:"pagesToday"`
	CurrentStreakDays     int                `json:"currentStreakDays"`
	LongestStreakDays     int                `json:"longestStreakDays"`
	HabitChart            []domain.HabitWeek `json:"habitChart,omitempty"`
}

// StatsService provides reading statistics derived from the library.
type StatsService struct {
	library *LibraryService
	logger  *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(library *LibraryService, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StatsService{
		library: library,
		logger:  logger,
	}
}

// Summary computes every aggregate from one consistent copy of the library.
// The habit chart is included only when withChart is set.
func (s *StatsService) Summary(_ context.Context, withChart bool) *Summary {
	now := s.library.Now()
	books := s.library.Books()
	ledger := s.library.Ledger()

	current, longest := domain.Streaks(ledger, now)

	summary := &Summary{
		GeneratedAt:           now,
		TotalBooks:            len(books),
		CurrentBooks:          len(books) - domain.TotalBooksCompleted(books),
		TotalBooksCompleted:   domain.TotalBooksCompleted(books),
		TotalPagesRead:        domain.TotalPagesRead(books),
		AverageCompletionRate: domain.AverageCompletionRate(books),
		PagesToday:            ledger.PagesOn(domain.DayKey(now)),
		CurrentStreakDays:     current,
		LongestStreakDays:     longest,
	}
	if withChart {
		summary.HabitChart = domain.BuildHabitChart(ledger, now)
	}

	s.logger.Debug("calculated stats",
		"books", summary.TotalBooks,
		"completed", summary.TotalBooksCompleted,
		"current_streak", current,
		"longest_streak", longest,
	)

	return summary
}

// HabitChart returns the trailing-year habit chart ending today.
func (s *StatsService) HabitChart(_ context.Context) []domain.HabitWeek {
	return domain.BuildHabitChart(s.library.Ledger(), s.library.Now())
}
