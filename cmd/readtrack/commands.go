package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/search"
	"github.com/listenupapp/readtrack/internal/service"
)

func newAddCmd(a *app) *cobra.Command {
	var page string
	cmd := &cobra.Command{
		Use:   "add TITLE AUTHOR TOTAL_PAGES",
		Short: "Add a book to the library",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.library.AddBookFromForm(cmd.Context(), args[0], args[1], args[2], page)
			if b != nil {
				fmt.Fprintf(a.out, "Added %s (%s)\n", b.Title, b.ID)
			}
			return a.finish(err)
		},
	}
	cmd.Flags().StringVar(&page, "page", "0", "Page already reached")
	return cmd
}

func newPageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "page BOOK_ID PAGE",
		Short: "Set the current page of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.library.SetCurrentPageInput(cmd.Context(), args[0], args[1])
			return a.reportBook(b, err)
		},
	}
}

type pageStep func(s *service.LibraryService, ctx context.Context, bookID string) (*domain.Book, error)

func newStepCmd(a *app, use, short string, step pageStep) *cobra.Command {
	return &cobra.Command{
		Use:   use + " BOOK_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := step(a.library, cmd.Context(), args[0])
			return a.reportBook(b, err)
		},
	}
}

func newStyleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "style BOOK_ID [percentage|circular|bar]",
		Short: "Set or cycle how a book's progress is shown",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   *domain.Book
				err error
			)
			if len(args) == 2 {
				b, err = a.library.SetDisplayStyle(cmd.Context(), args[0], domain.DisplayStyle(args[1]))
			} else {
				b, err = a.library.CycleDisplayStyle(cmd.Context(), args[0])
			}
			return a.reportBook(b, err)
		},
	}
}

func newPinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pin BOOK_ID",
		Short: "Pin or unpin a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.library.TogglePin(cmd.Context(), args[0])
			return a.reportBook(b, err)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete BOOK_ID",
		Short: "Remove a book; its reading history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.library.Book(args[0])
			if err != nil {
				return err
			}
			err = a.library.DeleteBook(cmd.Context(), b.ID)
			if err == nil || errors.Is(err, errors.ErrPersistence) {
				fmt.Fprintf(a.out, "Deleted %s\n", b.Title)
			}
			return a.finish(err)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var completed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List current books, pinned first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			books := a.library.CurrentBooks()
			if completed {
				books = a.library.CompletedBooks()
			}
			if len(books) == 0 {
				fmt.Fprintln(a.out, "No books.")
				return nil
			}
			for _, b := range books {
				fmt.Fprintln(a.out, formatBook(b, a.color))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "List completed books instead")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary := a.stats.Summary(cmd.Context(), false)
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			writeSummary(a.out, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newChartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Show the reading habit chart for the past year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writeHabitChart(a.out, a.stats.HabitChart(cmd.Context()), a.color)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search books by title or author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.search == nil {
				return errors.Validation("search is disabled")
			}
			books, err := a.search.Search(cmd.Context(), args[0], status, limit)
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintln(a.out, "No matches.")
				return nil
			}
			for _, b := range books {
				fmt.Fprintln(a.out, formatBook(b, a.color))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only "+search.StatusReading+" or "+search.StatusCompleted+" books")
	cmd.Flags().IntVar(&limit, "limit", search.DefaultLimit, "Maximum results")
	return cmd
}

// reportBook prints a command's resulting book. A book returned alongside a
// persistence error is still shown, since the change took effect in memory.
func (a *app) reportBook(b *domain.Book, err error) error {
	if b != nil {
		fmt.Fprintln(a.out, formatBook(b, a.color))
	}
	return a.finish(err)
}

// finish prints pending completion notices and passes err through.
func (a *app) finish(err error) error {
	for {
		title, ok := a.library.ConsumeCompletion()
		if !ok {
			break
		}
		fmt.Fprintf(a.out, "Congratulations! You completed %s\n", strconv.Quote(title))
	}
	return err
}
