// Package main provides a tool to seed the library with backdated reading history.
//
// It adds a few books and replays daily reading sessions over the past
// weeks so streaks and the habit chart have something to show.
//
// Usage:
//
//	go run ./cmd/seed --data-path /tmp/readtrack-demo
//	go run ./cmd/seed --days 365 --seed 7
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/di/providers"
	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/service"
	"github.com/listenupapp/readtrack/internal/store"
)

var sampleBooks = []service.AddBookRequest{
	{Title: "Dune", Author: "Frank Herbert", TotalPages: 612},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", TotalPages: 304},
	{Title: "Cien años de soledad", Author: "Gabriel García Márquez", TotalPages: 417},
	{Title: "Middlemarch", Author: "George Eliot", TotalPages: 880},
	{Title: "The Remains of the Day", Author: "Kazuo Ishiguro", TotalPages: 258},
}

func main() {
	fs := pflag.NewFlagSet("seed", pflag.ExitOnError)
	config.RegisterFlags(fs)
	days := fs.Int("days", 90, "Days of history to generate")
	seed := fs.Uint64("seed", 1, "Random seed")
	skip := fs.Float64("skip", 0.25, "Chance of a day with no reading")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logr := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})

	kv, err := providers.OpenKV(cfg, logr)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	st := store.New(kv, logr.Logger)
	defer st.Close()

	// The clock starts in the past and is advanced day by day.
	now := time.Now().AddDate(0, 0, -*days)
	lib := service.NewLibraryService(st, logr.Logger, service.WithClock(func() time.Time { return now }))

	ctx := context.Background()
	if err := lib.Load(ctx); err != nil {
		log.Fatalf("Failed to load library: %v", err)
	}
	lib.OnBookCompleted(func(title string) {
		fmt.Printf("%s  finished %s\n", domain.DayKey(now), title)
	})

	for _, req := range sampleBooks {
		if _, err := lib.AddBook(ctx, req); err != nil {
			log.Fatalf("Failed to add %s: %v", req.Title, err)
		}
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	sessions := 0
	for range *days {
		now = now.AddDate(0, 0, 1)
		if rng.Float64() < *skip {
			continue
		}
		current := lib.CurrentBooks()
		if len(current) == 0 {
			break
		}
		b := current[rng.IntN(len(current))]
		if _, err := lib.SetCurrentPage(ctx, b.ID, b.CurrentPage+5+rng.IntN(40)); err != nil {
			log.Fatalf("Failed to record progress: %v", err)
		}
		sessions++
	}

	stats := service.NewStatsService(lib, logr.Logger).Summary(ctx, false)
	fmt.Printf("Seeded %d sessions over %d days: %d pages, longest streak %d, current streak %d\n",
		sessions, *days, stats.TotalPagesRead, stats.LongestStreakDays, stats.CurrentStreakDays)
}
