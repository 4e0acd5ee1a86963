// Package main provides a read-only dump of the reading tracker's storage.
//
// Usage:
//
//	go run ./cmd/dbinspect --data-path ~/.readtrack
//	go run ./cmd/dbinspect --storage-backend sqlite --raw
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/di/providers"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/store"
	"github.com/listenupapp/readtrack/internal/store/badgerstore"
)

func main() {
	fs := pflag.NewFlagSet("dbinspect", pflag.ExitOnError)
	config.RegisterFlags(fs)
	raw := fs.Bool("raw", false, "Print stored values as-is instead of indented")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	kv, err := openReadOnly(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer kv.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Backend: %s\nPath:    %s\n\n", cfg.Storage.Backend, cfg.Storage.DataPath)

	keys, err := kv.Keys(ctx)
	if err != nil {
		log.Fatalf("Failed to list keys: %v", err)
	}
	fmt.Printf("Keys: %d\n", len(keys))

	for _, key := range keys {
		value, err := kv.Get(ctx, key)
		if err != nil {
			fmt.Printf("\n[%s] read error: %v\n", key, err)
			continue
		}
		fmt.Printf("\n[%s] %d bytes\n", key, len(value))
		if *raw {
			fmt.Println(string(value))
			continue
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, value, "", "  "); err != nil {
			fmt.Printf("  not valid JSON: %v\n", err)
			continue
		}
		fmt.Println(buf.String())
	}

	snap, err := store.New(kv, nil).Load(ctx)
	fmt.Println()
	fmt.Println("=== Decoded ===")
	if err != nil {
		fmt.Printf("Load reported: %v\n", err)
	}
	completed := 0
	for _, b := range snap.Books {
		if b.Completed {
			completed++
		}
	}
	pages := 0
	for _, e := range snap.DailyProgress {
		pages += e.PagesRead
	}
	fmt.Printf("Books: %d (%d completed)\n", len(snap.Books), completed)
	fmt.Printf("Days with progress: %d (%d pages)\n", len(snap.DailyProgress), pages)
}

// openReadOnly avoids taking Badger's write lock so a running tracker is not disturbed.
func openReadOnly(cfg *config.Config) (store.KV, error) {
	if cfg.Storage.Backend == config.BackendBadger {
		return badgerstore.OpenReadOnly(cfg.Storage.BadgerPath(), nil)
	}
	return providers.OpenKV(cfg, logger.Discard())
}
