// Package main provides a CLI for loading the embedded seed catalog into a
// shared store file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/moimlab/moim/internal/membership/storage/sqlite"
	"github.com/moimlab/moim/internal/seed"
)

func main() {
	var storePath string
	flag.StringVar(&storePath, "store", "moim.db", "shared store path")
	flag.Parse()
	log.SetPrefix("[SEED] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := seed.Load()
	if err != nil {
		log.Fatalf("load seed catalog: %v", err)
	}

	store, err := sqlite.Open(storePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	for _, meeting := range catalog.Meetings {
		if err := store.PutMeeting(ctx, meeting); err != nil {
			log.Fatalf("seed meeting %s: %v", meeting.ID, err)
		}
	}
	log.Printf("seeded %d meetings into %s", len(catalog.Meetings), storePath)
}
