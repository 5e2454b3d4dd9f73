// Package moim wires the client engine: stores, mirror, unread tracker, and
// session, running until the context ends.
package moim

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/moimlab/moim/internal/membership/service"
	"github.com/moimlab/moim/internal/membership/storage/sqlite"
	"github.com/moimlab/moim/internal/mirror"
	"github.com/moimlab/moim/internal/platform/config"
	"github.com/moimlab/moim/internal/platform/otel"
	"github.com/moimlab/moim/internal/seed"
	"github.com/moimlab/moim/internal/session"
	sessionbbolt "github.com/moimlab/moim/internal/session/storage/bbolt"
	"github.com/moimlab/moim/internal/unread"
)

// Config carries process configuration for the client.
type Config struct {
	// StorePath is the shared membership store file.
	StorePath string `env:"MOIM_STORE_PATH" envDefault:"moim.db"`
	// SessionPath is the device-local session reference store file.
	SessionPath string `env:"MOIM_SESSION_PATH" envDefault:"session.db"`
}

// ParseConfig loads configuration from the environment, then applies flag
// overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StorePath, "store", cfg.StorePath, "shared store path")
	fs.StringVar(&cfg.SessionPath, "session", cfg.SessionPath, "session store path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the engine and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := otel.Setup(ctx, "moim")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	identities, err := sessionbbolt.Open(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := identities.Close(); err != nil {
			log.Printf("close session store: %v", err)
		}
	}()

	catalog, err := seed.Load()
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}

	catalogMirror := mirror.New(store, catalog.Meetings)
	defer catalogMirror.Close()

	tracker := unread.New(store)
	defer tracker.Close()
	cancelFeed := catalogMirror.ObserveParticipations(tracker.SetParticipations)
	defer cancelFeed()

	engine := service.NewEngine(store)
	sess := session.NewSession(engine, catalogMirror, tracker, identities)
	if err := sess.Restore(ctx); err != nil {
		log.Printf("restore session: %v", err)
	}
	if identity, ok := sess.Identity(); ok {
		log.Printf("restored identity %s", identity.UserID)
	}
	log.Printf("catalog ready with %d meetings", len(catalogMirror.Meetings()))

	<-ctx.Done()
	return nil
}
