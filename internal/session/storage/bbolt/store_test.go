package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/moimlab/moim/internal/membership/storage"
	"github.com/moimlab/moim/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
	})
	return store
}

func TestIdentityRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetIdentity(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetIdentity on empty store = %v, want ErrNotFound", err)
	}

	identity := session.Identity{UserID: "user-1", Phone: "010-1234-5678"}
	if err := store.PutIdentity(ctx, identity); err != nil {
		t.Fatalf("PutIdentity returned error: %v", err)
	}
	got, err := store.GetIdentity(ctx)
	if err != nil {
		t.Fatalf("GetIdentity returned error: %v", err)
	}
	if got != identity {
		t.Fatalf("GetIdentity = %+v, want %+v", got, identity)
	}

	// The reference is a single slot; a new identity replaces it.
	replacement := session.Identity{UserID: "user-2", Phone: "010-8765-4321"}
	if err := store.PutIdentity(ctx, replacement); err != nil {
		t.Fatalf("PutIdentity replacement returned error: %v", err)
	}
	got, err = store.GetIdentity(ctx)
	if err != nil {
		t.Fatalf("GetIdentity returned error: %v", err)
	}
	if got != replacement {
		t.Fatalf("GetIdentity = %+v, want %+v", got, replacement)
	}

	if err := store.DeleteIdentity(ctx); err != nil {
		t.Fatalf("DeleteIdentity returned error: %v", err)
	}
	if _, err := store.GetIdentity(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetIdentity after delete = %v, want ErrNotFound", err)
	}
	if err := store.DeleteIdentity(ctx); err != nil {
		t.Fatalf("repeated DeleteIdentity returned error: %v", err)
	}
}

func TestPutIdentityRequiresUserID(t *testing.T) {
	store := openTestStore(t)

	if err := store.PutIdentity(context.Background(), session.Identity{Phone: "010-1234-5678"}); err == nil {
		t.Fatal("expected an error for a blank user id")
	}
}
