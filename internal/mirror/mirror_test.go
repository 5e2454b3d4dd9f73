package mirror

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moimlab/moim/internal/membership/domain"
	"github.com/moimlab/moim/internal/membership/storage/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "moim.db"))
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

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}

func testMeeting(id, hostID string, createdAt time.Time) domain.Meeting {
	return domain.Meeting{
		ID:                  id,
		Title:               "모임 " + id,
		Category:            "취미",
		ScheduledAt:         createdAt.Add(72 * time.Hour),
		Location:            "강남역",
		Capacity:            6,
		CurrentParticipants: 1,
		HostID:              hostID,
		CreatedAt:           createdAt,
	}
}

func TestMirrorRepublishesCatalogOnChange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	mirror := New(store, nil)
	defer mirror.Close()

	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	if err := store.PutMeeting(ctx, testMeeting("meeting-1", "host-1", base)); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	waitFor(t, "first meeting to appear", func() bool {
		return len(mirror.Meetings()) == 1
	})

	if err := store.PutMeeting(ctx, testMeeting("meeting-2", "host-2", base.Add(time.Hour))); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	waitFor(t, "second meeting to appear", func() bool {
		meetings := mirror.Meetings()
		return len(meetings) == 2 && meetings[0].ID == "meeting-2"
	})
}

func TestMirrorCatalogCounterUpdates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	if err := store.PutMeeting(ctx, testMeeting("meeting-1", "host-1", base)); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}

	mirror := New(store, nil)
	defer mirror.Close()
	waitFor(t, "catalog snapshot", func() bool {
		return len(mirror.Meetings()) == 1
	})

	if err := store.AddParticipants(ctx, "meeting-1", 1); err != nil {
		t.Fatalf("AddParticipants returned error: %v", err)
	}
	waitFor(t, "counter republish", func() bool {
		meetings := mirror.Meetings()
		return len(meetings) == 1 && meetings[0].CurrentParticipants == 2
	})
}

func TestMirrorFallsBackToSeedCatalogWhenEmpty(t *testing.T) {
	store := openTestStore(t)

	fallback := []domain.Meeting{
		testMeeting("seed-1", "seed-host", time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)),
	}
	mirror := New(store, fallback)
	defer mirror.Close()

	waitFor(t, "seed fallback", func() bool {
		meetings := mirror.Meetings()
		return len(meetings) == 1 && meetings[0].ID == "seed-1"
	})

	// A real catalog entry replaces the fallback wholesale.
	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	if err := store.PutMeeting(context.Background(), testMeeting("meeting-1", "host-1", base)); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	waitFor(t, "stored catalog", func() bool {
		meetings := mirror.Meetings()
		return len(meetings) == 1 && meetings[0].ID == "meeting-1"
	})
}

func TestMirrorIdentityFeeds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)
	profile := domain.UserProfile{
		ID:        "user-1",
		Nickname:  "달빛러너",
		Age:       29,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := store.PutProfile(ctx, profile); err != nil {
		t.Fatalf("PutProfile returned error: %v", err)
	}

	mirror := New(store, nil)
	defer mirror.Close()

	if _, ok := mirror.Profile(); ok {
		t.Fatal("expected no profile snapshot before an identity is set")
	}

	mirror.SetIdentity("user-1")
	waitFor(t, "profile snapshot", func() bool {
		got, ok := mirror.Profile()
		return ok && got.Nickname == "달빛러너"
	})

	participation := domain.Participation{
		ID:        "p-1",
		UserID:    "user-1",
		MeetingID: "meeting-1",
		JoinedAt:  createdAt,
	}
	if err := store.PutParticipation(ctx, participation); err != nil {
		t.Fatalf("PutParticipation returned error: %v", err)
	}
	waitFor(t, "participation snapshot", func() bool {
		return len(mirror.Participations()) == 1
	})

	// Profile edits republish the whole record.
	profile.Nickname = "새벽러너"
	profile.UpdatedAt = createdAt.Add(time.Hour)
	if err := store.PutProfile(ctx, profile); err != nil {
		t.Fatalf("PutProfile update returned error: %v", err)
	}
	waitFor(t, "profile republish", func() bool {
		got, ok := mirror.Profile()
		return ok && got.Nickname == "새벽러너"
	})
}

func TestMirrorRekeysOnIdentityChange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)
	for _, userID := range []string{"user-1", "user-2"} {
		profile := domain.UserProfile{
			ID:        userID,
			Nickname:  "회원 " + userID,
			Age:       30,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		if err := store.PutProfile(ctx, profile); err != nil {
			t.Fatalf("PutProfile(%s) returned error: %v", userID, err)
		}
	}
	participation := domain.Participation{
		ID:        "p-1",
		UserID:    "user-1",
		MeetingID: "meeting-1",
		JoinedAt:  createdAt,
	}
	if err := store.PutParticipation(ctx, participation); err != nil {
		t.Fatalf("PutParticipation returned error: %v", err)
	}

	mirror := New(store, nil)
	defer mirror.Close()

	mirror.SetIdentity("user-1")
	waitFor(t, "first identity snapshot", func() bool {
		got, ok := mirror.Profile()
		return ok && got.ID == "user-1" && len(mirror.Participations()) == 1
	})

	mirror.SetIdentity("user-2")
	waitFor(t, "second identity snapshot", func() bool {
		got, ok := mirror.Profile()
		return ok && got.ID == "user-2"
	})
	if participations := mirror.Participations(); len(participations) != 0 {
		t.Fatalf("expected the previous identity's participations to be cleared, got %+v", participations)
	}

	mirror.SetIdentity("")
	waitFor(t, "cleared identity", func() bool {
		_, ok := mirror.Profile()
		return !ok
	})
}

func TestMirrorVisibleMeetingsFiltersBlockedHosts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	if err := store.PutMeeting(ctx, testMeeting("meeting-1", "host-1", base)); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	if err := store.PutMeeting(ctx, testMeeting("meeting-2", "host-2", base.Add(time.Hour))); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	profile := domain.UserProfile{
		ID:             "user-1",
		Nickname:       "달빛러너",
		Age:            29,
		BlockedUserIDs: []string{"host-1"},
		CreatedAt:      base,
		UpdatedAt:      base,
	}
	if err := store.PutProfile(ctx, profile); err != nil {
		t.Fatalf("PutProfile returned error: %v", err)
	}

	mirror := New(store, nil)
	defer mirror.Close()
	mirror.SetIdentity("user-1")

	waitFor(t, "filtered catalog", func() bool {
		visible := mirror.VisibleMeetings()
		return len(visible) == 1 && visible[0].ID == "meeting-2"
	})
	if meetings := mirror.Meetings(); len(meetings) != 2 {
		t.Fatalf("expected the unfiltered snapshot to keep both meetings, got %d", len(meetings))
	}
}

func TestMirrorObserversSeeRepublications(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	mirror := New(store, nil)
	defer mirror.Close()

	updates := make(chan []domain.Meeting, 8)
	cancel := mirror.ObserveMeetings(func(meetings []domain.Meeting) {
		updates <- meetings
	})

	// Registration always delivers the current snapshot first.
	select {
	case initial := <-updates:
		if len(initial) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d meetings", len(initial))
		}
	case <-time.After(time.Second):
		t.Fatal("expected an immediate snapshot on registration")
	}

	base := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	if err := store.PutMeeting(ctx, testMeeting("meeting-1", "host-1", base)); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	waitFor(t, "observer republish", func() bool {
		select {
		case meetings := <-updates:
			return len(meetings) == 1 && meetings[0].ID == "meeting-1"
		default:
			return false
		}
	})

	cancel()
	if err := store.PutMeeting(ctx, testMeeting("meeting-2", "host-2", base.Add(time.Hour))); err != nil {
		t.Fatalf("PutMeeting returned error: %v", err)
	}
	waitFor(t, "snapshot after cancel", func() bool {
		return len(mirror.Meetings()) == 2
	})
	select {
	case meetings := <-updates:
		t.Fatalf("cancelled observer still received %d meetings", len(meetings))
	default:
	}
}
