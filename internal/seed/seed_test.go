package seed

import (
	"testing"
	"time"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(catalog.Meetings) != 6 {
		t.Fatalf("expected 6 seed meetings, got %d", len(catalog.Meetings))
	}
	if len(catalog.Categories) == 0 || catalog.Categories[0] != "전체" {
		t.Fatalf("unexpected categories: %v", catalog.Categories)
	}
	if len(catalog.Interests) != 10 {
		t.Fatalf("expected 10 interest options, got %d", len(catalog.Interests))
	}

	seen := make(map[string]bool)
	certifiedOnly := 0
	for _, meeting := range catalog.Meetings {
		if meeting.ID == "" || seen[meeting.ID] {
			t.Fatalf("seed meeting ids must be unique and non-empty, got %q", meeting.ID)
		}
		seen[meeting.ID] = true
		if meeting.Title == "" || meeting.Category == "" || meeting.Location == "" {
			t.Fatalf("seed meeting %q is missing required fields", meeting.ID)
		}
		if meeting.Capacity <= 0 {
			t.Fatalf("seed meeting %q has capacity %d", meeting.ID, meeting.Capacity)
		}
		if meeting.CurrentParticipants < 0 || meeting.CurrentParticipants > meeting.Capacity {
			t.Fatalf("seed meeting %q has %d/%d participants", meeting.ID, meeting.CurrentParticipants, meeting.Capacity)
		}
		if meeting.ScheduledAt.IsZero() || meeting.CreatedAt.IsZero() {
			t.Fatalf("seed meeting %q is missing timestamps", meeting.ID)
		}
		if meeting.ScheduledAt.Location() != time.UTC {
			t.Fatalf("seed meeting %q schedule must be normalized to UTC", meeting.ID)
		}
		if meeting.CertifiedOnly {
			certifiedOnly++
		}
	}
	if certifiedOnly != 2 {
		t.Fatalf("expected 2 certified-only seed meetings, got %d", certifiedOnly)
	}

	first := catalog.Meetings[0]
	if first.Title != "주말 아침, 한강 가벼운 러닝" || first.HostNickname != "민트초코" {
		t.Fatalf("unexpected first seed meeting: %+v", first)
	}
}
