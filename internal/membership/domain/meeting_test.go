package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCreateMeetingNormalizesInput(t *testing.T) {
	fixedTime := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	input := CreateMeetingInput{
		Title:        "  Morning run by the river  ",
		Category:     "sports",
		ScheduledAt:  time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC),
		Location:     " Yeouido ",
		Capacity:     6,
		Description:  " Easy pace, coffee after. ",
		HostID:       "user-1",
		HostNickname: "mint",
		MoodTags:     []string{" relaxed ", "", "healthy"},
	}

	meeting, err := CreateMeeting(input, func() time.Time { return fixedTime }, func() (string, error) {
		return "meet123", nil
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}

	if meeting.ID != "meet123" {
		t.Fatalf("id = %q, want meet123", meeting.ID)
	}
	if meeting.Title != "Morning run by the river" {
		t.Fatalf("expected trimmed title, got %q", meeting.Title)
	}
	if meeting.CurrentParticipants != 1 {
		t.Fatalf("current participants = %d, want 1 (host seat)", meeting.CurrentParticipants)
	}
	if meeting.Location != "Yeouido" {
		t.Fatalf("expected trimmed location, got %q", meeting.Location)
	}
	if len(meeting.MoodTags) != 2 {
		t.Fatalf("mood tags = %v, want two entries", meeting.MoodTags)
	}
	if !meeting.CreatedAt.Equal(fixedTime) {
		t.Fatal("expected creation timestamp to match fixed time")
	}
}

func TestNormalizeCreateMeetingInputValidation(t *testing.T) {
	valid := CreateMeetingInput{
		Title:       "Board games",
		Category:    "games",
		ScheduledAt: time.Date(2026, time.June, 16, 14, 0, 0, 0, time.UTC),
		Location:    "Sharosugil",
		Capacity:    4,
	}

	tests := []struct {
		name   string
		mutate func(*CreateMeetingInput)
		err    error
	}{
		{
			name:   "empty title",
			mutate: func(in *CreateMeetingInput) { in.Title = "   " },
			err:    ErrEmptyTitle,
		},
		{
			name:   "empty category",
			mutate: func(in *CreateMeetingInput) { in.Category = "" },
			err:    ErrEmptyCategory,
		},
		{
			name:   "missing schedule",
			mutate: func(in *CreateMeetingInput) { in.ScheduledAt = time.Time{} },
			err:    ErrEmptySchedule,
		},
		{
			name:   "empty location",
			mutate: func(in *CreateMeetingInput) { in.Location = " " },
			err:    ErrEmptyLocation,
		},
		{
			name:   "zero capacity",
			mutate: func(in *CreateMeetingInput) { in.Capacity = 0 },
			err:    ErrInvalidCapacity,
		},
		{
			name:   "negative capacity",
			mutate: func(in *CreateMeetingInput) { in.Capacity = -2 },
			err:    ErrInvalidCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			_, err := NormalizeCreateMeetingInput(input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got %v", tt.err, err)
			}
		})
	}
}

func TestMeetingFull(t *testing.T) {
	meeting := Meeting{Capacity: 4, CurrentParticipants: 3}
	if meeting.Full() {
		t.Fatal("meeting with a free seat should not be full")
	}
	meeting.CurrentParticipants = 4
	if !meeting.Full() {
		t.Fatal("meeting at capacity should be full")
	}
	// Overshoot from racing joins still reads as full.
	meeting.CurrentParticipants = 5
	if !meeting.Full() {
		t.Fatal("meeting past capacity should be full")
	}
}
