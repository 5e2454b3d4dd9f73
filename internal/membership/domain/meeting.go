package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/moimlab/moim/internal/errors"
	"github.com/moimlab/moim/internal/platform/id"
)

var (
	// ErrEmptyTitle indicates a missing meeting title.
	ErrEmptyTitle = apperrors.New(apperrors.CodeMeetingTitleEmpty, "meeting title is required")
	// ErrEmptyCategory indicates a missing meeting category.
	ErrEmptyCategory = apperrors.New(apperrors.CodeMeetingCategoryEmpty, "meeting category is required")
	// ErrEmptyLocation indicates a missing meeting location.
	ErrEmptyLocation = apperrors.New(apperrors.CodeMeetingLocationEmpty, "meeting location is required")
	// ErrEmptySchedule indicates a missing meeting schedule.
	ErrEmptySchedule = apperrors.New(apperrors.CodeMeetingScheduleEmpty, "meeting schedule is required")
	// ErrInvalidCapacity indicates a non-positive meeting capacity.
	ErrInvalidCapacity = apperrors.New(apperrors.CodeMeetingInvalidCapacity, "meeting capacity must be greater than zero")
)

// Meeting represents one capacity-bounded group meeting in the shared catalog.
type Meeting struct {
	ID       string
	Title    string
	Category string
	// ScheduledAt is when the meeting takes place.
	ScheduledAt time.Time
	Location    string
	Capacity    int
	// CurrentParticipants is maintained as an independent counter updated
	// alongside participation rows, not recomputed from them. It can drift
	// if a write sequence is interrupted.
	CurrentParticipants int
	Description         string
	HostID              string
	HostNickname        string
	// CertifiedOnly restricts the meeting to certified members.
	CertifiedOnly bool
	MoodTags      []string
	CreatedAt     time.Time
}

// Full reports whether the meeting has reached its declared capacity.
func (m Meeting) Full() bool {
	return m.CurrentParticipants >= m.Capacity
}

// CreateMeetingInput describes the metadata needed to create a meeting.
type CreateMeetingInput struct {
	Title         string
	Category      string
	ScheduledAt   time.Time
	Location      string
	Capacity      int
	Description   string
	HostID        string
	HostNickname  string
	CertifiedOnly bool
	MoodTags      []string
}

// CreateMeeting creates a new meeting with a generated ID and timestamps.
// The participant counter starts at one: the host's own seat.
func CreateMeeting(input CreateMeetingInput, now func() time.Time, idGenerator func() (string, error)) (Meeting, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateMeetingInput(input)
	if err != nil {
		return Meeting{}, err
	}

	meetingID, err := idGenerator()
	if err != nil {
		return Meeting{}, fmt.Errorf("generate meeting id: %w", err)
	}

	return Meeting{
		ID:                  meetingID,
		Title:               normalized.Title,
		Category:            normalized.Category,
		ScheduledAt:         normalized.ScheduledAt.UTC(),
		Location:            normalized.Location,
		Capacity:            normalized.Capacity,
		CurrentParticipants: 1,
		Description:         normalized.Description,
		HostID:              normalized.HostID,
		HostNickname:        normalized.HostNickname,
		CertifiedOnly:       normalized.CertifiedOnly,
		MoodTags:            normalized.MoodTags,
		CreatedAt:           now().UTC(),
	}, nil
}

// NormalizeCreateMeetingInput trims and validates meeting input metadata.
func NormalizeCreateMeetingInput(input CreateMeetingInput) (CreateMeetingInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateMeetingInput{}, ErrEmptyTitle
	}
	input.Category = strings.TrimSpace(input.Category)
	if input.Category == "" {
		return CreateMeetingInput{}, ErrEmptyCategory
	}
	if input.ScheduledAt.IsZero() {
		return CreateMeetingInput{}, ErrEmptySchedule
	}
	input.Location = strings.TrimSpace(input.Location)
	if input.Location == "" {
		return CreateMeetingInput{}, ErrEmptyLocation
	}
	if input.Capacity <= 0 {
		return CreateMeetingInput{}, ErrInvalidCapacity
	}
	input.Description = strings.TrimSpace(input.Description)
	normalizedTags := make([]string, 0, len(input.MoodTags))
	for _, tag := range input.MoodTags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			normalizedTags = append(normalizedTags, tag)
		}
	}
	input.MoodTags = normalizedTags
	return input, nil
}
