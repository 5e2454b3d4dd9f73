// Package storage defines persistence contracts for shared membership state.
//
// The shared store is the trust boundary: it is assumed access-controlled and
// is consumed only through these interfaces. Implementations must notify the
// watch hub after successful writes so mirrors can republish.
package storage

import (
	"context"
	"errors"

	"github.com/moimlab/moim/internal/membership/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ProfileStore persists user profile records, each owned by its subject.
type ProfileStore interface {
	PutProfile(ctx context.Context, profile domain.UserProfile) error
	GetProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	DeleteProfile(ctx context.Context, userID string) error
}

// MeetingStore persists the shared meeting catalog.
//
// AddParticipants is the store's native atomic increment primitive: the
// counter moves by delta in a single statement, never read-modify-write.
type MeetingStore interface {
	PutMeeting(ctx context.Context, meeting domain.Meeting) error
	GetMeeting(ctx context.Context, meetingID string) (domain.Meeting, error)
	ListMeetings(ctx context.Context) ([]domain.Meeting, error)
	AddParticipants(ctx context.Context, meetingID string, delta int) error
}

// ParticipationStore persists user/meeting participation links.
//
// DeleteParticipations removes every row matching (meetingID, userID) for the
// given userIDs and reports how many rows actually existed to delete.
type ParticipationStore interface {
	PutParticipation(ctx context.Context, participation domain.Participation) error
	ListParticipationsByUser(ctx context.Context, userID string) ([]domain.Participation, error)
	ListParticipationsByMeeting(ctx context.Context, meetingID string) ([]domain.Participation, error)
	DeleteParticipations(ctx context.Context, meetingID string, userIDs []string) (int, error)
}

// RestrictionStore persists withdrawal cooldown records keyed by phone.
type RestrictionStore interface {
	PutRestriction(ctx context.Context, restriction domain.Restriction) error
	GetRestriction(ctx context.Context, phone string) (domain.Restriction, error)
}

// MessageStore reads meeting chat tails for unread derivation. AppendMessage
// exists for the external chat surface and for tests; the engine never
// composes messages itself.
type MessageStore interface {
	AppendMessage(ctx context.Context, message domain.Message) error
	LatestMessage(ctx context.Context, meetingID string) (domain.Message, error)
	ListMessages(ctx context.Context, meetingID string, limit int) ([]domain.Message, error)
}

// Store is the full persistence surface of the shared remote store.
type Store interface {
	ProfileStore
	MeetingStore
	ParticipationStore
	RestrictionStore
	MessageStore
	Watcher
	Close() error
}
