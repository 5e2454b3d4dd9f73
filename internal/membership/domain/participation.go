package domain

import (
	"fmt"
	"time"

	"github.com/moimlab/moim/internal/platform/id"
)

// Participation links one user to one meeting they have joined.
// Uniqueness per (UserID, MeetingID) is an application-level invariant
// enforced by the join path, not by the store schema.
type Participation struct {
	ID        string
	UserID    string
	MeetingID string
	// IsPrivate hides the participation from the owner's public page.
	IsPrivate bool
	JoinedAt  time.Time
}

// CreateParticipation creates a participation record with a generated ID.
func CreateParticipation(userID, meetingID string, now func() time.Time, idGenerator func() (string, error)) (Participation, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	participationID, err := idGenerator()
	if err != nil {
		return Participation{}, fmt.Errorf("generate participation id: %w", err)
	}

	return Participation{
		ID:        participationID,
		UserID:    userID,
		MeetingID: meetingID,
		IsPrivate: false,
		JoinedAt:  now().UTC(),
	}, nil
}
