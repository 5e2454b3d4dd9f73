package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/moimlab/moim/internal/membership/domain"
	"github.com/moimlab/moim/internal/membership/storage"
)

// PutParticipation inserts one participation row.
func (s *Store) PutParticipation(ctx context.Context, participation domain.Participation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(participation.ID) == "" {
		return fmt.Errorf("participation id is required")
	}
	userID := strings.TrimSpace(participation.UserID)
	meetingID := strings.TrimSpace(participation.MeetingID)
	if userID == "" || meetingID == "" {
		return fmt.Errorf("participation user id and meeting id are required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO participations (id, user_id, meeting_id, is_private, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		participation.ID,
		userID,
		meetingID,
		boolToInt(participation.IsPrivate),
		toMillis(participation.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("put participation: %w", err)
	}

	s.notify(storage.TopicParticipations(userID))
	return nil
}

// ListParticipationsByUser returns every participation row owned by the user.
func (s *Store) ListParticipationsByUser(ctx context.Context, userID string) ([]domain.Participation, error) {
	return s.listParticipations(ctx, `user_id = ?`, strings.TrimSpace(userID))
}

// ListParticipationsByMeeting returns every participation row under a meeting.
func (s *Store) ListParticipationsByMeeting(ctx context.Context, meetingID string) ([]domain.Participation, error) {
	return s.listParticipations(ctx, `meeting_id = ?`, strings.TrimSpace(meetingID))
}

func (s *Store) listParticipations(ctx context.Context, where string, arg string) ([]domain.Participation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if arg == "" {
		return nil, fmt.Errorf("participation filter value is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, user_id, meeting_id, is_private, joined_at
		 FROM participations WHERE `+where+` ORDER BY joined_at, id`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var participations []domain.Participation
	for rows.Next() {
		var (
			participation domain.Participation
			isPrivate     int
			joinedAt      int64
		)
		if err := rows.Scan(
			&participation.ID,
			&participation.UserID,
			&participation.MeetingID,
			&isPrivate,
			&joinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		participation.IsPrivate = isPrivate != 0
		participation.JoinedAt = fromMillis(joinedAt)
		participations = append(participations, participation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return participations, nil
}

// DeleteParticipations removes every row matching (meetingID, userID) for the
// given userIDs and reports how many rows actually existed to delete.
func (s *Store) DeleteParticipations(ctx context.Context, meetingID string, userIDs []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return 0, fmt.Errorf("meeting id is required")
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(userIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(userIDs)+1)
	args = append(args, meetingID)
	for _, userID := range userIDs {
		args = append(args, strings.TrimSpace(userID))
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM participations WHERE meeting_id = ? AND user_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete participations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete participations: %w", err)
	}

	for _, userID := range userIDs {
		s.notify(storage.TopicParticipations(strings.TrimSpace(userID)))
	}
	return int(affected), nil
}
