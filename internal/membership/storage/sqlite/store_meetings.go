package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/moimlab/moim/internal/membership/domain"
	"github.com/moimlab/moim/internal/membership/storage"
)

// PutMeeting inserts or replaces one meeting record.
func (s *Store) PutMeeting(ctx context.Context, meeting domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	meetingID := strings.TrimSpace(meeting.ID)
	if meetingID == "" {
		return fmt.Errorf("meeting id is required")
	}

	moodTags, err := encodeStrings(meeting.MoodTags)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO meetings (
		   id, title, category, scheduled_at, location, capacity,
		   current_participants, description, host_id, host_nickname,
		   certified_only, mood_tags, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title,
		   category = excluded.category,
		   scheduled_at = excluded.scheduled_at,
		   location = excluded.location,
		   capacity = excluded.capacity,
		   current_participants = excluded.current_participants,
		   description = excluded.description,
		   host_nickname = excluded.host_nickname,
		   certified_only = excluded.certified_only,
		   mood_tags = excluded.mood_tags`,
		meetingID,
		meeting.Title,
		meeting.Category,
		toMillis(meeting.ScheduledAt),
		meeting.Location,
		meeting.Capacity,
		meeting.CurrentParticipants,
		meeting.Description,
		meeting.HostID,
		meeting.HostNickname,
		boolToInt(meeting.CertifiedOnly),
		moodTags,
		toMillis(meeting.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put meeting: %w", err)
	}

	s.notify(storage.TopicMeetings)
	return nil
}

// GetMeeting fetches one meeting by id.
func (s *Store) GetMeeting(ctx context.Context, meetingID string) (domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Meeting{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Meeting{}, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return domain.Meeting{}, fmt.Errorf("meeting id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, title, category, scheduled_at, location, capacity,
		        current_participants, description, host_id, host_nickname,
		        certified_only, mood_tags, created_at
		 FROM meetings WHERE id = ?`,
		meetingID,
	)
	meeting, err := scanMeeting(row)
	if err != nil {
		return domain.Meeting{}, err
	}
	return meeting, nil
}

// ListMeetings returns the whole catalog, newest first.
func (s *Store) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, title, category, scheduled_at, location, capacity,
		        current_participants, description, host_id, host_nickname,
		        certified_only, mood_tags, created_at
		 FROM meetings ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// AddParticipants atomically moves the meeting's participant counter by delta.
// The counter is never read first; this is the store's atomic increment.
func (s *Store) AddParticipants(ctx context.Context, meetingID string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return fmt.Errorf("meeting id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE meetings SET current_participants = current_participants + ? WHERE id = ?`,
		delta,
		meetingID,
	)
	if err != nil {
		return fmt.Errorf("add participants: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add participants: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	s.notify(storage.TopicMeetings)
	return nil
}

func scanMeeting(row rowScanner) (domain.Meeting, error) {
	var (
		meeting       domain.Meeting
		scheduledAt   int64
		certifiedOnly int
		moodTags      string
		createdAt     int64
	)
	err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&meeting.Category,
		&scheduledAt,
		&meeting.Location,
		&meeting.Capacity,
		&meeting.CurrentParticipants,
		&meeting.Description,
		&meeting.HostID,
		&meeting.HostNickname,
		&certifiedOnly,
		&moodTags,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Meeting{}, storage.ErrNotFound
		}
		return domain.Meeting{}, fmt.Errorf("scan meeting: %w", err)
	}
	meeting.ScheduledAt = fromMillis(scheduledAt)
	meeting.CertifiedOnly = certifiedOnly != 0
	if meeting.MoodTags, err = decodeStrings(moodTags); err != nil {
		return domain.Meeting{}, err
	}
	meeting.CreatedAt = fromMillis(createdAt)
	return meeting, nil
}
