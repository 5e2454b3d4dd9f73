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

// AppendMessage stores one chat message under a meeting.
func (s *Store) AppendMessage(ctx context.Context, message domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(message.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	meetingID := strings.TrimSpace(message.MeetingID)
	if meetingID == "" {
		return fmt.Errorf("message meeting id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO messages (id, meeting_id, sender_id, content, sent_at)
		 VALUES (?, ?, ?, ?, ?)`,
		message.ID,
		meetingID,
		message.SenderID,
		message.Content,
		toMillis(message.SentAt),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	s.notify(storage.TopicMessages(meetingID))
	return nil
}

// LatestMessage returns the newest message under a meeting.
func (s *Store) LatestMessage(ctx context.Context, meetingID string) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Message{}, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return domain.Message{}, fmt.Errorf("meeting id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, meeting_id, sender_id, content, sent_at
		 FROM messages WHERE meeting_id = ?
		 ORDER BY sent_at DESC, id DESC LIMIT 1`,
		meetingID,
	)
	message, err := scanMessage(row)
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListMessages returns up to limit messages under a meeting, newest first.
func (s *Store) ListMessages(ctx context.Context, meetingID string, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, fmt.Errorf("meeting id is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, meeting_id, sender_id, content, sent_at
		 FROM messages WHERE meeting_id = ?
		 ORDER BY sent_at DESC, id DESC LIMIT ?`,
		meetingID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row rowScanner) (domain.Message, error) {
	var (
		message domain.Message
		sentAt  int64
	)
	err := row.Scan(&message.ID, &message.MeetingID, &message.SenderID, &message.Content, &sentAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, storage.ErrNotFound
		}
		return domain.Message{}, fmt.Errorf("scan message: %w", err)
	}
	message.SentAt = fromMillis(sentAt)
	return message, nil
}
