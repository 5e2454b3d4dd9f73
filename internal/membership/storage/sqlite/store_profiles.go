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

// PutProfile inserts or replaces one user profile record.
func (s *Store) PutProfile(ctx context.Context, profile domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(profile.ID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	interests, err := encodeStrings(profile.Interests)
	if err != nil {
		return err
	}
	blocked, err := encodeStrings(profile.BlockedUserIDs)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (
		   id, phone, nickname, age, certified, interests, bio, location,
		   follower_count, following_count, blocked_user_ids, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   phone = excluded.phone,
		   nickname = excluded.nickname,
		   age = excluded.age,
		   certified = excluded.certified,
		   interests = excluded.interests,
		   bio = excluded.bio,
		   location = excluded.location,
		   follower_count = excluded.follower_count,
		   following_count = excluded.following_count,
		   blocked_user_ids = excluded.blocked_user_ids,
		   updated_at = excluded.updated_at`,
		userID,
		profile.Phone,
		profile.Nickname,
		profile.Age,
		boolToInt(profile.Certified),
		interests,
		profile.Bio,
		profile.Location,
		profile.FollowerCount,
		profile.FollowingCount,
		blocked,
		toMillis(profile.CreatedAt),
		toMillis(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}

	s.notify(storage.TopicProfile(userID))
	return nil
}

// GetProfile fetches one user profile by id.
func (s *Store) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserProfile{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.UserProfile{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, phone, nickname, age, certified, interests, bio, location,
		        follower_count, following_count, blocked_user_ids, created_at, updated_at
		 FROM users WHERE id = ?`,
		userID,
	)
	return scanProfile(row)
}

// DeleteProfile removes one user profile record.
func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	s.notify(storage.TopicProfile(userID))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (domain.UserProfile, error) {
	var (
		profile             domain.UserProfile
		certified           int
		interests           string
		blocked             string
		createdAt, updateAt int64
	)
	err := row.Scan(
		&profile.ID,
		&profile.Phone,
		&profile.Nickname,
		&profile.Age,
		&certified,
		&interests,
		&profile.Bio,
		&profile.Location,
		&profile.FollowerCount,
		&profile.FollowingCount,
		&blocked,
		&createdAt,
		&updateAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserProfile{}, storage.ErrNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("scan profile: %w", err)
	}
	profile.Certified = certified != 0
	if profile.Interests, err = decodeStrings(interests); err != nil {
		return domain.UserProfile{}, err
	}
	if profile.BlockedUserIDs, err = decodeStrings(blocked); err != nil {
		return domain.UserProfile{}, err
	}
	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updateAt)
	return profile, nil
}
