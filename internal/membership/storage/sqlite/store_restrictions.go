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

// PutRestriction inserts or replaces the cooldown record for a phone identity.
func (s *Store) PutRestriction(ctx context.Context, restriction domain.Restriction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	phone := strings.TrimSpace(restriction.Phone)
	if phone == "" {
		return fmt.Errorf("restriction phone is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO restricted_users (phone, user_id, withdrawn_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (phone) DO UPDATE SET
		   user_id = excluded.user_id,
		   withdrawn_at = excluded.withdrawn_at`,
		phone,
		restriction.UserID,
		toMillis(restriction.WithdrawnAt),
	)
	if err != nil {
		return fmt.Errorf("put restriction: %w", err)
	}
	return nil
}

// GetRestriction fetches the cooldown record for a phone identity.
func (s *Store) GetRestriction(ctx context.Context, phone string) (domain.Restriction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Restriction{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Restriction{}, fmt.Errorf("storage is not configured")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Restriction{}, fmt.Errorf("restriction phone is required")
	}

	var (
		restriction domain.Restriction
		withdrawnAt int64
	)
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT phone, user_id, withdrawn_at FROM restricted_users WHERE phone = ?`,
		phone,
	)
	if err := row.Scan(&restriction.Phone, &restriction.UserID, &withdrawnAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Restriction{}, storage.ErrNotFound
		}
		return domain.Restriction{}, fmt.Errorf("scan restriction: %w", err)
	}
	restriction.WithdrawnAt = fromMillis(withdrawnAt)
	return restriction, nil
}
