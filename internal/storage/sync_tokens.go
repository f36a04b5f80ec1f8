package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

// newTokenValue returns a random token: a v4 UUID without dashes.
func newTokenValue() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateSyncToken issues a new active push token for the user.
func (s *SQLiteStorage) CreateSyncToken(ctx context.Context, userID, label string) (*model.SyncToken, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := ensureUser(ctx, s.db, userID); err != nil {
		return nil, err
	}

	token := &model.SyncToken{
		UserID:    userID,
		Token:     s.newToken(),
		Label:     label,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_tokens (user_id, token, label, is_active, created_at)
		VALUES (?, ?, ?, 1, ?)
	`, token.UserID, token.Token, token.Label, token.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("failed to create sync token: %w", common.ErrDuplicateEntry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sync token: %w", err)
	}

	token.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get sync token id: %w", err)
	}
	return token, nil
}

const syncTokenColumns = `id, user_id, token, label, is_active, last_sync_at, created_at`

func scanSyncToken(row interface{ Scan(...any) error }) (*model.SyncToken, error) {
	var (
		token    model.SyncToken
		lastSync sql.NullTime
	)
	if err := row.Scan(&token.ID, &token.UserID, &token.Token, &token.Label,
		&token.IsActive, &lastSync, &token.CreatedAt); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time
		token.LastSyncAt = &t
	}
	return &token, nil
}

// GetSyncTokens lists the user's tokens, newest first.
func (s *SQLiteStorage) GetSyncTokens(ctx context.Context, userID string) ([]model.SyncToken, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+syncTokenColumns+`
		FROM sync_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []model.SyncToken
	for rows.Next() {
		token, err := scanSyncToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync token: %w", err)
		}
		tokens = append(tokens, *token)
	}
	return tokens, rows.Err()
}

// ValidateSyncToken resolves an active token. Unknown and revoked tokens
// return common.ErrInvalidToken.
func (s *SQLiteStorage) ValidateSyncToken(ctx context.Context, token string) (*model.SyncToken, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, common.ErrInvalidToken
	}

	found, err := scanSyncToken(s.db.QueryRowContext(ctx, `
		SELECT `+syncTokenColumns+`
		FROM sync_tokens
		WHERE token = ? AND is_active = 1
	`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate sync token: %w", err)
	}
	return found, nil
}

// TouchSyncToken records a successful push with the token.
func (s *SQLiteStorage) TouchSyncToken(ctx context.Context, token string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_tokens SET last_sync_at = ? WHERE token = ?
	`, time.Now().UTC(), token)
	if err != nil {
		return fmt.Errorf("failed to update sync token: %w", err)
	}
	return nil
}

// DeleteSyncToken revokes one of the user's tokens.
func (s *SQLiteStorage) DeleteSyncToken(ctx context.Context, userID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_tokens WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete sync token: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sync token %d: %w", id, common.ErrNotFound)
	}
	return nil
}
