// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/activememb/membergate/internal/models"
)

// CreateVerificationToken stores a new verification token for an email.
// Older live tokens for the same email are left in place; each mailed
// link stays redeemable until its own expiry.
func (r *Repository) CreateVerificationToken(ctx context.Context, email, tokenHash string, pageID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_tokens (email, token_hash, page_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		email, tokenHash, pageID, expiresAt, time.Now().UTC())
	return err
}

// GetVerificationToken retrieves a token by the exact (email, hash) pair.
func (r *Repository) GetVerificationToken(ctx context.Context, email, tokenHash string) (*models.VerificationToken, error) {
	var token models.VerificationToken
	err := r.db.GetContext(ctx, &token,
		`SELECT * FROM verification_tokens WHERE email = ? AND token_hash = ?`, email, tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// DeleteEmailVerificationTokens deletes all tokens for an email.
func (r *Repository) DeleteEmailVerificationTokens(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE email = ?`, email)
	return err
}

// DeleteExpiredVerificationTokens deletes expired tokens and returns the
// number of rows removed.
func (r *Repository) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
