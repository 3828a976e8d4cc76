// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/activememb/membergate/internal/models"
)

// UpsertSessionVerification records that an email is verified for a
// session until expiresAt. Re-verifying replaces the previous window.
func (r *Repository) UpsertSessionVerification(ctx context.Context, sessionID, email string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_verifications (session_id, email, expires_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, email) DO UPDATE SET expires_at = excluded.expires_at`,
		sessionID, email, expiresAt, time.Now().UTC())
	return err
}

// GetSessionVerification retrieves the verification window for a
// (session, email) pair.
func (r *Repository) GetSessionVerification(ctx context.Context, sessionID, email string) (*models.SessionVerification, error) {
	var sv models.SessionVerification
	err := r.db.GetContext(ctx, &sv,
		`SELECT * FROM session_verifications WHERE session_id = ? AND email = ?`, sessionID, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &sv, nil
}

// DeleteSessionVerifications removes all grants for a session. Called on
// logout; the grants die with the browser session either way.
func (r *Repository) DeleteSessionVerifications(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_verifications WHERE session_id = ?`, sessionID)
	return err
}
