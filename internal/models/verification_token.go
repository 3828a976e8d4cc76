// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package models

import "time"

// VerificationToken stores a hashed verification-link token. Tokens are
// keyed by email, not by page: one redeemed token verifies the email for
// the whole session. Several live tokens may exist per email, one per
// mail sent.
type VerificationToken struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	TokenHash string    `db:"token_hash" json:"-"` // SHA256 hash
	PageID    int64     `db:"page_id" json:"page_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
