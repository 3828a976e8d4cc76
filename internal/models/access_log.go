// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package models

import "time"

// AccessLog is one audit-trail entry. A row is appended every time the
// allow-list step of the evaluator runs; duplicates are intentional.
type AccessLog struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Email     string    `db:"email" json:"email"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	Protected bool      `db:"protected" json:"protected"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SessionVerification is a temporary per-session grant for one email.
// Rows die with the session (logout) or lapse via ExpiresAt.
type SessionVerification struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Email     string    `db:"email" json:"email"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
