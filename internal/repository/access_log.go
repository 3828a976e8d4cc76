// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/activememb/membergate/internal/models"
)

// CreateAccessLog appends one audit entry. Duplicate rows for the same
// visitor and page are expected; the trail is never deduplicated.
func (r *Repository) CreateAccessLog(ctx context.Context, entry *models.AccessLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO access_logs (slug, email, ip_address, protected, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.Slug, entry.Email, entry.IPAddress, entry.Protected, entry.CreatedAt)
	if err != nil {
		return err
	}
	entry.ID, err = res.LastInsertId()
	return err
}

// ListAccessLogs returns audit entries newest first.
func (r *Repository) ListAccessLogs(ctx context.Context, limit, offset int) ([]models.AccessLog, error) {
	var entries []models.AccessLog
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM access_logs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountAccessLogs returns the total number of audit entries.
func (r *Repository) CountAccessLogs(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(id) FROM access_logs`)
	if err != nil {
		return 0, err
	}
	return count, nil
}
