// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/activememb/membergate/internal/models"
)

// CreatePage creates a new gated page.
func (r *Repository) CreatePage(ctx context.Context, page *models.Page) error {
	now := time.Now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pages (slug, title, body, allow_tags, disallow_tags, two_factor, fallback_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		page.Slug, page.Title, page.Body, page.AllowTags, page.DisallowTags,
		page.TwoFactor, page.FallbackURL, page.CreatedAt, page.UpdatedAt)
	if err != nil {
		return err
	}
	page.ID, err = res.LastInsertId()
	return err
}

// GetPageBySlug retrieves a page by its slug.
func (r *Repository) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	err := r.db.GetContext(ctx, &page, `SELECT * FROM pages WHERE slug = ?`, slug)
	if err != nil {
		return nil, wrapError(err)
	}
	return &page, nil
}

// UpdatePage updates an existing page.
func (r *Repository) UpdatePage(ctx context.Context, page *models.Page) error {
	page.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE pages SET title = ?, body = ?, allow_tags = ?, disallow_tags = ?, two_factor = ?, fallback_url = ?, updated_at = ?
		 WHERE slug = ?`,
		page.Title, page.Body, page.AllowTags, page.DisallowTags,
		page.TwoFactor, page.FallbackURL, page.UpdatedAt, page.Slug)
	return err
}

// DeletePage deletes a page by slug.
func (r *Repository) DeletePage(ctx context.Context, slug string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE slug = ?`, slug)
	return err
}

// ListPages returns all pages ordered by creation date (newest first).
func (r *Repository) ListPages(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.SelectContext(ctx, &pages, `SELECT * FROM pages ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return pages, nil
}
