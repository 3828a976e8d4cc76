// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/activememb/membergate/internal/database"
	"github.com/activememb/membergate/internal/models"
	"github.com/activememb/membergate/internal/repository"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	// Unique shared-cache name so the pool sees one database per test.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestPage stores the given page, filling in a title and body when
// the caller left them empty.
func NewTestPage(t *testing.T, repo *repository.Repository, page *models.Page) *models.Page {
	t.Helper()
	if page.Title == "" {
		page.Title = "Test Page"
	}
	if page.Body == "" {
		page.Body = "<p>gated body</p>"
	}
	err := repo.CreatePage(context.Background(), page)
	require.NoError(t, err)
	return page
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
