// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/activememb/membergate/internal/models"
	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	page := &models.Page{
		Slug:         "members-only",
		Title:        "Members Only",
		Body:         "<p>secret</p>",
		AllowTags:    models.TagList{1, 2},
		DisallowTags: models.TagList{9},
		TwoFactor:    true,
		FallbackURL:  "https://example.com/join",
	}

	err := repo.CreatePage(ctx, page)

	require.NoError(t, err)
	assert.NotZero(t, page.ID)
	assert.False(t, page.CreatedAt.IsZero())
}

func TestGetPageBySlug(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestPage(t, repo, &models.Page{
		Slug:      "members-only",
		AllowTags: models.TagList{1, 2},
		TwoFactor: true,
	})

	page, err := repo.GetPageBySlug(ctx, "members-only")

	require.NoError(t, err)
	assert.Equal(t, "members-only", page.Slug)
	assert.Equal(t, models.TagList{1, 2}, page.AllowTags)
	assert.Empty(t, page.DisallowTags)
	assert.True(t, page.TwoFactor)
}

func TestGetPageBySlug_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetPageBySlug(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	page := testutil.NewTestPage(t, repo, &models.Page{Slug: "members-only"})

	page.Title = "Updated"
	page.DisallowTags = models.TagList{5}
	err := repo.UpdatePage(ctx, page)
	require.NoError(t, err)

	updated, err := repo.GetPageBySlug(ctx, "members-only")
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, models.TagList{5}, updated.DisallowTags)
}

func TestDeletePage(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestPage(t, repo, &models.Page{Slug: "members-only"})

	err := repo.DeletePage(ctx, "members-only")
	require.NoError(t, err)

	_, err = repo.GetPageBySlug(ctx, "members-only")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreatePage_DuplicateSlug(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestPage(t, repo, &models.Page{Slug: "members-only"})

	err := repo.CreatePage(ctx, &models.Page{Slug: "members-only", Title: "Dup", Body: "x"})

	assert.Error(t, err)
}

func TestListPages(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	testutil.NewTestPage(t, repo, &models.Page{Slug: "first"})
	testutil.NewTestPage(t, repo, &models.Page{Slug: "second"})

	pages, err := repo.ListPages(context.Background())

	require.NoError(t, err)
	assert.Len(t, pages, 2)
}
