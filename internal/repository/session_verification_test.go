// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSessionVerification(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(10 * time.Minute)
	err := repo.UpsertSessionVerification(ctx, "sess-1", "reader@example.com", expiresAt)

	require.NoError(t, err)

	sv, err := repo.GetSessionVerification(ctx, "sess-1", "reader@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, expiresAt, sv.ExpiresAt, time.Second)
}

func TestUpsertSessionVerification_MovesWindow(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	first := time.Now().Add(10 * time.Minute)
	require.NoError(t, repo.UpsertSessionVerification(ctx, "sess-1", "reader@example.com", first))

	later := first.Add(10 * time.Minute)
	require.NoError(t, repo.UpsertSessionVerification(ctx, "sess-1", "reader@example.com", later))

	sv, err := repo.GetSessionVerification(ctx, "sess-1", "reader@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, later, sv.ExpiresAt, time.Second)
}

func TestGetSessionVerification_ScopedToSession(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(10 * time.Minute)
	require.NoError(t, repo.UpsertSessionVerification(ctx, "sess-1", "reader@example.com", expiresAt))

	// A different browser session holds no grant.
	_, err := repo.GetSessionVerification(ctx, "sess-2", "reader@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteSessionVerifications(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	expiresAt := time.Now().Add(10 * time.Minute)
	require.NoError(t, repo.UpsertSessionVerification(ctx, "sess-1", "reader@example.com", expiresAt))
	require.NoError(t, repo.UpsertSessionVerification(ctx, "sess-1", "other@example.com", expiresAt))

	err := repo.DeleteSessionVerifications(ctx, "sess-1")
	require.NoError(t, err)

	_, err = repo.GetSessionVerification(ctx, "sess-1", "reader@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetSessionVerification(ctx, "sess-1", "other@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
