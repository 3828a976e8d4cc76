// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/models"
	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/services/access"
	"github.com/activememb/membergate/internal/sessions"
	"github.com/activememb/membergate/internal/testutil"
	"github.com/activememb/membergate/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCRM struct {
	tags models.TagList
	err  error
}

func (c *stubCRM) FetchContactTags(context.Context, string) (models.TagList, error) {
	return c.tags, c.err
}

type stubMailer struct {
	sent  int
	token string
}

func (m *stubMailer) SendVerification(_ context.Context, _, _, tok string, _ int) error {
	m.sent++
	m.token = tok
	return nil
}

type fixture struct {
	repo   *repository.Repository
	svc    *access.Service
	sess   *sessions.Manager
	mailer *stubMailer
	tokens *token.Store
}

func newFixture(t *testing.T, crm access.TagFetcher) *fixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)

	mailer := &stubMailer{}
	tokens := token.NewStore(repo, mailer, 10*time.Minute)

	key, err := sessions.GenerateKey()
	require.NoError(t, err)
	sess, err := sessions.NewManager(&config.SessionConfig{
		CookieName: "_membergate",
		HashKey:    key,
	}, repo, false)
	require.NoError(t, err)

	return &fixture{
		repo:   repo,
		svc:    access.NewService(repo, tokens, sess, crm),
		sess:   sess,
		mailer: mailer,
		tokens: tokens,
	}
}

func (f *fixture) logCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.repo.CountAccessLogs(context.Background())
	require.NoError(t, err)
	return n
}

func identified(email string) sessions.Session {
	return sessions.Session{ID: "sess-1", Email: email}
}

func TestDecide_UnrestrictedPage(t *testing.T) {
	f := newFixture(t, &stubCRM{})
	page := testutil.NewTestPage(t, f.repo, &models.Page{Slug: "open"})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: sessions.Session{ID: "sess-1"}, Now: time.Now(),
	})

	assert.Equal(t, access.ShowContent, res.Outcome)
	assert.Zero(t, f.logCount(t))
}

func TestDecide_AnonymousFallbackRedirect(t *testing.T) {
	f := newFixture(t, &stubCRM{})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:        "gated",
		AllowTags:   models.TagList{1},
		FallbackURL: "https://example.com/join",
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: sessions.Session{ID: "sess-1"}, Now: time.Now(),
	})

	assert.Equal(t, access.FallbackRedirect, res.Outcome)
	assert.Equal(t, "https://example.com/join", res.RedirectURL)
	// The anonymous hit still lands in the audit trail.
	assert.Equal(t, int64(1), f.logCount(t))
}

func TestDecide_AnonymousNoFallback(t *testing.T) {
	f := newFixture(t, &stubCRM{})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: sessions.Session{ID: "sess-1"}, Now: time.Now(),
	})

	assert.Equal(t, access.CheckEmail, res.Outcome)
}

func TestDecide_AllowedTagShowsContent(t *testing.T) {
	f := newFixture(t, &stubCRM{tags: models.TagList{1, 7}})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: identified("reader@example.com"), Now: time.Now(),
	})

	assert.Equal(t, access.ShowContent, res.Outcome)
	assert.Equal(t, int64(1), f.logCount(t))
	assert.Zero(t, f.mailer.sent)
}

func TestDecide_MissingTagTwoFactor(t *testing.T) {
	f := newFixture(t, &stubCRM{tags: models.TagList{7}})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
		TwoFactor: true,
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: identified("reader@example.com"), Now: time.Now(),
	})

	assert.Equal(t, access.CheckEmail, res.Outcome)
	assert.Equal(t, 1, f.mailer.sent)
}

func TestDecide_MissingTagNoTwoFactor(t *testing.T) {
	f := newFixture(t, &stubCRM{tags: models.TagList{7}})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: identified("reader@example.com"), Now: time.Now(),
	})

	assert.Equal(t, access.Denied, res.Outcome)
	assert.Zero(t, f.mailer.sent)
}

func TestDecide_DisallowedTagDenied(t *testing.T) {
	f := newFixture(t, &stubCRM{tags: models.TagList{1, 9}})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:         "gated",
		AllowTags:    models.TagList{1},
		DisallowTags: models.TagList{9},
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: identified("reader@example.com"), Now: time.Now(),
	})

	// The disallow list wins over a matching allow tag.
	assert.Equal(t, access.Denied, res.Outcome)
}

func TestDecide_CRMUnavailableFailsClosed(t *testing.T) {
	f := newFixture(t, &stubCRM{err: errors.New("connection refused")})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: identified("reader@example.com"), Now: time.Now(),
	})

	assert.Equal(t, access.Denied, res.Outcome)
}

func TestDecide_ValidTokenRedirects(t *testing.T) {
	f := newFixture(t, &stubCRM{})
	ctx := context.Background()
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
		TwoFactor: true,
	})
	sess := identified("reader@example.com")

	require.NoError(t, f.tokens.Issue(ctx, page, sess.Email, time.Now()))

	res := f.svc.Decide(ctx, access.Request{
		Page: page, Session: sess, Token: f.mailer.token, Now: time.Now(),
	})

	assert.Equal(t, access.VerifiedRedirect, res.Outcome)
	assert.Equal(t, "/p/gated", res.RedirectURL)
	// The grant is in place; the follow-up request without a token shows
	// the content without consulting the CRM.
	assert.True(t, f.sess.IsVerified(ctx, sess, sess.Email, time.Now()))
}

func TestDecide_VerifiedSessionBypassesTags(t *testing.T) {
	crm := &stubCRM{err: errors.New("must not be called")}
	f := newFixture(t, crm)
	ctx := context.Background()
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
		TwoFactor: true,
	})
	sess := identified("reader@example.com")

	require.NoError(t, f.sess.MarkVerified(ctx, sess, sess.Email, 10*time.Minute))

	res := f.svc.Decide(ctx, access.Request{Page: page, Session: sess, Now: time.Now()})

	assert.Equal(t, access.ShowContent, res.Outcome)
}

func TestDecide_ExpiredTokenReissues(t *testing.T) {
	f := newFixture(t, &stubCRM{})
	ctx := context.Background()
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
		TwoFactor: true,
	})
	sess := identified("reader@example.com")

	issuedAt := time.Now()
	require.NoError(t, f.tokens.Issue(ctx, page, sess.Email, issuedAt))
	expired := f.mailer.token

	res := f.svc.Decide(ctx, access.Request{
		Page: page, Session: sess, Token: expired,
		Now: issuedAt.Add(10*time.Minute + time.Second),
	})

	assert.Equal(t, access.TokenExpired, res.Outcome)
	// A fresh link went out right away.
	assert.Equal(t, 2, f.mailer.sent)
	assert.NotEqual(t, expired, f.mailer.token)
}

func TestDecide_UnknownTokenFallsThrough(t *testing.T) {
	f := newFixture(t, &stubCRM{tags: models.TagList{1}})
	page := testutil.NewTestPage(t, f.repo, &models.Page{
		Slug:      "gated",
		AllowTags: models.TagList{1},
	})

	res := f.svc.Decide(context.Background(), access.Request{
		Page: page, Session: identified("reader@example.com"), Token: "bogus", Now: time.Now(),
	})

	// A bogus token is ignored; the tag rules still grant access.
	assert.Equal(t, access.ShowContent, res.Outcome)
}
