// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package access composes the tag evaluator, the token store and the
// session verification cache into the per-request gating decision.
package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/activememb/membergate/internal/gating"
	"github.com/activememb/membergate/internal/models"
	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/sessions"
	"github.com/activememb/membergate/internal/token"
)

// Outcome is what the handler should render for the request.
type Outcome int

const (
	// ShowContent renders the page body.
	ShowContent Outcome = iota
	// CheckEmail renders the "check your email" placeholder.
	CheckEmail
	// TokenExpired renders the expired-link placeholder; a fresh link
	// has already been mailed.
	TokenExpired
	// Denied renders the hard denial message.
	Denied
	// VerifiedRedirect redirects to the page URL with the token
	// stripped from the query string.
	VerifiedRedirect
	// FallbackRedirect sends an anonymous visitor to the page's
	// configured fallback URL.
	FallbackRedirect
)

func (o Outcome) String() string {
	switch o {
	case ShowContent:
		return "content"
	case CheckEmail:
		return "check_email"
	case TokenExpired:
		return "token_expired"
	case Denied:
		return "denied"
	case VerifiedRedirect:
		return "verified_redirect"
	case FallbackRedirect:
		return "fallback_redirect"
	default:
		return "unknown"
	}
}

// Result is the decision for one request.
type Result struct {
	Outcome     Outcome
	RedirectURL string
}

// TagFetcher supplies the visitor's CRM tag set. Satisfied by the
// ActiveCampaign client.
type TagFetcher interface {
	FetchContactTags(ctx context.Context, email string) (models.TagList, error)
}

// Request carries everything the decision needs about one page view.
type Request struct {
	Page    *models.Page
	Session sessions.Session
	Token   string // raw token query parameter, may be empty
	IP      string
	Now     time.Time
}

// Service is the access decision orchestrator.
type Service struct {
	repo     *repository.Repository
	tokens   *token.Store
	sessions *sessions.Manager
	crm      TagFetcher
}

// NewService creates the orchestrator.
func NewService(repo *repository.Repository, tokens *token.Store, sess *sessions.Manager, crm TagFetcher) *Service {
	return &Service{repo: repo, tokens: tokens, sessions: sess, crm: crm}
}

// Decide runs the gating state machine for one request. The visitor
// always receives content or a placeholder; every failure along the way
// degrades toward the protected side and is logged, never surfaced.
func (s *Service) Decide(ctx context.Context, req Request) Result {
	page := req.Page

	// Nothing configured: the page is public.
	if !page.Restricted() {
		return Result{Outcome: ShowContent}
	}

	email := req.Session.Email
	if email == "" {
		// Evaluate anyway so the audit trail records the anonymous hit.
		d := gating.Evaluate(page.AllowTags, page.DisallowTags, nil, false)
		s.audit(ctx, page, "", req.IP, d)

		if page.FallbackURL != "" {
			return Result{Outcome: FallbackRedirect, RedirectURL: page.FallbackURL}
		}
		return Result{Outcome: CheckEmail}
	}

	if req.Token != "" {
		res, err := s.tokens.Redeem(ctx, email, req.Token, req.Now)
		if err != nil {
			slog.Error("token redemption failed", "error", err, "slug", page.Slug)
		}
		switch res {
		case token.RedeemValid:
			if err := s.sessions.MarkVerified(ctx, req.Session, email, s.tokens.Window()); err != nil {
				slog.Error("marking session verified failed", "error", err, "slug", page.Slug)
				break
			}
			return Result{Outcome: VerifiedRedirect, RedirectURL: "/p/" + page.Slug}
		case token.RedeemExpired:
			s.issue(ctx, page, email, req.Now)
			return Result{Outcome: TokenExpired}
		case token.RedeemNotFound:
			// Unknown tokens are ignored; the visitor just goes through
			// the normal flow below.
		}
	}

	// A live verification grant bypasses the tag rules for the rest of
	// the window; the CRM is not consulted again.
	if s.sessions.IsVerified(ctx, req.Session, email, req.Now) {
		return Result{Outcome: ShowContent}
	}

	contactTags, err := s.crm.FetchContactTags(ctx, email)
	if err != nil {
		// Unreachable CRM reads as "no tags" and fails closed.
		slog.Warn("contact tag lookup unavailable", "error", err, "slug", page.Slug)
		contactTags = nil
	}

	d := gating.Evaluate(page.AllowTags, page.DisallowTags, contactTags, true)
	s.audit(ctx, page, email, req.IP, d)

	if !d.Protected {
		return Result{Outcome: ShowContent}
	}

	if page.TwoFactor {
		s.issue(ctx, page, email, req.Now)
		return Result{Outcome: CheckEmail}
	}
	return Result{Outcome: Denied}
}

// issue mails a verification link. Delivery failures are logged but the
// visitor still sees the placeholder; there is no retry.
func (s *Service) issue(ctx context.Context, page *models.Page, email string, now time.Time) {
	if err := s.tokens.Issue(ctx, page, email, now); err != nil {
		slog.Error("issuing verification token failed", "error", err, "slug", page.Slug, "email", email)
	}
}

// audit appends an access-log entry for every audited evaluation. The
// trail is append-only; duplicates for the same visitor are expected.
func (s *Service) audit(ctx context.Context, page *models.Page, email, ip string, d gating.Decision) {
	if !d.Audited {
		return
	}
	entry := &models.AccessLog{
		Slug:      page.Slug,
		Email:     email,
		IPAddress: ip,
		Protected: d.Protected,
	}
	if err := s.repo.CreateAccessLog(ctx, entry); err != nil {
		slog.Error("access log write failed", "error", err, "slug", page.Slug)
	}
}
