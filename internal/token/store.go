// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package token manages verification-link tokens: issuing, delivery and
// redemption. Tokens are keyed by email and time-bound, not single-use;
// any unexpired redemption succeeds and renews the session window.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/activememb/membergate/internal/models"
	"github.com/activememb/membergate/internal/repository"
)

// TokenLength is the number of random bytes in a verification token.
const TokenLength = 32

// RedeemResult is the outcome of a redemption attempt.
type RedeemResult int

const (
	// RedeemNotFound means no token exists for the (email, token) pair.
	RedeemNotFound RedeemResult = iota
	// RedeemExpired means the pair matched but the expiry has passed.
	RedeemExpired
	// RedeemValid means the token is live and the email is verified.
	RedeemValid
)

func (r RedeemResult) String() string {
	switch r {
	case RedeemValid:
		return "valid"
	case RedeemExpired:
		return "expired"
	default:
		return "not_found"
	}
}

// Mailer delivers the verification link. Satisfied by the email service.
type Mailer interface {
	SendVerification(ctx context.Context, toEmail, slug, token string, minutes int) error
}

// Store issues and redeems verification tokens.
type Store struct {
	repo   *repository.Repository
	mailer Mailer
	window time.Duration
}

// NewStore creates a token store. window is the validity period of a
// mailed link (the product default is 10 minutes).
func NewStore(repo *repository.Repository, mailer Mailer, window time.Duration) *Store {
	return &Store{repo: repo, mailer: mailer, window: window}
}

// Window returns the configured token validity period.
func (s *Store) Window() time.Duration {
	return s.window
}

// Issue generates a fresh token for the email valid for the window from
// now, persists it and mails the gate link. The token is stored before
// delivery is attempted, so a failed send leaves a redeemable token
// behind for a later resend.
func (s *Store) Issue(ctx context.Context, page *models.Page, email string, now time.Time) error {
	plaintext, hash, err := generateToken()
	if err != nil {
		return err
	}

	expiresAt := now.Add(s.window)
	if err := s.repo.CreateVerificationToken(ctx, email, hash, page.ID, expiresAt); err != nil {
		return fmt.Errorf("storing verification token: %w", err)
	}

	minutes := int(s.window / time.Minute)
	if err := s.mailer.SendVerification(ctx, email, page.Slug, plaintext, minutes); err != nil {
		return fmt.Errorf("delivering verification mail: %w", err)
	}
	return nil
}

// Redeem checks a token presented by a visitor. The lookup is by the
// exact (email, token) pair; a matching pair past its expiry reports
// RedeemExpired so the caller can re-issue.
func (s *Store) Redeem(ctx context.Context, email, plaintext string, now time.Time) (RedeemResult, error) {
	tok, err := s.repo.GetVerificationToken(ctx, email, HashToken(plaintext))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RedeemNotFound, nil
		}
		return RedeemNotFound, err
	}

	if now.After(tok.ExpiresAt) {
		return RedeemExpired, nil
	}
	return RedeemValid, nil
}

// HashToken computes the SHA256 hash of a token for storage and lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateToken returns (plaintext token, SHA256 hash for storage).
func generateToken() (string, string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plaintext := hex.EncodeToString(bytes)
	return plaintext, HashToken(plaintext), nil
}
