// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package sessions tracks the visitor's browser session: a signed cookie
// carrying the session ID and the identified email, plus server-side
// verification windows that die with the session.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/repository"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// Session is the decoded per-browser-session state.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Identified reports whether an email is known for the session.
func (s Session) Identified() bool {
	return s.Email != ""
}

// Manager encodes the session cookie and owns verification windows.
type Manager struct {
	codec      *securecookie.SecureCookie
	repo       *repository.Repository
	cookieName string
	secure     bool
}

// NewManager creates a session manager. The hash key must be a 32-byte
// hex string; when empty a throwaway key is generated, which is only
// acceptable for development since sessions then reset on restart.
func NewManager(cfg *config.SessionConfig, repo *repository.Repository, secure bool) (*Manager, error) {
	hashKey, err := keyFromHex(cfg.HashKey, 32)
	if err != nil {
		return nil, fmt.Errorf("session hash key: %w", err)
	}
	if hashKey == nil {
		slog.Warn("no session hash key configured, generating a throwaway key")
		hashKey = securecookie.GenerateRandomKey(32)
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey, err = keyFromHex(cfg.BlockKey, 32)
		if err != nil {
			return nil, fmt.Errorf("session block key: %w", err)
		}
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		codec:      codec,
		repo:       repo,
		cookieName: cfg.CookieName,
		secure:     secure,
	}, nil
}

// Load decodes the session from the request cookie. A missing or
// tampered cookie yields a fresh anonymous session; fresh reports
// whether that happened so the caller can set the cookie.
func (m *Manager) Load(r *http.Request) (s Session, fresh bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return m.newSession(), true
	}

	if err := m.codec.Decode(m.cookieName, cookie.Value, &s); err != nil || s.ID == "" {
		return m.newSession(), true
	}
	return s, false
}

// Save writes the session cookie. No Max-Age is set: the cookie, and
// with it every verification grant, dies with the browser session.
func (m *Manager) Save(w http.ResponseWriter, s Session) error {
	encoded, err := m.codec.Encode(m.cookieName, s)
	if err != nil {
		return fmt.Errorf("encoding session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie and drops the session's grants.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, s Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return m.repo.DeleteSessionVerifications(ctx, s.ID)
}

// MarkVerified grants the email a verification window for this session.
// Calling it again simply moves the window forward; the operation is
// idempotent for any instant before the later expiry.
func (m *Manager) MarkVerified(ctx context.Context, s Session, email string, ttl time.Duration) error {
	return m.repo.UpsertSessionVerification(ctx, s.ID, email, time.Now().Add(ttl))
}

// IsVerified reports whether the email holds an unexpired grant for this
// session. An expired grant reads as unverified, which sends the visitor
// back through the verification flow.
func (m *Manager) IsVerified(ctx context.Context, s Session, email string, now time.Time) bool {
	sv, err := m.repo.GetSessionVerification(ctx, s.ID, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("session verification lookup failed", "error", err)
		}
		return false
	}
	return !now.After(sv.ExpiresAt)
}

func (m *Manager) newSession() Session {
	return Session{ID: uuid.NewString()}
}

func keyFromHex(s string, size int) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(key))
	}
	return key, nil
}

// GenerateKey returns a fresh hex-encoded 32-byte key, handy for
// provisioning SESSION_HASH_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
