// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package appcontext provides the request context keys.
package appcontext

import (
	"context"

	"github.com/activememb/membergate/internal/sessions"
)

// Context keys for storing values in context.Context.
type (
	// SessionKey is the context key for the decoded visitor session.
	SessionKey struct{}
	// CSRFTokenKey is the context key for the request's CSRF token.
	CSRFTokenKey struct{}
)

// WithSession stores the visitor session in the context.
func WithSession(ctx context.Context, s sessions.Session) context.Context {
	return context.WithValue(ctx, SessionKey{}, s)
}

// GetSession returns the visitor session from the context. A zero
// session is returned when the middleware did not run.
func GetSession(ctx context.Context) sessions.Session {
	if s, ok := ctx.Value(SessionKey{}).(sessions.Session); ok {
		return s
	}
	return sessions.Session{}
}

// WithCSRFToken stores the request's CSRF token in the context.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey{}, token)
}

// GetCSRFToken returns the CSRF token from the context.
func GetCSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(CSRFTokenKey{}).(string); ok {
		return token
	}
	return ""
}
