// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/activememb/membergate/internal/appcontext"
	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/services/access"
	"github.com/activememb/membergate/internal/templates"
	"github.com/labstack/echo/v4"
)

// Gate serves a gated page. The access service decides what the visitor
// gets; this handler only maps the outcome onto a response.
func (h *Handlers) Gate(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	page, err := h.repo.GetPageBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}

	sess := appcontext.GetSession(ctx)
	result := h.access.Decide(ctx, access.Request{
		Page:    page,
		Session: sess,
		Token:   c.QueryParam("token"),
		IP:      c.RealIP(),
		Now:     time.Now(),
	})

	switch result.Outcome {
	case access.ShowContent:
		return Render(c, http.StatusOK, templates.Content(page))
	case access.VerifiedRedirect, access.FallbackRedirect:
		return c.Redirect(http.StatusSeeOther, result.RedirectURL)
	case access.TokenExpired:
		return Render(c, http.StatusOK, templates.Placeholder(page.Title,
			templates.T(ctx, "gate_token_expired"),
			templates.T(ctx, "gate_check_email")))
	case access.Denied:
		return Render(c, http.StatusOK, templates.Denied(page.Title, templates.T(ctx, "gate_denied")))
	default: // CheckEmail
		if !sess.Identified() {
			return Render(c, http.StatusOK, templates.IdentifyForm(page.Title, page.Slug))
		}
		return Render(c, http.StatusOK, templates.Placeholder(page.Title, templates.T(ctx, "gate_check_email")))
	}
}

// Identify records the visitor's email in the session and sends them
// back to the page they came from.
func (h *Handlers) Identify(c echo.Context) error {
	email := strings.TrimSpace(strings.ToLower(c.FormValue("email")))
	if _, err := mail.ParseAddress(email); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email address")
	}

	sess := appcontext.GetSession(c.Request().Context())
	sess.Email = email
	if err := h.sessions.Save(c.Response(), sess); err != nil {
		return err
	}

	if slug := c.FormValue("slug"); slug != "" {
		return c.Redirect(http.StatusSeeOther, "/p/"+slug)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout forgets the visitor's identity and every verification grant
// held by the session.
func (h *Handlers) Logout(c echo.Context) error {
	sess := appcontext.GetSession(c.Request().Context())
	if err := h.sessions.Clear(c.Request().Context(), c.Response(), sess); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
