// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/activememb/membergate/internal/appcontext"
	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/i18n"
	"github.com/activememb/membergate/internal/sessions"
	"github.com/activememb/membergate/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareEcho(t *testing.T) (*echo.Echo, *string) {
	t.Helper()
	require.NoError(t, i18n.Init())

	_, repo := testutil.NewTestDB(t)
	key, err := sessions.GenerateKey()
	require.NoError(t, err)
	sess, err := sessions.NewManager(&config.SessionConfig{
		CookieName: "_membergate",
		HashKey:    key,
	}, repo, false)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080", MaxBodySize: 1},
	}

	e := echo.New()
	setupMiddleware(e, cfg, sess)

	var identified string
	e.POST("/identify", func(c echo.Context) error {
		identified = c.FormValue("email")
		return c.NoContent(http.StatusOK)
	})
	e.GET("/form", func(c echo.Context) error {
		return c.String(http.StatusOK, appcontext.GetCSRFToken(c.Request().Context()))
	})
	e.POST("/admin/pages", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})

	return e, &identified
}

func postForm(e *echo.Echo, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCSRF_BlocksPostWithoutToken(t *testing.T) {
	e, identified := newMiddlewareEcho(t)

	rec := postForm(e, "/identify", url.Values{"email": {"victim@example.com"}}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, *identified)
}

func TestCSRF_BlocksPostWithWrongToken(t *testing.T) {
	e, identified := newMiddlewareEcho(t)

	// Obtain a CSRF cookie, then post a token that does not match it.
	get := httptest.NewRequest(http.MethodGet, "/form", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, get)
	require.Equal(t, http.StatusOK, getRec.Code)

	form := url.Values{"email": {"victim@example.com"}, "csrf_token": {"forged"}}
	rec := postForm(e, "/identify", form, getRec.Result().Cookies())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, *identified)
}

func TestCSRF_AllowsPostWithToken(t *testing.T) {
	e, identified := newMiddlewareEcho(t)

	// The GET response body carries the token the form would render.
	get := httptest.NewRequest(http.MethodGet, "/form", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, get)
	require.Equal(t, http.StatusOK, getRec.Code)
	token := getRec.Body.String()
	require.NotEmpty(t, token)

	form := url.Values{"email": {"reader@example.com"}, "csrf_token": {token}}
	rec := postForm(e, "/identify", form, getRec.Result().Cookies())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reader@example.com", *identified)
}

func TestCSRF_AdminRoutesExempt(t *testing.T) {
	e, _ := newMiddlewareEcho(t)

	rec := postForm(e, "/admin/pages", url.Values{}, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSessionMiddleware_SetsCookieForFreshSession(t *testing.T) {
	e, _ := newMiddlewareEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "_membergate" {
			found = true
		}
	}
	assert.True(t, found)
}
