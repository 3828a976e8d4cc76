// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package server

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/activememb/membergate/internal/appcontext"
	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/i18n"
	"github.com/activememb/membergate/internal/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, sess *sessions.Manager) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	e.Use(csrfMiddleware(cfg))
	e.Use(csrfToContext())
	e.Use(i18nMiddleware())
	e.Use(sessionMiddleware(sess))
}

// csrfMiddleware configures CSRF protection for the visitor forms. The
// admin API is exempt: it authenticates with a bearer key, not a cookie,
// so there is nothing for a cross-site request to ride on.
func csrfMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")

	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/admin/")
		},
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// csrfToContext copies the CSRF token to the request context so the
// identify form can render it.
func csrfToContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := c.Get("csrf").(string); ok {
				ctx := appcontext.WithCSRFToken(c.Request().Context(), token)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// sessionMiddleware decodes the visitor session into the request
// context. A fresh session gets its cookie set right away so the ID is
// stable across the verification round trip.
func sessionMiddleware(sess *sessions.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, fresh := sess.Load(c.Request())
			if fresh {
				if err := sess.Save(c.Response(), s); err != nil {
					return err
				}
			}
			ctx := appcontext.WithSession(c.Request().Context(), s)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// adminAuth guards the admin routes with a static bearer key. With no
// key configured the routes are disabled entirely.
func adminAuth(cfg *config.Config) echo.MiddlewareFunc {
	apiKey := cfg.Admin.APIKey
	if apiKey == "" {
		slog.Warn("no admin API key configured, admin routes disabled")
	}

	return middleware.KeyAuth(func(key string, _ echo.Context) (bool, error) {
		if apiKey == "" {
			return false, nil
		}
		return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
	})
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// i18nMiddleware sets the locale based on Accept-Language header.
func i18nMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acceptLang := c.Request().Header.Get("Accept-Language")
			lang := i18n.MatchLanguage(acceptLang)
			ctx := i18n.WithLocale(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
