// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/activememb/membergate/internal/models"
	"github.com/activememb/membergate/internal/repository"
	"github.com/labstack/echo/v4"
)

// pageInput is the admin payload for creating or updating a gated page.
type pageInput struct {
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Body         string         `json:"body"`
	AllowTags    models.TagList `json:"allow_tags"`
	DisallowTags models.TagList `json:"disallow_tags"`
	TwoFactor    bool           `json:"two_factor"`
	FallbackURL  string         `json:"fallback_url"`
}

// AdminListPages returns all gated pages.
func (h *Handlers) AdminListPages(c echo.Context) error {
	pages, err := h.repo.ListPages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pages)
}

// AdminCreatePage creates a gated page.
func (h *Handlers) AdminCreatePage(c echo.Context) error {
	var in pageInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if in.Slug == "" || in.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "slug and title are required")
	}

	page := &models.Page{
		Slug:         in.Slug,
		Title:        in.Title,
		Body:         in.Body,
		AllowTags:    in.AllowTags,
		DisallowTags: in.DisallowTags,
		TwoFactor:    in.TwoFactor,
		FallbackURL:  in.FallbackURL,
	}
	if err := h.repo.CreatePage(c.Request().Context(), page); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, page)
}

// AdminGetPage returns one gated page by slug.
func (h *Handlers) AdminGetPage(c echo.Context) error {
	page, err := h.repo.GetPageBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// AdminUpdatePage updates a gated page. The slug in the URL wins over
// any slug in the payload; slugs are not renameable.
func (h *Handlers) AdminUpdatePage(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := h.repo.GetPageBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}

	var in pageInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if in.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	page.Title = in.Title
	page.Body = in.Body
	page.AllowTags = in.AllowTags
	page.DisallowTags = in.DisallowTags
	page.TwoFactor = in.TwoFactor
	page.FallbackURL = in.FallbackURL
	if err := h.repo.UpdatePage(ctx, page); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// AdminDeletePage deletes a gated page.
func (h *Handlers) AdminDeletePage(c echo.Context) error {
	if err := h.repo.DeletePage(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AdminListLogs returns a page of the access log, newest first.
func (h *Handlers) AdminListLogs(c echo.Context) error {
	ctx := c.Request().Context()

	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := h.repo.ListAccessLogs(ctx, limit, offset)
	if err != nil {
		return err
	}
	total, err := h.repo.CountAccessLogs(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// AdminListTags proxies the CRM's tag definitions for the page editor.
func (h *Handlers) AdminListTags(c echo.Context) error {
	tags, err := h.crm.ListTags(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "crm unavailable")
	}
	return c.JSON(http.StatusOK, tags)
}

// AdminCheckConnection verifies the configured CRM credentials.
func (h *Handlers) AdminCheckConnection(c echo.Context) error {
	if err := h.crm.CheckConnection(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "crm unavailable")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
