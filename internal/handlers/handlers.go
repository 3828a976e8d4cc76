// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package handlers contains all HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/activememb/membergate/internal/activecampaign"
	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/services/access"
	"github.com/activememb/membergate/internal/sessions"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	repo     *repository.Repository
	sessions *sessions.Manager
	access   *access.Service
	crm      *activecampaign.Client
}

// New creates a new Handlers instance.
func New(cfg *config.Config, repo *repository.Repository, sess *sessions.Manager, acc *access.Service, crm *activecampaign.Client) *Handlers {
	return &Handlers{
		cfg:      cfg,
		repo:     repo,
		sessions: sess,
		access:   acc,
		crm:      crm,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
