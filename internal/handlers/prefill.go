// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"github.com/activememb/membergate/internal/activecampaign"
	"github.com/activememb/membergate/internal/appcontext"
	"github.com/labstack/echo/v4"
)

// CheckoutPrefill returns checkout field defaults for the identified
// visitor, sourced from their CRM contact record. Visitors the CRM does
// not know get an empty object, never an error.
func (h *Handlers) CheckoutPrefill(c echo.Context) error {
	if !h.cfg.Gating.AutofillEnabled {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	ctx := c.Request().Context()
	sess := appcontext.GetSession(ctx)
	if !sess.Identified() {
		return c.JSON(http.StatusOK, activecampaign.Prefill{})
	}

	contact, err := h.crm.LookupContact(ctx, sess.Email)
	if err != nil {
		if errors.Is(err, activecampaign.ErrContactNotFound) {
			return c.JSON(http.StatusOK, activecampaign.Prefill{})
		}
		return echo.NewHTTPError(http.StatusBadGateway, "crm unavailable")
	}

	contact, values, err := h.crm.ContactFieldValues(ctx, contact.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "crm unavailable")
	}

	return c.JSON(http.StatusOK, activecampaign.BuildPrefill(contact, values))
}
