// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package email_test

import (
	"testing"

	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_RequiresHostAndFrom(t *testing.T) {
	_, err := email.NewService(&config.SMTPConfig{From: "gate@example.com"}, "https://example.com")
	assert.Error(t, err)

	_, err = email.NewService(&config.SMTPConfig{Host: "mail.example.com"}, "https://example.com")
	assert.Error(t, err)

	_, err = email.NewService(&config.SMTPConfig{Host: "mail.example.com", From: "gate@example.com"}, "https://example.com")
	assert.NoError(t, err)
}

func TestGateURL(t *testing.T) {
	svc, err := email.NewService(&config.SMTPConfig{
		Host: "mail.example.com",
		From: "gate@example.com",
	}, "https://example.com/")
	require.NoError(t, err)

	url := svc.GateURL("members-only", "abc123")

	// The trailing slash on the base URL must not double up.
	assert.Equal(t, "https://example.com/p/members-only?token=abc123", url)
}
