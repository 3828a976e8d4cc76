// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package i18n_test

import (
	"context"
	"testing"

	"github.com/activememb/membergate/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, i18n.Init())

	en := i18n.WithLocale(context.Background(), language.English)
	de := i18n.WithLocale(context.Background(), language.German)

	assert.Contains(t, i18n.T(en, "gate_check_email"), "check your email")
	assert.Contains(t, i18n.T(de, "gate_check_email"), "E-Mails")

	// Unknown IDs fall back to the ID itself.
	assert.Equal(t, "does_not_exist", i18n.T(en, "does_not_exist"))
}

func TestTData(t *testing.T) {
	require.NoError(t, i18n.Init())
	ctx := i18n.WithLocale(context.Background(), language.English)

	msg := i18n.TData(ctx, "verification_mail_body", map[string]any{
		"GateURL": "https://example.com/p/x?token=y",
		"Minutes": 10,
	})

	assert.Contains(t, msg, "https://example.com/p/x?token=y")
	assert.Contains(t, msg, "10 minutes")
}

func TestMatchLanguage(t *testing.T) {
	de, _ := i18n.MatchLanguage("de-DE,de;q=0.9").Base()
	assert.Equal(t, "de", de.String())

	// Unsupported languages fall back to English.
	en, _ := i18n.MatchLanguage("fr-FR").Base()
	assert.Equal(t, "en", en.String())
}
