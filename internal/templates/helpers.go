// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package templates

import (
	"context"

	"github.com/activememb/membergate/internal/i18n"
)

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return i18n.T(ctx, messageID)
}

// Locale returns the current locale.
func Locale(ctx context.Context) string {
	return i18n.GetLocale(ctx)
}
