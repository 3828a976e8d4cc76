// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package templates renders the visitor-facing gate pages.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
	"github.com/activememb/membergate/internal/appcontext"
	"github.com/activememb/membergate/internal/models"
)

const shell = `<!DOCTYPE html>
<html lang="%s">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head>
<body>%s</body>
</html>`

// Content renders a page body. The body is trusted HTML authored through
// the admin API; only the title is escaped.
func Content(page *models.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		article := fmt.Sprintf(`<article><h1>%s</h1>%s</article>`,
			html.EscapeString(page.Title), page.Body)
		return writeShell(ctx, w, page.Title, article)
	})
}

// Placeholder renders the neutral check-your-email box shown instead of
// gated content. An extra line is prepended for the expired-link case.
func Placeholder(title string, lines ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := `<div class="gate-placeholder" style="text-align:center;margin:0;">`
		for _, line := range lines {
			body += "<p>" + html.EscapeString(line) + "</p>"
		}
		body += `</div>`
		return writeShell(ctx, w, title, body)
	})
}

// IdentifyForm renders the email prompt shown to visitors who have not
// identified themselves yet.
func IdentifyForm(title, slug string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := fmt.Sprintf(`<form class="gate-identify" method="post" action="/identify" style="text-align:center;">
<p>%s</p>
<input type="hidden" name="csrf_token" value="%s">
<input type="hidden" name="slug" value="%s">
<input type="email" name="email" required autocomplete="email">
<button type="submit">%s</button>
</form>`,
			html.EscapeString(T(ctx, "gate_identify_prompt")),
			html.EscapeString(appcontext.GetCSRFToken(ctx)),
			html.EscapeString(slug),
			html.EscapeString(T(ctx, "gate_identify_submit")))
		return writeShell(ctx, w, title, body)
	})
}

// Denied renders the hard denial message.
func Denied(title, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := fmt.Sprintf(
			`<p class="gate-denied" style="text-align:center;margin:0;color:red;font-weight:500;">%s</p>`,
			html.EscapeString(message))
		return writeShell(ctx, w, title, body)
	})
}

func writeShell(ctx context.Context, w io.Writer, title, body string) error {
	_, err := fmt.Fprintf(w, shell, Locale(ctx), html.EscapeString(title), body)
	return err
}
