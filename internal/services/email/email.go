// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package email delivers verification-link mails over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Service sends the gate's outbound mail.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// GateURL builds the verification link for a page slug and token.
func (s *Service) GateURL(slug, token string) string {
	return fmt.Sprintf("%s/p/%s?token=%s", s.baseURL, slug, token)
}

// SendVerification mails the verification link for a gated page.
// Delivery is at-most-once; there is no retry.
func (s *Service) SendVerification(ctx context.Context, toEmail, slug, token string, minutes int) error {
	subject := i18n.T(ctx, "verification_mail_subject")
	body := i18n.TData(ctx, "verification_mail_body", map[string]any{
		"GateURL": s.GateURL(slug, token),
		"Minutes": minutes,
	})

	return s.send(toEmail, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
