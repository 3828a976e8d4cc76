// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package activecampaign is a small client for the ActiveCampaign v3
// REST API. Only the endpoints the gate needs are covered: contact
// lookup, contact tags, the account tag list and the credential check.
package activecampaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/activememb/membergate/internal/models"
)

// ErrUnavailable is returned when the API cannot be reached or answers
// with a malformed or non-2xx response. Callers treat it as "no tags"
// and fail closed.
var ErrUnavailable = errors.New("activecampaign unavailable")

// ErrContactNotFound is returned when no contact exists for an email.
var ErrContactNotFound = errors.New("contact not found")

// DefaultTimeout bounds every outbound call.
const DefaultTimeout = 20 * time.Second

// Client talks to one ActiveCampaign account.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the given account base URL and API key.
// A timeout of 0 selects DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Contact is a CRM contact record.
type Contact struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Tag is one account-level tag definition.
type Tag struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// FieldValue is one custom field value attached to a contact.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// CheckConnection verifies the configured URL and API key.
func (c *Client) CheckConnection(ctx context.Context) error {
	var out struct{}
	return c.get(ctx, "/api/3/users/me", &out)
}

// LookupContact finds the contact record for an email address.
func (c *Client) LookupContact(ctx context.Context, email string) (*Contact, error) {
	var out struct {
		Contacts []Contact `json:"contacts"`
	}
	path := "/api/3/contacts?email=" + url.QueryEscape(email)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if len(out.Contacts) == 0 {
		return nil, ErrContactNotFound
	}
	return &out.Contacts[0], nil
}

// FetchContactTags returns the tag IDs attached to the contact for the
// given email. An unknown contact yields an empty set, not an error; the
// evaluator treats it like an unidentified visitor.
func (c *Client) FetchContactTags(ctx context.Context, email string) (models.TagList, error) {
	contact, err := c.LookupContact(ctx, email)
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var out struct {
		ContactTags []struct {
			Tag string `json:"tag"`
		} `json:"contactTags"`
	}
	if err := c.get(ctx, "/api/3/contacts/"+contact.ID+"/contactTags", &out); err != nil {
		return nil, err
	}

	tags := make(models.TagList, 0, len(out.ContactTags))
	for _, ct := range out.ContactTags {
		id, err := strconv.ParseInt(ct.Tag, 10, 64)
		if err != nil {
			continue
		}
		tags = append(tags, id)
	}
	return tags, nil
}

// ListTags returns the account's tag definitions for the page editor.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var out struct {
		Tags []Tag `json:"tags"`
	}
	if err := c.get(ctx, "/api/3/tags?limit=100", &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// ContactFieldValues returns the contact together with its custom field
// values, used for checkout prefill.
func (c *Client) ContactFieldValues(ctx context.Context, contactID string) (*Contact, []FieldValue, error) {
	var out struct {
		Contact     *Contact     `json:"contact"`
		FieldValues []FieldValue `json:"fieldValues"`
	}
	if err := c.get(ctx, "/api/3/contacts/"+contactID+"?include=fieldValues", &out); err != nil {
		return nil, nil, err
	}
	if out.Contact == nil {
		return nil, nil, ErrContactNotFound
	}
	return out.Contact, out.FieldValues, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Api-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d for %s", ErrUnavailable, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}
	return nil
}
