// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package models contains the database row types.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TagList is a set of CRM tag IDs stored as a JSON array.
type TagList []int64

// Value serializes the tag list for storage.
func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the tag list from storage.
func (t *TagList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), t)
	case []byte:
		return json.Unmarshal(v, t)
	default:
		return fmt.Errorf("cannot scan %T into TagList", src)
	}
}

// Contains reports whether the list contains the given tag ID.
func (t TagList) Contains(id int64) bool {
	for _, v := range t {
		if v == id {
			return true
		}
	}
	return false
}

// Page is a gated content item. Empty AllowTags and DisallowTags mean no
// restriction of that kind.
type Page struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64     `db:"id" json:"id"`
	Slug         string    `db:"slug" json:"slug"`
	Title        string    `db:"title" json:"title"`
	Body         string    `db:"body" json:"body"`
	AllowTags    TagList   `db:"allow_tags" json:"allow_tags"`
	DisallowTags TagList   `db:"disallow_tags" json:"disallow_tags"`
	TwoFactor    bool      `db:"two_factor" json:"two_factor"`
	FallbackURL  string    `db:"fallback_url" json:"fallback_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Restricted reports whether any gating rule is configured for the page.
func (p *Page) Restricted() bool {
	return len(p.AllowTags) > 0 || len(p.DisallowTags) > 0
}
