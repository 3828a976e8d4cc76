// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package gating decides whether a page is protected for a visitor.
//
// The rules, in precedence order: a configured disallow list wins over
// the allow list; when both lists are configured and the contact matches
// neither, access is denied; an allow list denies unidentified visitors
// unconditionally; no configured lists means no restriction.
package gating

import "github.com/activememb/membergate/internal/models"

// Decision is the evaluator outcome for one request.
type Decision struct {
	// Protected is true when the visitor must not see the content.
	Protected bool
	// Audited is true when the allow-list step ran. Every audited
	// evaluation appends an access-log entry; the trail is append-only
	// and duplicates are intentional.
	Audited bool
}

// Evaluate applies the gating rules for one page and one visitor.
// contactTags is the visitor's CRM tag set; identified is false when no
// email is known for the visitor. An unreachable CRM is represented by
// an empty contactTags, which fails closed wherever a rule is configured.
func Evaluate(allow, disallow, contactTags models.TagList, identified bool) Decision {
	hasContact := identified && len(contactTags) > 0

	protected := true
	hasAllowed := false
	hasDisallowed := false

	if len(disallow) > 0 {
		if hasContact {
			hasDisallowed = intersects(contactTags, disallow)
			protected = hasDisallowed

			// Both lists configured and the contact matches neither:
			// stay protected.
			if len(allow) > 0 {
				hasAllowed = intersects(contactTags, allow)
				if !hasDisallowed && !hasAllowed {
					protected = true
				}
			}
		}
	} else {
		protected = false
	}

	audited := false
	if len(allow) > 0 && !protected {
		audited = true
		if hasContact {
			hasAllowed = intersects(contactTags, allow)
			switch {
			case hasAllowed:
				protected = false
			case !hasAllowed && !hasDisallowed:
				protected = true
			default:
				protected = false
			}
		} else {
			protected = true
		}
	}

	if len(allow) == 0 && len(disallow) == 0 {
		protected = false
	}

	return Decision{Protected: protected, Audited: audited}
}

func intersects(tags, wanted models.TagList) bool {
	for _, tag := range tags {
		if wanted.Contains(tag) {
			return true
		}
	}
	return false
}
