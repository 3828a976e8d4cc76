// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

package activecampaign

// Custom field IDs in the ActiveCampaign account that back the checkout
// address fields.
const (
	fieldStreetAddress = "1"
	fieldCity          = "2"
	fieldState         = "3"
	fieldPostcode      = "4"
	fieldPhone         = "5"
)

// Prefill holds the checkout field defaults derived from a CRM contact.
// Empty fields are omitted from the JSON payload so the storefront only
// overrides what the CRM actually knows.
type Prefill struct {
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	StreetAddress1 string `json:"street_address_1,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Postcode       string `json:"postcode,omitempty"`
}

// BuildPrefill maps a contact and its custom field values onto checkout
// defaults. Standard contact fields win for name, email and phone; the
// phone custom field only fills in when the contact record has none.
func BuildPrefill(contact *Contact, values []FieldValue) Prefill {
	p := Prefill{}
	if contact != nil {
		p.FirstName = contact.FirstName
		p.LastName = contact.LastName
		p.Email = contact.Email
		p.Phone = contact.Phone
	}

	for _, fv := range values {
		if fv.Value == "" {
			continue
		}
		switch fv.Field {
		case fieldStreetAddress:
			p.StreetAddress1 = fv.Value
		case fieldCity:
			p.City = fv.Value
		case fieldState:
			p.State = fv.Value
		case fieldPostcode:
			p.Postcode = fv.Value
		case fieldPhone:
			if p.Phone == "" {
				p.Phone = fv.Value
			}
		}
	}

	return p
}
