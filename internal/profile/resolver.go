package profile

import (
	"fmt"
	"strings"
	"time"
)

// Glyphs stamped for the symbol pseudo-fields.
const (
	GlyphTick  = "✓"
	GlyphDash  = "—"
	GlyphCross = "✗"
)

// SignaturePlaceholder is the pseudo-value returned for the signature field
// so the compile loop processes signature mappings without special-casing
// them out; the compositor replaces it with the image.
const SignaturePlaceholder = "Signature"

// yesNo renders a compliance flag the way the forms expect it.
func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// FieldData builds the canonical field-name -> value dictionary for one
// request. Built fresh per request because the date fields depend on now.
// Unset profile values stay empty, which downstream treats as "drop the
// field" rather than "stamp a blank".
func (p *Profile) FieldData(now time.Time) map[string]string {
	c := p.Company
	today := now.Format("2 January 2006")

	return map[string]string{
		// Date aliases all render the same string.
		"todayDate":   today,
		"currentDate": today,
		"date":        today,

		// Symbol glyphs.
		"tick":      GlyphTick,
		"checkmark": GlyphTick,
		"dash":      GlyphDash,
		"cancel":    GlyphDash,
		"cross":     GlyphCross,

		// Basic company info.
		"legalName":          c.Basic.LegalName,
		"bidderName":         c.Basic.LegalName,
		"companyName":        c.Basic.LegalName,
		"registrationNumber": c.Basic.RegistrationNumber,
		"companyType":        c.Basic.CompanyType,
		"vatNumber":          c.Basic.VATNumber,
		"taxPin":             c.Basic.TaxPIN,
		"csdNumber":          c.Basic.CSDNumber,

		// Contact info.
		"physicalAddress": c.Contact.PhysicalAddress,
		"postalAddress":   c.Contact.PostalAddress,
		"address":         c.Contact.PhysicalAddress,
		"telephone":       c.Contact.Telephone,
		"phone":           c.Contact.Telephone,
		"cellphone":       c.Contact.Cellphone,
		"fax":             c.Contact.Fax,
		"email":           c.Contact.Email,

		// Directors, first director as default.
		"directorName":     p.director(0).Name,
		"directorId":       p.director(0).IDNumber,
		"directorPosition": p.director(0).Position,
		"director1Name":    p.director(0).Name,
		"director2Name":    p.director(1).Name,

		// Compliance flags as Yes/No.
		"rsaResident":   yesNo(c.Compliance.RSAResident),
		"hasBranch":     yesNo(c.Compliance.HasBranch),
		"accreditedRep": yesNo(c.Compliance.AccreditedRep),

		// Preferential procurement claims.
		"womenOwned":    fmt.Sprintf("%d%%", c.Preferences.WomenOwnedPercent),
		"youthOwned":    fmt.Sprintf("%d%%", c.Preferences.YouthOwnedPercent),
		"pwdOwned":      fmt.Sprintf("%d%%", c.Preferences.PWDOwnedPercent),
		"pointsClaimed": fmt.Sprintf("%d", c.Preferences.PointsClaimed),

		"signature": SignaturePlaceholder,
	}
}

// NormalizeKey lowercases a free-text key, collapses every run of
// non-alphanumeric characters to a single space and trims the ends. This is
// the canonical form tested by the resolver predicates.
func NormalizeKey(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		} else {
			space = true
		}
	}
	return b.String()
}

// Canonical field keys produced by key resolution.
const (
	KeyNameOfBidder  = "NAME_OF_BIDDER"
	KeyPostalAddress = "POSTAL_ADDRESS"
	KeyStreetAddress = "STREET_ADDRESS"
	KeyCellNumber    = "CELL_NUMBER"
	KeyVATNumber     = "VAT_NUMBER"
	KeyCSDNumber     = "CSD_NUMBER"
	KeyEmail         = "EMAIL"
	KeySignature     = "SIGNATURE"
)

// keyRule maps a normalized-key predicate to a canonical field and its
// profile value. Order matters: the first matching rule wins.
type keyRule struct {
	match    func(k string) bool
	fieldKey string
	value    func(p *Profile) string
}

var keyRules = []keyRule{
	{
		match: func(k string) bool {
			return strings.Contains(k, "name of bidder") || k == "bidder" ||
				strings.Contains(k, "name of tenderer") || k == "name"
		},
		fieldKey: KeyNameOfBidder,
		value:    func(p *Profile) string { return p.Company.Basic.LegalName },
	},
	{
		match: func(k string) bool {
			return strings.Contains(k, "postal address") ||
				(strings.Contains(k, "address") && strings.Contains(k, "postal"))
		},
		fieldKey: KeyPostalAddress,
		value:    func(p *Profile) string { return p.Company.Contact.PostalAddress },
	},
	{
		match: func(k string) bool {
			return strings.Contains(k, "street address") || strings.Contains(k, "physical address") ||
				(strings.Contains(k, "address") && strings.Contains(k, "street"))
		},
		fieldKey: KeyStreetAddress,
		value:    func(p *Profile) string { return p.Company.Contact.PhysicalAddress },
	},
	{
		match: func(k string) bool {
			return strings.Contains(k, "cell") || strings.Contains(k, "mobile") ||
				strings.Contains(k, "contact number")
		},
		fieldKey: KeyCellNumber,
		value: func(p *Profile) string {
			if p.Company.Contact.Cellphone != "" {
				return p.Company.Contact.Cellphone
			}
			return p.Company.Contact.Telephone
		},
	},
	{
		match:    func(k string) bool { return strings.Contains(k, "vat") },
		fieldKey: KeyVATNumber,
		value:    func(p *Profile) string { return p.Company.Basic.VATNumber },
	},
	{
		match: func(k string) bool {
			return strings.Contains(k, "csd") || strings.Contains(k, "maaa") ||
				strings.Contains(k, "supplier number") || strings.Contains(k, "registration number")
		},
		fieldKey: KeyCSDNumber,
		value: func(p *Profile) string {
			if p.Company.Basic.CSDNumber != "" {
				return p.Company.Basic.CSDNumber
			}
			return p.Company.Basic.RegistrationNumber
		},
	},
	{
		// Normalization splits "e-mail" into "e mail"; match both spellings.
		match: func(k string) bool {
			return strings.Contains(k, "email") || strings.Contains(k, "e mail")
		},
		fieldKey: KeyEmail,
		value:    func(p *Profile) string { return p.Company.Contact.Email },
	},
}

// ResolveKey maps a free-text detected key to a canonical field and its
// profile value. The key is normalized first; the ordered rule list is
// tested and the first match wins. A miss, or a match whose backing value
// is empty, reports ok=false — callers must treat both identically and
// drop the field.
func (p *Profile) ResolveKey(keyText string) (fieldKey, value string, ok bool) {
	k := NormalizeKey(keyText)
	for _, rule := range keyRules {
		if !rule.match(k) {
			continue
		}
		v := rule.value(p)
		if v == "" {
			return "", "", false
		}
		return rule.fieldKey, v, true
	}
	return "", "", false
}
