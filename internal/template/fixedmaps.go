package template

import (
	"strings"

	"github.com/formvault/pdf-stamper/internal/profile"
)

// FieldCoordinate is a placement in the hand-authored fixed coordinate
// tables: unscaled page points with y measured from the top of the page.
type FieldCoordinate struct {
	X        float64
	Y        float64
	Page     int
	FontSize float64
	MaxWidth float64
}

// FormMapping is one fixed coordinate table keyed by canonical field name.
type FormMapping map[string]FieldCoordinate

// Known fixed form types.
const (
	FormSBD1Tourism = "SBD1_TOURISM"
	FormSABSRFP     = "SABS_RFP"
	FormSBD4        = "SBD4"
)

// FixedMaps are the hand-authored coordinate tables for the known form
// layouts, keyed by form type.
var FixedMaps = map[string]FormMapping{
	FormSBD1Tourism: {
		profile.KeyNameOfBidder:  {Page: 0, X: 130, Y: 515, FontSize: 10, MaxWidth: 250},
		profile.KeyPostalAddress: {Page: 0, X: 130, Y: 495, FontSize: 10, MaxWidth: 250},
		profile.KeyStreetAddress: {Page: 0, X: 130, Y: 460, FontSize: 10, MaxWidth: 250},
		profile.KeyCellNumber:    {Page: 0, X: 130, Y: 425, FontSize: 10, MaxWidth: 150},
		profile.KeyVATNumber:     {Page: 0, X: 130, Y: 390, FontSize: 10, MaxWidth: 150},
		profile.KeyCSDNumber:     {Page: 0, X: 420, Y: 355, FontSize: 10, MaxWidth: 150},
		profile.KeySignature:     {Page: 6, X: 150, Y: 120, FontSize: 10},
	},
	FormSABSRFP: {
		profile.KeyNameOfBidder:  {Page: 1, X: 230, Y: 655, FontSize: 10, MaxWidth: 300},
		profile.KeyPostalAddress: {Page: 1, X: 230, Y: 625, FontSize: 10, MaxWidth: 300},
		profile.KeyStreetAddress: {Page: 1, X: 230, Y: 595, FontSize: 10, MaxWidth: 300},
		profile.KeyVATNumber:     {Page: 1, X: 230, Y: 480, FontSize: 10, MaxWidth: 200},
		profile.KeySignature:     {Page: 20, X: 200, Y: 150, FontSize: 10},
	},
	FormSBD4: {
		profile.KeyNameOfBidder: {Page: 0, X: 130, Y: 515, FontSize: 10, MaxWidth: 250},
		profile.KeySignature:    {Page: 1, X: 150, Y: 120, FontSize: 10},
	},
}

// DetectFormType classifies extracted document text against the known
// fixed layouts. SABS keywords are tested before the broader bidding-
// document keywords since the latter match almost any tender form.
// Returns "" when nothing matches.
func DetectFormType(pdfText string) string {
	t := strings.ToLower(pdfText)

	for _, kw := range []string{"sabs", "south african bureau of standards", "rfp 201891"} {
		if strings.Contains(t, kw) {
			return FormSABSRFP
		}
	}

	for _, kw := range []string{
		"tourism", "sbd", "sbd 1", "sbd1",
		"standard bidding document", "bidder", "tender",
	} {
		if strings.Contains(t, kw) {
			return FormSBD1Tourism
		}
	}

	return ""
}

// MapProfileToFixedFields builds the canonical-field -> value map used to
// fill a fixed coordinate table. Empty values stay empty and are dropped by
// the fill loop.
func MapProfileToFixedFields(p *profile.Profile) map[string]string {
	c := p.Company

	cell := c.Contact.Cellphone
	if cell == "" {
		cell = c.Contact.Telephone
	}
	csd := c.Basic.RegistrationNumber
	if csd == "" {
		csd = c.Basic.CSDNumber
	}

	return map[string]string{
		profile.KeyNameOfBidder:  c.Basic.LegalName,
		profile.KeyPostalAddress: c.Contact.PostalAddress,
		profile.KeyStreetAddress: c.Contact.PhysicalAddress,
		profile.KeyCellNumber:    cell,
		profile.KeyVATNumber:     c.Basic.VATNumber,
		profile.KeyCSDNumber:     csd,
	}
}
