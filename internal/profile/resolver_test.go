package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testProfile() *Profile {
	return &Profile{
		Company: Company{
			Basic: Basic{
				LegalName:          "Acme CC",
				RegistrationNumber: "2019/123456/07",
				VATNumber:          "4123456789",
				CSDNumber:          "MAAA0123456",
			},
			Contact: Contact{
				PhysicalAddress: "1 Long Street, Cape Town",
				PostalAddress:   "PO Box 99, Cape Town, 8000",
				Telephone:       "021 555 0100",
				Cellphone:       "082 555 0199",
				Email:           "tenders@acme.example",
			},
			Directors: []Director{
				{Name: "T Mokoena", IDNumber: "8001015009087", Position: "Member"},
			},
			Compliance:  Compliance{RSAResident: true},
			Preferences: Preferences{WomenOwnedPercent: 51, PointsClaimed: 20},
		},
	}
}

func TestFieldData(t *testing.T) {
	p := testProfile()
	now := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	data := p.FieldData(now)

	assert.Equal(t, "15 January 2026", data["todayDate"])
	assert.Equal(t, data["todayDate"], data["currentDate"])
	assert.Equal(t, data["todayDate"], data["date"])

	assert.Equal(t, GlyphTick, data["tick"])
	assert.Equal(t, GlyphTick, data["checkmark"])
	assert.Equal(t, GlyphDash, data["dash"])
	assert.Equal(t, GlyphDash, data["cancel"])
	assert.Equal(t, GlyphCross, data["cross"])

	assert.Equal(t, "Acme CC", data["legalName"])
	assert.Equal(t, "Acme CC", data["bidderName"])
	assert.Equal(t, "Yes", data["rsaResident"])
	assert.Equal(t, "No", data["hasBranch"])
	assert.Equal(t, "51%", data["womenOwned"])
	assert.Equal(t, "20", data["pointsClaimed"])
	assert.Equal(t, SignaturePlaceholder, data["signature"])

	// Second director is absent: the value must be empty, not panic.
	assert.Equal(t, "", data["director2Name"])
}

func TestFieldDataSingleDigitDate(t *testing.T) {
	p := testProfile()
	now := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 March 2026", p.FieldData(now)["date"])
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name of Bidder:", "name of bidder"},
		{"VAT  REG.  NO.", "vat reg no"},
		{"  C.S.D #  ", "c s d"},
		{"plain", "plain"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in), "NormalizeKey(%q)", tt.in)
	}
}

func TestResolveKey(t *testing.T) {
	p := testProfile()

	tests := []struct {
		name      string
		keyText   string
		wantField string
		wantValue string
		wantOK    bool
	}{
		{"name of bidder", "Name of Bidder:", KeyNameOfBidder, "Acme CC", true},
		{"tenderer alias", "NAME OF TENDERER", KeyNameOfBidder, "Acme CC", true},
		{"vat", "VAT Registration No.", KeyVATNumber, "4123456789", true},
		{"csd", "CSD Supplier Number", KeyCSDNumber, "MAAA0123456", true},
		{"registration number maps to csd", "Company Registration Number", KeyCSDNumber, "MAAA0123456", true},
		{"cell", "Cell Number", KeyCellNumber, "082 555 0199", true},
		{"email", "E-mail Address", KeyEmail, "tenders@acme.example", true},
		{"postal", "Postal Address", KeyPostalAddress, "PO Box 99, Cape Town, 8000", true},
		{"street", "Physical Address", KeyStreetAddress, "1 Long Street, Cape Town", true},
		{"no match", "Closing Date", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, value, ok := p.ResolveKey(tt.keyText)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestResolveKeyEmptyValueDropped(t *testing.T) {
	// A matching predicate with an empty backing value must behave exactly
	// like no match at all.
	p := testProfile()
	p.Company.Basic.VATNumber = ""

	_, _, ok := p.ResolveKey("VAT Number")
	assert.False(t, ok)
}

func TestSignatureImage(t *testing.T) {
	p := testProfile()

	_, err := p.SignatureImage()
	assert.Error(t, err, "missing signature must error")

	// "PNG" base64-encoded with a data-URL prefix.
	p.Signature.Base64 = "data:image/png;base64,UE5H"
	img, err := p.SignatureImage()
	assert.NoError(t, err)
	assert.Equal(t, []byte("PNG"), img)

	// Bare base64 without prefix is accepted too.
	p.Signature.Base64 = "UE5H"
	img, err = p.SignatureImage()
	assert.NoError(t, err)
	assert.Equal(t, []byte("PNG"), img)
}
