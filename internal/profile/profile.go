// Package profile holds the read-only company profile record and resolves
// semantic field identifiers to concrete stamp values. The profile is
// supplied whole as a JSON document; this package only reads named
// sub-fields and never mutates it.
package profile

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Basic holds the legal identity of the company.
type Basic struct {
	LegalName          string `json:"legalName"`
	RegistrationNumber string `json:"registrationNumber"`
	CompanyType        string `json:"companyType"`
	VATNumber          string `json:"vatNumber"`
	TaxPIN             string `json:"taxPin"`
	CSDNumber          string `json:"csdNumber"`
}

// Contact holds the company's contact details.
type Contact struct {
	PhysicalAddress string `json:"physicalAddress"`
	PostalAddress   string `json:"postalAddress"`
	Telephone       string `json:"telephone"`
	Cellphone       string `json:"cellphone"`
	Fax             string `json:"fax"`
	Email           string `json:"email"`
}

// Director is one company director.
type Director struct {
	Name              string `json:"name"`
	IDNumber          string `json:"idNumber"`
	Position          string `json:"position"`
	OtherAffiliations string `json:"otherAffiliations"`
}

// Compliance holds the declaration-of-interest flags rendered as Yes/No.
type Compliance struct {
	RSAResident            bool `json:"rsaResident"`
	HasBranch              bool `json:"hasBranch"`
	PermanentEstablishment bool `json:"permanentEstablishment"`
	IncomeSource           bool `json:"incomeSource"`
	TaxLiability           bool `json:"taxLiability"`
	AccreditedRep          bool `json:"accreditedRep"`
	ForeignSupplier        bool `json:"foreignSupplier"`
	StateEmployment        bool `json:"stateEmployment"`
	ProcuringRelationship  bool `json:"procuringRelationship"`
	RelatedEnterprises     bool `json:"relatedEnterprises"`
}

// Preferences holds the preferential procurement claims.
type Preferences struct {
	WomenOwnedPercent int `json:"womenOwnedPercent"`
	YouthOwnedPercent int `json:"youthOwnedPercent"`
	PWDOwnedPercent   int `json:"pwdOwnedPercent"`
	PointsClaimed     int `json:"pointsClaimed"`
}

// Signature is the stored signature image, base64 PNG with an optional
// data-URL prefix.
type Signature struct {
	Path   string `json:"path,omitempty"`
	Base64 string `json:"base64"`
	Name   string `json:"name,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Company groups the profile sub-records.
type Company struct {
	Basic       Basic             `json:"basic"`
	Contact     Contact           `json:"contact"`
	Directors   []Director        `json:"directors"`
	Compliance  Compliance        `json:"compliance"`
	Preferences Preferences       `json:"preferences"`
	Symbols     map[string]string `json:"symbols"`
}

// Profile is the full company profile document.
type Profile struct {
	Company   Company   `json:"companyProfile"`
	Signature Signature `json:"signature"`
}

// Load reads and parses a profile JSON document from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// SignatureImage decodes the stored signature into PNG bytes, stripping a
// data-URL prefix when present. Returns an error when no signature is
// stored or the payload is not valid base64.
func (p *Profile) SignatureImage() ([]byte, error) {
	raw := p.Signature.Base64
	if raw == "" {
		return nil, fmt.Errorf("no signature image stored in profile")
	}
	raw = dataURLPrefix.ReplaceAllString(raw, "")
	img, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}
	return img, nil
}

// director returns the i-th director or the zero value when absent.
func (p *Profile) director(i int) Director {
	if i < len(p.Company.Directors) {
		return p.Company.Directors[i]
	}
	return Director{}
}
