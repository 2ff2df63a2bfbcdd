package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchFilename(t *testing.T) {
	known := []Info{
		{ID: "SBD 4", Name: "SBD4"},
		{ID: "DM755", Name: "Registration"},
	}
	var m Matcher

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"matches by name substring", "my_SBD4_form.pdf", "SBD 4"},
		{"matches by id substring", "scan dm755 final.pdf", "DM755"},
		{"case insensitive", "MY_sbd4_FORM.PDF", "SBD 4"},
		{"matches by template name", "registration-form.pdf", "DM755"},
		{"no match", "unrelated.pdf", ""},
		{"empty filename", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MatchFilename(tt.filename, known))
		})
	}
}

func TestMatchFilenameFirstWins(t *testing.T) {
	// Two templates could both match; the first stored one wins.
	known := []Info{
		{ID: "SBD", Name: "SBD"},
		{ID: "SBD 4", Name: "SBD4"},
	}
	var m Matcher
	assert.Equal(t, "SBD", m.MatchFilename("sbd4.pdf", known))
}

func TestMatchContent(t *testing.T) {
	known := []Info{{ID: "SBD4"}, {ID: "SABS"}}
	var m Matcher

	tests := []struct {
		name string
		text string
		want string
	}{
		{"fingerprint hit", "STANDARD BIDDING DOCUMENT\nDeclaration of Interest (SBD4)", "SBD4"},
		{"sabs keywords", "the south african bureau of standards invites", "SABS"},
		{"fingerprint for unstored template ignored", "dm 755 application for registration", ""},
		{"no keywords", "completely unrelated text", ""},
		{"empty text", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MatchContent(tt.text, known))
		})
	}
}

func TestDetectFormType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"sabs beats generic bidding keywords", "SABS tender for bidders", FormSABSRFP},
		{"standard bidding document", "STANDARD BIDDING DOCUMENT SBD 1", FormSBD1Tourism},
		{"tourism", "Department of Tourism RFQ", FormSBD1Tourism},
		{"nothing", "an invoice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormType(tt.text))
		})
	}
}

func TestFixedMapsScenario(t *testing.T) {
	// The SBD1 tourism table places the bidder name at (130, 515) on page 0.
	coord := FixedMaps[FormSBD1Tourism]["NAME_OF_BIDDER"]
	assert.Equal(t, 0, coord.Page)
	assert.Equal(t, 130.0, coord.X)
	assert.Equal(t, 515.0, coord.Y)
	assert.Equal(t, 250.0, coord.MaxWidth)
}
