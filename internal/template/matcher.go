package template

import "strings"

// Matcher selects a stored template for an uploaded document.
//
// The active contract is filename matching: the first stored template whose
// id or name appears inside the lowercased filename wins. Content keyword
// matching against the fingerprint table is a separate, opt-in path for
// callers that extracted the document text (see MatchContent).
type Matcher struct{}

// MatchFilename returns the id of the first known template whose id or name
// is a substring of the filename (case-insensitive), or "" when none match.
func (Matcher) MatchFilename(filename string, known []Info) string {
	f := strings.ToLower(filename)
	if f == "" {
		return ""
	}
	for _, t := range known {
		if t.ID != "" && strings.Contains(f, strings.ToLower(t.ID)) {
			return t.ID
		}
		if t.Name != "" && strings.Contains(f, strings.ToLower(t.Name)) {
			return t.ID
		}
	}
	return ""
}

// fingerprints maps template ids to keywords that identify the form in its
// extracted text. Consulted only by MatchContent.
var fingerprints = map[string][]string{
	"SBD4":    {"sbd4", "sbd 4", "declaration of interest"},
	"SBD1":    {"sbd1", "sbd 1", "invitation to bid"},
	"DM755":   {"dm755", "dm 755", "application for registration"},
	"SABS":    {"sabs", "south african bureau of standards"},
	"TOURISM": {"tourism", "tourist guide"},
}

// fingerprintOrder fixes the probe order so detection is deterministic.
var fingerprintOrder = []string{"SBD4", "SBD1", "DM755", "SABS", "TOURISM"}

// MatchContent scans extracted document text against the keyword
// fingerprint table and returns the first template id with a keyword hit,
// restricted to ids that actually exist in known. Returns "" when nothing
// matches.
func (Matcher) MatchContent(text string, known []Info) string {
	t := strings.ToLower(text)
	if t == "" {
		return ""
	}

	stored := make(map[string]bool, len(known))
	for _, k := range known {
		stored[k.ID] = true
	}

	for _, id := range fingerprintOrder {
		if !stored[id] {
			continue
		}
		for _, kw := range fingerprints[id] {
			if strings.Contains(t, kw) {
				return id
			}
		}
	}
	return ""
}
