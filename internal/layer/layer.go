// Package layer compiles field mappings and resolved values into renderable
// text-layer descriptors. A TextLayer is ephemeral: it is produced fresh per
// request for the interactive editor, then either discarded or baked into
// the final PDF by the compositor. Layers never persist.
package layer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/formvault/pdf-stamper/internal/template"
)

// TextLayer describes one piece of renderable content at a resolved editor
// position: a text run, a glyph mark, a checkbox or a signature image box.
// X and Y are editor-space coordinates (scaled, origin top-left).
type TextLayer struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	X          float64            `json:"x"`
	Y          float64            `json:"y"`
	FontSize   float64            `json:"fontSize"`
	FontFamily string             `json:"fontFamily"`
	Color      string             `json:"color"`
	Bold       bool               `json:"bold"`
	Italic     bool               `json:"italic"`
	Page       int                `json:"page"`
	Type       template.FieldType `json:"type,omitempty"`
	Width      float64            `json:"width,omitempty"`
	Height     float64            `json:"height,omitempty"`
	Checked    bool               `json:"checked,omitempty"`
}

// NewLayerID returns a fresh unique layer id.
func NewLayerID() string {
	return fmt.Sprintf("layer-%s", uuid.NewString())
}

// symbolGlyphs are the single glyphs treated as marks rather than text.
// A bare "-", "X" or "x" typed by a user gets the same treatment as the
// canonical glyphs.
var symbolGlyphs = map[string]bool{
	"✓": true, "✗": true, "—": true, "-": true, "X": true, "x": true,
}

// IsSymbolGlyph reports whether the layer text is a standalone mark glyph.
func IsSymbolGlyph(text string) bool {
	return symbolGlyphs[strings.TrimSpace(text)]
}

// IsDashGlyph reports whether the trimmed text is the dash mark, which
// renders larger than the other glyphs.
func IsDashGlyph(text string) bool {
	t := strings.TrimSpace(text)
	return t == "—" || t == "-"
}

// Font sizes for mark glyphs, chosen for optical visibility rather than in
// proportion to any base size.
const (
	DashGlyphSize   = 28
	SymbolGlyphSize = 24
)

// MinGlyphSize returns the minimum render size for the given glyph text.
func MinGlyphSize(text string) float64 {
	if IsDashGlyph(text) {
		return DashGlyphSize
	}
	return SymbolGlyphSize
}
