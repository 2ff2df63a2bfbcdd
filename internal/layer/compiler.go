package layer

import (
	"strings"

	"github.com/formvault/pdf-stamper/internal/geom"
	"github.com/formvault/pdf-stamper/internal/template"
	"github.com/formvault/pdf-stamper/internal/textfit"
)

// Compile-time layer defaults, in editor pixels.
const (
	DefaultFontSize   = 14
	MinFontSize       = 10
	DefaultFontFamily = "Helvetica"
	DefaultColor      = "#000000"

	SignatureWidth  = 150
	SignatureHeight = 50
	CheckboxSize    = 20
)

// Compiler turns field mappings plus resolved values into editor-space text
// layers. All placements go through the compiler's transformer so the editor
// and the compositor agree on where a field sits.
type Compiler struct {
	T geom.Transformer
}

// NewCompiler returns a Compiler for the given editor scale.
func NewCompiler(scale float64) Compiler {
	return Compiler{T: geom.NewTransformer(scale)}
}

// Compile builds the layer for one placement of a field. pageW and pageH are
// the unscaled page dimensions in points.
//
// Returns nil when the resolved value is empty: a blank stamp on the form is
// worse than an untouched field. A custom mapping value overrides the
// resolved value, so designer-pinned text still renders for fields the
// profile cannot answer.
func (c Compiler) Compile(fieldName string, m template.FieldMapping, value string, pageW, pageH float64) *TextLayer {
	if m.IsCustom && m.CustomValue != "" {
		value = m.CustomValue
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}

	pos := c.T.RatioToEditor(geom.Ratio{X: m.XRatio, Y: m.YRatio}, pageW, pageH)

	fieldType := m.Type
	if fieldType == "" {
		fieldType = template.FieldText
	}

	fontSize := float64(DefaultFontSize)
	switch {
	case IsSymbolGlyph(value):
		fontSize = MinGlyphSize(value)
	case m.MaxWidthRatio > 0:
		maxWidth := m.MaxWidthRatio * pageW * c.T.Scale
		fontSize = textfit.EstimateSize(value, maxWidth, DefaultFontSize, MinFontSize)
	}

	width, height := 0.0, 0.0
	if m.WidthRatio > 0 {
		width = m.WidthRatio * pageW * c.T.Scale
	}
	if m.HeightRatio > 0 {
		height = m.HeightRatio * pageH * c.T.Scale
	}
	switch fieldType {
	case template.FieldSignature:
		if width == 0 {
			width = SignatureWidth
		}
		if height == 0 {
			height = SignatureHeight
		}
	case template.FieldCheckbox:
		if width == 0 {
			width = CheckboxSize
		}
		if height == 0 {
			height = CheckboxSize
		}
	}

	color := m.Color
	if color == "" {
		color = DefaultColor
	}

	return &TextLayer{
		ID:         NewLayerID(),
		Text:       value,
		X:          pos.X,
		Y:          pos.Y,
		FontSize:   fontSize,
		FontFamily: DefaultFontFamily,
		Color:      color,
		Bold:       true,
		Italic:     false,
		Page:       m.Page,
		Type:       fieldType,
		Width:      width,
		Height:     height,
		Checked:    fieldType == template.FieldCheckbox,
	}
}

// CompileField builds layers for every placement of a field. Placements
// whose value compiles to nothing are skipped.
func (c Compiler) CompileField(fieldName string, mappings template.Mappings, value string, pageW, pageH float64) []TextLayer {
	var layers []TextLayer
	for _, m := range mappings {
		if l := c.Compile(fieldName, m, value, pageW, pageH); l != nil {
			layers = append(layers, *l)
		}
	}
	return layers
}
