package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvault/pdf-stamper/internal/template"
)

const (
	pageW = 595.0
	pageH = 842.0
)

func TestCompileTextLayer(t *testing.T) {
	c := NewCompiler(1.5)
	m := template.FieldMapping{Page: 2, XRatio: 0.2, YRatio: 0.3, Type: template.FieldText}

	l := c.Compile("legalName", m, "Acme Trading CC", pageW, pageH)
	require.NotNil(t, l)

	assert.Equal(t, "Acme Trading CC", l.Text)
	assert.InDelta(t, 0.2*pageW*1.5, l.X, 1e-9)
	assert.InDelta(t, 0.7*pageH*1.5, l.Y, 1e-9)
	assert.Equal(t, 14.0, l.FontSize)
	assert.Equal(t, "Helvetica", l.FontFamily)
	assert.Equal(t, "#000000", l.Color)
	assert.True(t, l.Bold)
	assert.Equal(t, 2, l.Page)
	assert.Equal(t, template.FieldText, l.Type)
	assert.NotEmpty(t, l.ID)
}

func TestCompileEmptyValue(t *testing.T) {
	c := NewCompiler(1.5)
	m := template.FieldMapping{Type: template.FieldText}

	assert.Nil(t, c.Compile("vatNumber", m, "", pageW, pageH))
	assert.Nil(t, c.Compile("vatNumber", m, "   ", pageW, pageH))
}

func TestCompileCustomValueOverrides(t *testing.T) {
	c := NewCompiler(1.5)
	m := template.FieldMapping{Type: template.FieldText, IsCustom: true, CustomValue: "N/A"}

	// Custom value renders even when the profile has nothing for the field.
	l := c.Compile("unknownField", m, "", pageW, pageH)
	require.NotNil(t, l)
	assert.Equal(t, "N/A", l.Text)

	// And wins over a resolved value.
	l = c.Compile("unknownField", m, "resolved", pageW, pageH)
	require.NotNil(t, l)
	assert.Equal(t, "N/A", l.Text)
}

func TestCompileSymbolSizes(t *testing.T) {
	c := NewCompiler(1.5)

	tests := []struct {
		value string
		size  float64
	}{
		{"✓", 24},
		{"✗", 24},
		{"x", 24},
		{"—", 28},
		{"-", 28},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			m := template.FieldMapping{Type: template.FieldSymbol, MaxWidthRatio: 0.01}
			l := c.Compile("bbbeeLevel1", m, tt.value, pageW, pageH)
			require.NotNil(t, l)
			// Symbol sizing wins over the max-width shrink heuristic.
			assert.Equal(t, tt.size, l.FontSize)
		})
	}
}

func TestCompileMaxWidthShrink(t *testing.T) {
	c := NewCompiler(1.5)
	long := "A Very Long Company Legal Name Proprietary Limited"
	// maxWidth = 0.1 * 595 * 1.5 ≈ 89 px, far less than len*8 ≈ 408 px.
	m := template.FieldMapping{Type: template.FieldText, MaxWidthRatio: 0.1}

	l := c.Compile("legalName", m, long, pageW, pageH)
	require.NotNil(t, l)
	assert.Equal(t, 10.0, l.FontSize)

	// Short text under the same constraint keeps the default size.
	l = c.Compile("legalName", m, "Acme", pageW, pageH)
	require.NotNil(t, l)
	assert.Equal(t, 14.0, l.FontSize)
}

func TestCompileSignatureDefaults(t *testing.T) {
	c := NewCompiler(1.5)
	m := template.FieldMapping{Type: template.FieldSignature}

	l := c.Compile("signature", m, "Signature", pageW, pageH)
	require.NotNil(t, l)
	assert.Equal(t, 150.0, l.Width)
	assert.Equal(t, 50.0, l.Height)
	assert.False(t, l.Checked)
}

func TestCompileCheckboxDefaults(t *testing.T) {
	c := NewCompiler(1.5)
	m := template.FieldMapping{Type: template.FieldCheckbox}

	l := c.Compile("vatRegistered", m, "✓", pageW, pageH)
	require.NotNil(t, l)
	assert.Equal(t, 20.0, l.Width)
	assert.Equal(t, 20.0, l.Height)
	assert.True(t, l.Checked)
}

func TestCompileExplicitSizeBeatsDefaults(t *testing.T) {
	c := NewCompiler(1.5)
	m := template.FieldMapping{
		Type:        template.FieldSignature,
		WidthRatio:  0.4,
		HeightRatio: 0.1,
	}

	l := c.Compile("signature", m, "Signature", pageW, pageH)
	require.NotNil(t, l)
	assert.InDelta(t, 0.4*pageW*1.5, l.Width, 1e-9)
	assert.InDelta(t, 0.1*pageH*1.5, l.Height, 1e-9)
}

func TestCompileFieldSkipsEmpty(t *testing.T) {
	c := NewCompiler(1.5)
	mappings := template.Mappings{
		{Page: 0, XRatio: 0.1, YRatio: 0.1, Type: template.FieldText},
		{Page: 3, XRatio: 0.5, YRatio: 0.5, Type: template.FieldText},
	}

	layers := c.CompileField("legalName", mappings, "Acme", pageW, pageH)
	require.Len(t, layers, 2)
	assert.Equal(t, 0, layers[0].Page)
	assert.Equal(t, 3, layers[1].Page)

	assert.Empty(t, c.CompileField("legalName", mappings, "", pageW, pageH))
}

func TestNudgeAccumulation(t *testing.T) {
	n := NudgeSet{}

	n.Add("v1", 0.25, -0.25)
	n.Add("v1", 0.125, 0.5)
	n.Add("v2", -0.5, 0)

	assert.Equal(t, Nudge{DXRatio: 0.375, DYRatio: 0.25}, n.Get("v1"))
	assert.Equal(t, Nudge{DXRatio: -0.5, DYRatio: 0}, n.Get("v2"))
	assert.Equal(t, Nudge{}, n.Get("never-nudged"))
}
