// Package geom converts positions between the three coordinate spaces used
// by the stamping pipeline: ratio space (0-1 fractions of the page, origin
// top-left), editor space (ratio scaled by the on-screen zoom factor, origin
// top-left) and PDF space (unscaled points, origin bottom-left).
//
// The same Transformer must be used by every caller that touches a position;
// mixing transformers with different scales silently misplaces fields.
package geom

import "math"

// DefaultScale is the zoom factor used when rendering a PDF page for
// on-screen editing. The interactive editor, the template designer and the
// compositor must all agree on this value.
const DefaultScale = 1.5

// Ratio is a page-relative position: fractions of page width/height with
// origin at the top-left. Values are conceptually in [0,1] but render-time
// nudges may push them slightly outside; only non-finite values are coerced.
type Ratio struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Coordinate is a point in editor or PDF space depending on context.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transformer performs conversions between ratio, editor and PDF space for
// a single scale factor.
type Transformer struct {
	Scale float64
}

// NewTransformer returns a Transformer for the given editor scale.
// Non-positive scales fall back to DefaultScale.
func NewTransformer(scale float64) Transformer {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = DefaultScale
	}
	return Transformer{Scale: scale}
}

// sanitize coerces non-finite values to 0 so a bad input nudges a field to
// the page corner instead of making the render silently fail.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RatioToEditor converts a ratio position to editor coordinates
// (scaled, origin top-left). Used when loading templates into the editor.
func (t Transformer) RatioToEditor(r Ratio, pageWidth, pageHeight float64) Coordinate {
	return Coordinate{
		X: sanitize(r.X) * pageWidth * t.Scale,
		// Flip Y for the canvas: the ratio's Y means "from the top of the
		// page" while the page-height arithmetic runs bottom-up.
		Y: (1 - sanitize(r.Y)) * pageHeight * t.Scale,
	}
}

// EditorToPDF converts editor coordinates to PDF coordinates
// (unscaled, origin bottom-left). Used when committing edits to the PDF.
func (t Transformer) EditorToPDF(c Coordinate, pageHeight float64) Coordinate {
	return Coordinate{
		X: sanitize(c.X) / t.Scale,
		Y: pageHeight - sanitize(c.Y)/t.Scale,
	}
}

// EditorToRatio converts editor coordinates back to ratios for storage.
// It is the exact inverse of RatioToEditor.
func (t Transformer) EditorToRatio(c Coordinate, pageWidth, pageHeight float64) Ratio {
	return Ratio{
		X: (sanitize(c.X) / t.Scale) / pageWidth,
		Y: 1 - (sanitize(c.Y)/t.Scale)/pageHeight,
	}
}

// BaselineAscent is the ascent approximation applied when translating a
// top-anchored editor Y to a PDF text baseline. Roughly right for the
// standard sans fonts and applied uniformly regardless of family.
const BaselineAscent = 0.75

// EditorYToPDFBaseline converts an editor Y coordinate to the PDF Y of the
// text baseline for the given font size. PDF drawText anchors at the
// baseline while the editor anchors at the top-left, so the ascent
// (~75% of the font size) is added after the space conversion.
func (t Transformer) EditorYToPDFBaseline(editorY, pageHeight, fontSize float64) float64 {
	pdf := t.EditorToPDF(Coordinate{X: 0, Y: editorY}, pageHeight)
	return pdf.Y + fontSize*BaselineAscent
}
