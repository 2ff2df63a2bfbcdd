package compose

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/formvault/pdf-stamper/internal/analyze"
	"github.com/formvault/pdf-stamper/internal/geom"
	"github.com/formvault/pdf-stamper/internal/layer"
	"github.com/formvault/pdf-stamper/internal/profile"
	"github.com/formvault/pdf-stamper/internal/template"
	"github.com/formvault/pdf-stamper/internal/textfit"
)

// pxToPt converts editor-pixel font sizes to PDF points.
const pxToPt = 0.75

// symbolBaseline vertically centers single glyphs instead of aligning a
// text baseline, which would leave a lone tick floating too high.
const symbolBaseline = 0.85

// Inset applied when writing into a detected value box so text does not
// touch the box border.
const detectedInset = 2.0

// fixedSignatureScale shrinks the signature image to a fifth of its
// intrinsic pixel dimensions on the fixed-coordinate path.
const fixedSignatureScale = 0.2

// Fallback signature draw box in points, used when the image dimensions
// cannot be read.
const (
	fixedSignatureWidth  = 120.0
	fixedSignatureHeight = 40.0
)

// Compositor stamps content into documents. All coordinate conversions go
// through its transformer.
type Compositor struct {
	T      geom.Transformer
	Logger *log.Logger
}

// NewCompositor returns a Compositor for the given editor scale.
func NewCompositor(scale float64, logger *log.Logger) *Compositor {
	return &Compositor{T: geom.NewTransformer(scale), Logger: logger}
}

// fontFor picks a standard font by family substring, bold variant when
// requested. Unknown families render sans.
func fontFor(family string, bold bool) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "times"):
		if bold {
			return FontTimesBold
		}
		return FontTimes
	case strings.Contains(f, "courier"):
		if bold {
			return FontCourierBold
		}
		return FontCourier
	default:
		if bold {
			return FontHelveticaBold
		}
		return FontHelvetica
	}
}

// StampLayers draws editor text layers into the document. Layer pages are
// zero-based. Drawing is best-effort: a layer that fails to draw is logged
// and skipped so one bad layer cannot sink the rest of the document.
// Returns the number of layers actually stamped.
func (c *Compositor) StampLayers(doc Document, layers []layer.TextLayer, sigPNG []byte) int {
	stamped := 0
	for _, l := range layers {
		if err := c.stampLayer(doc, l, sigPNG); err != nil {
			c.Logger.Warn("skipping layer", "layer", l.ID, "page", l.Page, "err", err)
			continue
		}
		stamped++
	}
	return stamped
}

func (c *Compositor) stampLayer(doc Document, l layer.TextLayer, sigPNG []byte) error {
	page := l.Page + 1
	_, pageH, err := doc.PageSize(page)
	if err != nil {
		return err
	}

	base := c.T.EditorToPDF(geom.Coordinate{X: l.X, Y: l.Y}, pageH)

	switch {
	case l.Type == template.FieldSignature || l.Text == profile.SignaturePlaceholder:
		if len(sigPNG) == 0 {
			return fmt.Errorf("no signature image available")
		}
		w := l.Width / c.T.Scale
		h := l.Height / c.T.Scale
		if w <= 0 {
			w = layer.SignatureWidth / c.T.Scale
		}
		if h <= 0 {
			h = layer.SignatureHeight / c.T.Scale
		}
		// The layer anchors at its top-left; images draw from the bottom-left.
		return doc.DrawImage(page, Image{
			Data: sigPNG, X: base.X, Y: base.Y - h, Width: w, Height: h,
		})

	case l.Type == template.FieldCheckbox:
		if !l.Checked {
			return nil
		}
		size := float64(layer.SymbolGlyphSize) * pxToPt
		return doc.DrawText(page, Text{
			Value: profile.GlyphTick,
			X:     base.X,
			Y:     base.Y + size*symbolBaseline,
			Font:  FontHelveticaBold,
			Size:  size,
			Color: l.Color,
		})

	case layer.IsSymbolGlyph(l.Text):
		px := math.Max(l.FontSize, layer.MinGlyphSize(l.Text))
		size := px * pxToPt
		return doc.DrawText(page, Text{
			Value: l.Text,
			X:     base.X,
			Y:     base.Y + size*symbolBaseline,
			Font:  fontFor(l.FontFamily, true),
			Size:  size,
			Color: l.Color,
		})

	default:
		size := l.FontSize * pxToPt
		return doc.DrawText(page, Text{
			Value: l.Text,
			X:     base.X,
			Y:     base.Y + size*geom.BaselineAscent,
			Font:  fontFor(l.FontFamily, l.Bold),
			Size:  size,
			Color: l.Color,
		})
	}
}

// StampDetected writes analyzer-mapped fields into their detected value
// boxes. Pages are 1-based. Text is fitted at size 10 falling back to 8
// with true font metrics, truncating with an ellipsis when even the
// fallback overflows. Nudges are page-ratio offsets keyed by the detected
// region id, applied after box placement; positive dyRatio moves down the
// page and non-finite nudges are ignored. When a signature region and
// image are both present the image fills the region.
func (c *Compositor) StampDetected(doc Document, fields []analyze.MappedField, sig *analyze.DetectedSignature, sigPNG []byte, nudges layer.NudgeSet) int {
	stamped := 0
	for _, f := range fields {
		if err := c.stampDetectedField(doc, f, nudges); err != nil {
			c.Logger.Warn("skipping detected field", "field", f.FieldKey, "page", f.Page, "err", err)
			continue
		}
		stamped++
	}

	if sig != nil && len(sigPNG) > 0 {
		if err := c.stampDetectedSignature(doc, *sig, sigPNG); err != nil {
			c.Logger.Warn("skipping detected signature", "page", sig.Page, "err", err)
		} else {
			stamped++
		}
	}
	return stamped
}

func (c *Compositor) stampDetectedField(doc Document, f analyze.MappedField, nudges layer.NudgeSet) error {
	pageW, pageH, err := doc.PageSize(f.Page)
	if err != nil {
		return err
	}

	x := f.Box.Left*pageW + detectedInset
	y := pageH - (f.Box.Top+f.Box.Height)*pageH + detectedInset

	n := nudges.Get(f.ID)
	x += finiteOrZero(n.DXRatio) * pageW
	y -= finiteOrZero(n.DYRatio) * pageH

	maxWidth := f.Box.Width*pageW - 2*detectedInset
	fit := textfit.Fit(f.Value, maxWidth, func(s string, size float64) float64 {
		return doc.MeasureText(s, FontHelvetica, size)
	}, 10, 8)

	return doc.DrawText(f.Page, Text{
		Value: fit.Text,
		X:     x,
		Y:     y,
		Font:  FontHelvetica,
		Size:  fit.FontSize,
		Color: "#000000",
	})
}

func (c *Compositor) stampDetectedSignature(doc Document, sig analyze.DetectedSignature, sigPNG []byte) error {
	pageW, pageH, err := doc.PageSize(sig.Page)
	if err != nil {
		return err
	}
	return doc.DrawImage(sig.Page, Image{
		Data:   sigPNG,
		X:      sig.Box.Left * pageW,
		Y:      pageH - (sig.Box.Top+sig.Box.Height)*pageH,
		Width:  sig.Box.Width * pageW,
		Height: sig.Box.Height * pageH,
	})
}

// StampFixed fills a hand-authored coordinate table. Table coordinates are
// page points measured from the top of the page, pages zero-based. Text
// keeps the authored size unless the value overflows MaxWidth, in which
// case it falls back to 8 points and then truncates with an ellipsis.
// Empty values are skipped.
func (c *Compositor) StampFixed(doc Document, form template.FormMapping, values map[string]string, sigPNG []byte) int {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stamped := 0
	for _, key := range keys {
		coord := form[key]
		if err := c.stampFixedField(doc, key, coord, values[key], sigPNG); err != nil {
			c.Logger.Warn("skipping fixed field", "field", key, "page", coord.Page, "err", err)
			continue
		}
		if values[key] != "" || (key == profile.KeySignature && len(sigPNG) > 0) {
			stamped++
		}
	}
	return stamped
}

func (c *Compositor) stampFixedField(doc Document, key string, coord template.FieldCoordinate, value string, sigPNG []byte) error {
	page := coord.Page + 1
	_, pageH, err := doc.PageSize(page)
	if err != nil {
		return err
	}

	if key == profile.KeySignature {
		if len(sigPNG) == 0 {
			return nil
		}
		w, h := fixedSignatureWidth, fixedSignatureHeight
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(sigPNG)); err == nil && cfg.Width > 0 {
			w = float64(cfg.Width) * fixedSignatureScale
			h = float64(cfg.Height) * fixedSignatureScale
		}
		return doc.DrawImage(page, Image{
			Data:   sigPNG,
			X:      coord.X,
			Y:      pageH - coord.Y - h,
			Width:  w,
			Height: h,
		})
	}

	if value == "" {
		return nil
	}

	size := coord.FontSize
	if size <= 0 {
		size = 10
	}
	text := value
	if coord.MaxWidth > 0 {
		fit := textfit.Fit(value, coord.MaxWidth, func(s string, sz float64) float64 {
			return doc.MeasureText(s, FontHelvetica, sz)
		}, size, 8)
		text, size = fit.Text, fit.FontSize
	}

	return doc.DrawText(page, Text{
		Value: text,
		X:     coord.X,
		Y:     pageH - coord.Y,
		Font:  FontHelvetica,
		Size:  size,
		Color: "#000000",
	})
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
