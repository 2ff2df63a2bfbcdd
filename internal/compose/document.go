// Package compose writes text layers, detected fields and fixed coordinate
// tables into PDF documents. Drawing goes through the Document interface so
// placement logic can be tested without a PDF engine; the one concrete
// implementation is backed by pdfcpu.
package compose

import "io"

// Text is one string to draw. X and Y are PDF points with origin at the
// bottom-left; Y is the text baseline.
type Text struct {
	Value string
	X     float64
	Y     float64
	Font  string
	Size  float64
	Color string
}

// Image is one image to draw. X and Y locate the bottom-left corner of the
// drawn box, in PDF points.
type Image struct {
	Data   []byte
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Document is a loaded PDF open for stamping. Draw calls accumulate; Save
// applies them and writes the stamped document. Pages are 1-based.
type Document interface {
	PageCount() int
	// PageSize returns the unscaled media box dimensions of a page in points.
	PageSize(page int) (width, height float64, err error)
	DrawText(page int, t Text) error
	DrawImage(page int, img Image) error
	// MeasureText returns the rendered width of text in points.
	MeasureText(text, font string, size float64) float64
	Save(w io.Writer) error
}

// Standard font names accepted by Document.DrawText.
const (
	FontHelvetica     = "Helvetica"
	FontHelveticaBold = "Helvetica-Bold"
	FontTimes         = "Times-Roman"
	FontTimesBold     = "Times-Bold"
	FontCourier       = "Courier"
	FontCourierBold   = "Courier-Bold"
)
