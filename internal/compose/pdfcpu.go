package compose

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"math"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfDocument is the pdfcpu-backed Document. Draw calls build watermark
// descriptors grouped by page; Save applies them to the original bytes in
// one pass.
type pdfDocument struct {
	src   []byte
	conf  *model.Configuration
	dims  []types.Dim
	marks map[int][]*model.Watermark
}

// Open loads a PDF for stamping. Validation is relaxed: scanned government
// forms are routinely produced by sloppy generators and strict validation
// rejects documents that render fine.
func Open(src []byte) (Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to load PDF: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	return &pdfDocument{
		src:   src,
		conf:  conf,
		dims:  dims,
		marks: make(map[int][]*model.Watermark),
	}, nil
}

func (d *pdfDocument) PageCount() int { return len(d.dims) }

func (d *pdfDocument) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > len(d.dims) {
		return 0, 0, fmt.Errorf("page %d out of range (document has %d pages)", page, len(d.dims))
	}
	dim := d.dims[page-1]
	return dim.Width, dim.Height, nil
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (d *pdfDocument) DrawText(page int, t Text) error {
	if page < 1 || page > len(d.dims) {
		return fmt.Errorf("page %d out of range", page)
	}
	color := t.Color
	if !hexColor.MatchString(color) {
		color = "#000000"
	}

	desc := fmt.Sprintf(
		"fontname:%s, points:%.2f, scalefactor:1 abs, position:bl, offset:%.2f %.2f, fillcolor:%s, rotation:0, opacity:1",
		t.Font, t.Size, t.X, t.Y, color)

	wm, err := api.TextWatermark(t.Value, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build text stamp: %w", err)
	}
	d.marks[page] = append(d.marks[page], wm)
	return nil
}

func (d *pdfDocument) DrawImage(page int, img Image) error {
	if page < 1 || page > len(d.dims) {
		return fmt.Errorf("page %d out of range", page)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("failed to decode stamp image: %w", err)
	}
	if cfg.Width <= 0 {
		return fmt.Errorf("stamp image has no width")
	}
	// Images render at one point per pixel; scale to the requested box width.
	// The aspect ratio is the image's own, so the drawn height can differ
	// from the requested box height.
	scale := img.Width / float64(cfg.Width)
	y := anchorImageY(img.Y, img.Height, float64(cfg.Height)*scale)

	desc := fmt.Sprintf(
		"scalefactor:%.4f abs, position:bl, offset:%.2f %.2f, rotation:0, opacity:1",
		scale, img.X, y)

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(img.Data), desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build image stamp: %w", err)
	}
	d.marks[page] = append(d.marks[page], wm)
	return nil
}

func (d *pdfDocument) MeasureText(text, font string, size float64) float64 {
	pts := int(math.Round(size))
	if pts < 1 {
		pts = 1
	}
	return pdffont.TextWidth(text, font, pts)
}

// Save writes the stamped document. pdfcpu applies at most one watermark
// per page per call, so pages carrying several marks are stamped in passes
// over intermediate buffers.
func (d *pdfDocument) Save(w io.Writer) error {
	data := d.src
	for _, pass := range watermarkPasses(d.marks) {
		var buf bytes.Buffer
		if err := api.AddWatermarksMap(bytes.NewReader(data), &buf, pass, d.conf); err != nil {
			return fmt.Errorf("failed to apply stamps: %w", err)
		}
		data = buf.Bytes()
	}
	_, err := w.Write(data)
	return err
}

// anchorImageY keeps the top edge of the requested box fixed when the drawn
// height differs from the requested height. Callers place images by the top
// edge (y + boxHeight), so the bottom-left draw origin moves instead.
func anchorImageY(y, boxHeight, drawHeight float64) float64 {
	if boxHeight <= 0 {
		return y
	}
	return y + boxHeight - drawHeight
}

// watermarkPasses splits per-page mark lists into rounds of one mark per
// page, preserving draw order within each page.
func watermarkPasses(marks map[int][]*model.Watermark) []map[int]*model.Watermark {
	var passes []map[int]*model.Watermark
	for i := 0; ; i++ {
		pass := make(map[int]*model.Watermark)
		for page, list := range marks {
			if i < len(list) {
				pass[page] = list[i]
			}
		}
		if len(pass) == 0 {
			return passes
		}
		passes = append(passes, pass)
	}
}
