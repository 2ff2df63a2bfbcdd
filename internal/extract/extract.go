// Package extract pulls plain text out of uploaded PDFs. The text is only
// used for template fingerprinting and fixed-form detection, so extraction
// is best-effort: pages that fail to parse are skipped.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text extracts the concatenated plain text of up to maxPages pages
// (all pages when maxPages <= 0). The underlying parser panics on some
// malformed content streams, so extraction runs behind a recover and a
// broken page degrades to empty text instead of killing the request.
func Text(data []byte, maxPages int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF text extraction panicked: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	pages := r.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
