package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Client calls the external document-analysis service. The service accepts
// raw PDF bytes and returns a Textract-dialect block list.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *log.Logger
}

// NewClient returns a Client for the given analyzer endpoint.
func NewClient(endpoint string, logger *log.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 90 * time.Second},
		logger:   logger,
	}
}

// analyzeResponse is the wire shape of the analyzer reply.
type analyzeResponse struct {
	Blocks []Block `json:"Blocks"`
}

// Analyze submits the document and returns the parsed analysis. Analyzer
// failures are fatal for the request: there is no fallback source of field
// positions for an unmapped document.
func (c *Client) Analyze(ctx context.Context, pdf []byte) (Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(pdf))
	if err != nil {
		return Analysis{}, fmt.Errorf("building analyzer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Feature-Types", "FORMS,SIGNATURES")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("calling analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Analysis{}, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var ar analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return Analysis{}, fmt.Errorf("decoding analyzer response: %w", err)
	}

	a := ParseBlocks(ar.Blocks)
	c.logger.Debug("document analyzed",
		"blocks", len(ar.Blocks),
		"fields", len(a.Fields),
		"signatures", len(a.Signatures),
		"took", time.Since(start))
	return a, nil
}
