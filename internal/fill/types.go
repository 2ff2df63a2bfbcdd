package fill

import (
	"github.com/formvault/pdf-stamper/internal/analyze"
	"github.com/formvault/pdf-stamper/internal/layer"
	"github.com/formvault/pdf-stamper/internal/template"
	"github.com/formvault/pdf-stamper/internal/vault"
)

// Request Types

// ProcessTemplateRequest asks for an uploaded document to be matched against
// the stored templates and pre-filled from the profile.
type ProcessTemplateRequest struct {
	Filename string `json:"filename"`
	PDF      []byte `json:"-"`
	// TemplateID forces a template instead of matching by name/content.
	TemplateID string `json:"templateId,omitempty"`
}

// SaveEditedRequest bakes editor layers into a document and vaults it.
type SaveEditedRequest struct {
	Filename string            `json:"filename"`
	PDF      []byte            `json:"-"`
	Layers   []layer.TextLayer `json:"layers"`
}

// DownloadEditedRequest bakes editor layers and returns the bytes directly.
type DownloadEditedRequest struct {
	Filename string            `json:"filename"`
	PDF      []byte            `json:"-"`
	Layers   []layer.TextLayer `json:"layers"`
}

// AnalyzeRequest submits a document to the external analyzer.
type AnalyzeRequest struct {
	Filename string `json:"filename"`
	PDF      []byte `json:"-"`
}

// SignRequest fills a previously analyzed document and signs it.
type SignRequest struct {
	DocumentID string         `json:"documentId"`
	Nudges     layer.NudgeSet `json:"nudges,omitempty"`
}

// FillFixedRequest fills a document using a hand-authored coordinate table.
type FillFixedRequest struct {
	Filename string `json:"filename"`
	PDF      []byte `json:"-"`
	// FormType forces a layout; empty means detect from document text.
	FormType string `json:"formType,omitempty"`
}

// Response Types

// ProcessTemplateResult carries the compiled layers for the editor plus the
// vaulted source copy.
type ProcessTemplateResult struct {
	TemplateID  string            `json:"templateId"`
	PageCount   int               `json:"pageCount"`
	Layers      []layer.TextLayer `json:"layers"`
	DocumentID  string            `json:"documentId"`
	DownloadURL string            `json:"downloadUrl"`
}

// StampResult is the outcome of any operation producing a vaulted document.
type StampResult struct {
	Entry       vault.Entry `json:"entry"`
	DownloadURL string      `json:"downloadUrl"`
	Stamped     int         `json:"stamped"`
}

// DownloadEditedResult returns the stamped bytes without vaulting.
type DownloadEditedResult struct {
	Filename string `json:"filename"`
	PDF      []byte `json:"-"`
	Stamped  int    `json:"stamped"`
}

// AnalyzeResult reports what the analyzer found and where the source copy
// went. Warnings flag low-confidence matches for review.
type AnalyzeResult struct {
	DocumentID  string                      `json:"documentId"`
	DownloadURL string                      `json:"downloadUrl"`
	Fields      []analyze.MappedField       `json:"fields"`
	Signatures  []analyze.DetectedSignature `json:"signatures"`
	Warnings    []string                    `json:"warnings,omitempty"`
}

// FillFixedResult is a StampResult plus the layout that was used.
type FillFixedResult struct {
	FormType string `json:"formType"`
	StampResult
}

// TemplateDetectResult reports which template a filename would match.
type TemplateDetectResult struct {
	TemplateID string `json:"templateId"`
	Matched    bool   `json:"matched"`
}

// storedAnalysis is the analysis snapshot persisted between Analyze and
// Sign calls.
type storedAnalysis struct {
	Filename   string                      `json:"filename"`
	Fields     []analyze.MappedField       `json:"fields"`
	Signatures []analyze.DetectedSignature `json:"signatures"`
}

// TemplateList re-exports store listings through the service boundary.
type TemplateList struct {
	Templates []template.Info `json:"templates"`
}
