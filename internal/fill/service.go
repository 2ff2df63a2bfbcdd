// Package fill orchestrates the stamping pipeline: template matching, field
// resolution, layer compilation, document analysis and final composition.
// Transport handlers stay thin; every operation lives here behind
// Request/Result structs.
package fill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/formvault/pdf-stamper/internal/analyze"
	"github.com/formvault/pdf-stamper/internal/compose"
	"github.com/formvault/pdf-stamper/internal/config"
	"github.com/formvault/pdf-stamper/internal/extract"
	"github.com/formvault/pdf-stamper/internal/layer"
	"github.com/formvault/pdf-stamper/internal/profile"
	"github.com/formvault/pdf-stamper/internal/template"
	"github.com/formvault/pdf-stamper/internal/vault"
)

// detectPageLimit caps how many pages are text-extracted for template and
// form detection; fingerprint keywords live on the first pages.
const detectPageLimit = 5

// Service wires the stamping pipeline together.
type Service struct {
	cfg        *config.Config
	logger     *log.Logger
	profile    *profile.Profile
	templates  *template.Store
	vault      *vault.Vault
	analyzer   *analyze.Client
	matcher    template.Matcher
	compiler   layer.Compiler
	compositor *compose.Compositor

	// openDoc loads PDF bytes for stamping; swapped out in tests.
	openDoc func([]byte) (compose.Document, error)
}

// NewService creates the orchestration service. analyzer may be nil when no
// analyzer endpoint is configured.
func NewService(cfg *config.Config, logger *log.Logger, p *profile.Profile,
	store *template.Store, v *vault.Vault, analyzer *analyze.Client,
) *Service {
	return &Service{
		cfg:        cfg,
		logger:     logger,
		profile:    p,
		templates:  store,
		vault:      v,
		analyzer:   analyzer,
		compiler:   layer.NewCompiler(cfg.Scale),
		compositor: compose.NewCompositor(cfg.Scale, logger),
		openDoc:    compose.Open,
	}
}

// SetDocumentOpener overrides how PDF bytes are loaded for stamping. Used
// by tests and by callers bringing their own engine.
func (s *Service) SetDocumentOpener(open func([]byte) (compose.Document, error)) {
	s.openDoc = open
}

// ProcessTemplate matches an uploaded document against the stored templates
// and compiles editor layers from the profile. The source is vaulted so the
// editor can refer back to it by id.
func (s *Service) ProcessTemplate(ctx context.Context, req ProcessTemplateRequest) (*ProcessTemplateResult, error) {
	const op = "fill.ProcessTemplate"

	if len(req.PDF) == 0 {
		return nil, E(KindDocument, op, "no document uploaded", nil)
	}

	id := req.TemplateID
	if id == "" {
		var err error
		id, err = s.detectTemplate(req.Filename, req.PDF)
		if err != nil {
			return nil, E(KindInternal, op, "failed to list templates", err)
		}
	}
	if id == "" {
		return nil, E(KindNotFound, op, "no template matches this document", nil)
	}

	mapping, err := s.templates.Load(id)
	if errors.Is(err, template.ErrNotFound) {
		return nil, E(KindNotFound, op, fmt.Sprintf("template %q does not exist", id), err)
	}
	if err != nil {
		// Found but unreadable is an internal fault, not a matching miss.
		return nil, E(KindInternal, op, fmt.Sprintf("template %q is unreadable", id), err)
	}

	doc, err := s.openDoc(req.PDF)
	if err != nil {
		return nil, E(KindDocument, op, "document could not be loaded", err)
	}

	layers := s.compileLayers(doc, mapping)

	entry, link, err := s.vault.Put(ctx, req.Filename, req.PDF)
	if err != nil {
		return nil, E(KindInternal, op, "failed to vault source document", err)
	}

	s.logger.Info("template processed",
		"template", id, "filename", req.Filename, "layers", len(layers))
	return &ProcessTemplateResult{
		TemplateID:  id,
		PageCount:   doc.PageCount(),
		Layers:      layers,
		DocumentID:  entry.ID,
		DownloadURL: link,
	}, nil
}

func (s *Service) detectTemplate(filename string, pdf []byte) (string, error) {
	infos, err := s.templates.List()
	if err != nil {
		return "", err
	}

	if id := s.matcher.MatchFilename(filename, infos); id != "" {
		return id, nil
	}
	if !s.cfg.ContentDetection {
		return "", nil
	}

	text, err := extract.Text(pdf, detectPageLimit)
	if err != nil {
		s.logger.Warn("content detection skipped", "filename", filename, "err", err)
		return "", nil
	}
	return s.matcher.MatchContent(text, infos), nil
}

// compileLayers builds one layer per field placement. Field names iterate
// in sorted order so repeated calls produce the same layer sequence.
func (s *Service) compileLayers(doc compose.Document, mapping *template.Mapping) []layer.TextLayer {
	data := s.profile.FieldData(time.Now())

	names := make([]string, 0, len(mapping.Fields))
	for name := range mapping.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var layers []layer.TextLayer
	for _, name := range names {
		for _, m := range mapping.Fields[name] {
			pageW, pageH, err := doc.PageSize(m.Page + 1)
			if err != nil {
				s.logger.Warn("field placement off the document", "field", name, "page", m.Page)
				continue
			}
			if l := s.compiler.Compile(name, m, data[name], pageW, pageH); l != nil {
				layers = append(layers, *l)
			}
		}
	}
	return layers
}

// SaveEdited bakes the editor layers into the document and vaults the
// result.
func (s *Service) SaveEdited(ctx context.Context, req SaveEditedRequest) (*StampResult, error) {
	const op = "fill.SaveEdited"

	stamped, out, err := s.stampLayers(op, req.PDF, req.Layers)
	if err != nil {
		return nil, err
	}

	entry, link, err := s.vault.Put(ctx, outputName(req.Filename), out)
	if err != nil {
		return nil, E(KindInternal, op, "failed to vault stamped document", err)
	}

	s.logger.Info("edited document saved", "id", entry.ID, "layers", stamped)
	return &StampResult{Entry: entry, DownloadURL: link, Stamped: stamped}, nil
}

// DownloadEdited bakes the editor layers and returns the bytes without
// vaulting, for direct browser downloads.
func (s *Service) DownloadEdited(_ context.Context, req DownloadEditedRequest) (*DownloadEditedResult, error) {
	const op = "fill.DownloadEdited"

	stamped, out, err := s.stampLayers(op, req.PDF, req.Layers)
	if err != nil {
		return nil, err
	}
	return &DownloadEditedResult{
		Filename: outputName(req.Filename),
		PDF:      out,
		Stamped:  stamped,
	}, nil
}

func (s *Service) stampLayers(op string, pdf []byte, layers []layer.TextLayer) (int, []byte, error) {
	if len(pdf) == 0 {
		return 0, nil, E(KindDocument, op, "no document uploaded", nil)
	}

	doc, err := s.openDoc(pdf)
	if err != nil {
		return 0, nil, E(KindDocument, op, "document could not be loaded", err)
	}

	sigPNG := s.signatureImage()
	stamped := s.compositor.StampLayers(doc, layers, sigPNG)

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return 0, nil, E(KindInternal, op, "failed to write stamped document", err)
	}
	return stamped, buf.Bytes(), nil
}

// signatureImage returns the profile signature PNG, nil when absent. A
// missing signature only matters for signature layers, which the compositor
// skips with a log line.
func (s *Service) signatureImage() []byte {
	img, err := s.profile.SignatureImage()
	if err != nil {
		return nil
	}
	return img
}

// Analyze submits a document to the external analyzer, vaults the source
// and persists the analysis so Sign can pick it up later.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	const op = "fill.Analyze"

	if len(req.PDF) == 0 {
		return nil, E(KindDocument, op, "no document uploaded", nil)
	}
	if s.analyzer == nil {
		return nil, E(KindUpstream, op, "document analyzer is not configured", nil)
	}

	analysis, err := s.analyzer.Analyze(ctx, req.PDF)
	if err != nil {
		return nil, E(KindUpstream, op, "document analysis failed", err)
	}

	mapped, warnings := analyze.MapFields(s.profile, analysis.Fields)

	entry, link, err := s.vault.Put(ctx, req.Filename, req.PDF)
	if err != nil {
		return nil, E(KindInternal, op, "failed to vault source document", err)
	}

	stored := storedAnalysis{
		Filename:   req.Filename,
		Fields:     mapped,
		Signatures: analysis.Signatures,
	}
	if err := s.writeAnalysis(entry.ID, stored); err != nil {
		return nil, E(KindInternal, op, "failed to persist analysis", err)
	}

	s.logger.Info("document analyzed",
		"id", entry.ID, "fields", len(mapped), "signatures", len(analysis.Signatures), "warnings", len(warnings))
	return &AnalyzeResult{
		DocumentID:  entry.ID,
		DownloadURL: link,
		Fields:      mapped,
		Signatures:  analysis.Signatures,
		Warnings:    warnings,
	}, nil
}

// Sign fills a previously analyzed document: profile values into detected
// boxes, signature image into the best signature region, client nudges
// applied on top.
func (s *Service) Sign(ctx context.Context, req SignRequest) (*StampResult, error) {
	const op = "fill.Sign"

	stored, err := s.readAnalysis(req.DocumentID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, E(KindNotFound, op, "no analysis stored for this document", err)
		}
		return nil, E(KindInternal, op, "failed to load stored analysis", err)
	}

	src, _, err := s.vault.Open(ctx, req.DocumentID)
	if errors.Is(err, vault.ErrNotFound) || errors.Is(err, vault.ErrExpired) {
		return nil, E(KindNotFound, op, "source document is gone from the vault", err)
	}
	if err != nil {
		return nil, E(KindInternal, op, "failed to read source document", err)
	}

	doc, err := s.openDoc(src)
	if err != nil {
		return nil, E(KindDocument, op, "document could not be loaded", err)
	}

	nudges := req.Nudges
	if nudges == nil {
		nudges = layer.NudgeSet{}
	}

	var sig *analyze.DetectedSignature
	if best, ok := analyze.BestSignature(stored.Signatures); ok {
		sig = &best
	}

	stamped := s.compositor.StampDetected(doc, stored.Fields, sig, s.signatureImage(), nudges)

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, E(KindInternal, op, "failed to write signed document", err)
	}

	entry, link, err := s.vault.Put(ctx, outputName(stored.Filename), buf.Bytes())
	if err != nil {
		return nil, E(KindInternal, op, "failed to vault signed document", err)
	}

	s.logger.Info("document signed", "source", req.DocumentID, "id", entry.ID, "stamped", stamped)
	return &StampResult{Entry: entry, DownloadURL: link, Stamped: stamped}, nil
}

// FillFixed fills a document using one of the hand-authored coordinate
// tables, detecting the layout from document text unless forced.
func (s *Service) FillFixed(ctx context.Context, req FillFixedRequest) (*FillFixedResult, error) {
	const op = "fill.FillFixed"

	if len(req.PDF) == 0 {
		return nil, E(KindDocument, op, "no document uploaded", nil)
	}

	formType := req.FormType
	if formType == "" {
		text, err := extract.Text(req.PDF, detectPageLimit)
		if err != nil {
			return nil, E(KindDocument, op, "document text could not be extracted", err)
		}
		formType = template.DetectFormType(text)
	}
	form, ok := template.FixedMaps[formType]
	if !ok {
		return nil, E(KindNotFound, op, "document does not match a known form layout", nil)
	}

	doc, err := s.openDoc(req.PDF)
	if err != nil {
		return nil, E(KindDocument, op, "document could not be loaded", err)
	}

	values := template.MapProfileToFixedFields(s.profile)
	stamped := s.compositor.StampFixed(doc, form, values, s.signatureImage())

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, E(KindInternal, op, "failed to write filled document", err)
	}

	entry, link, err := s.vault.Put(ctx, outputName(req.Filename), buf.Bytes())
	if err != nil {
		return nil, E(KindInternal, op, "failed to vault filled document", err)
	}

	s.logger.Info("fixed form filled", "form", formType, "id", entry.ID, "stamped", stamped)
	return &FillFixedResult{
		FormType:    formType,
		StampResult: StampResult{Entry: entry, DownloadURL: link, Stamped: stamped},
	}, nil
}

// DetectTemplate reports which template a filename would match, without
// touching any document bytes.
func (s *Service) DetectTemplate(filename string) (*TemplateDetectResult, error) {
	infos, err := s.templates.List()
	if err != nil {
		return nil, E(KindInternal, "fill.DetectTemplate", "failed to list templates", err)
	}
	id := s.matcher.MatchFilename(filename, infos)
	return &TemplateDetectResult{TemplateID: id, Matched: id != ""}, nil
}

// SaveTemplate stores or updates a template mapping.
func (s *Service) SaveTemplate(mapping *template.Mapping, name string, sourcePDF []byte) error {
	const op = "fill.SaveTemplate"
	if err := mapping.Validate(); err != nil {
		return E(KindDocument, op, "invalid template mapping", err)
	}
	if err := s.templates.Save(mapping, name, sourcePDF); err != nil {
		return E(KindInternal, op, "failed to save template", err)
	}
	s.logger.Info("template saved", "template", mapping.TemplateID, "fields", len(mapping.Fields))
	return nil
}

// TemplateSource returns the designer source PDF stored with a template.
func (s *Service) TemplateSource(id string) ([]byte, error) {
	const op = "fill.TemplateSource"
	pdf, err := s.templates.SourcePDF(id)
	if errors.Is(err, template.ErrNotFound) {
		return nil, E(KindNotFound, op, fmt.Sprintf("no source PDF stored for template %q", id), err)
	}
	if err != nil {
		return nil, E(KindInternal, op, "failed to load template source", err)
	}
	return pdf, nil
}

// ListTemplates returns the stored template listings.
func (s *Service) ListTemplates() (*TemplateList, error) {
	infos, err := s.templates.List()
	if err != nil {
		return nil, E(KindInternal, "fill.ListTemplates", "failed to list templates", err)
	}
	return &TemplateList{Templates: infos}, nil
}

// DeleteTemplate removes a stored template.
func (s *Service) DeleteTemplate(id string) error {
	const op = "fill.DeleteTemplate"
	err := s.templates.Delete(id)
	if errors.Is(err, template.ErrNotFound) {
		return E(KindNotFound, op, fmt.Sprintf("template %q does not exist", id), err)
	}
	if err != nil {
		return E(KindInternal, op, "failed to delete template", err)
	}
	return nil
}

// VaultList returns the unexpired vault entries.
func (s *Service) VaultList(ctx context.Context) ([]vault.Entry, error) {
	entries, err := s.vault.List(ctx)
	if err != nil {
		return nil, E(KindInternal, "fill.VaultList", "failed to list vault", err)
	}
	return entries, nil
}

// VaultDownload verifies a signed link and returns the document.
func (s *Service) VaultDownload(ctx context.Context, id, exp, sig string) ([]byte, vault.Entry, error) {
	const op = "fill.VaultDownload"
	if err := s.vault.Verify(id, exp, sig); err != nil {
		return nil, vault.Entry{}, E(KindNotFound, op, "download link is invalid or expired", err)
	}
	data, entry, err := s.vault.Open(ctx, id)
	if errors.Is(err, vault.ErrNotFound) || errors.Is(err, vault.ErrExpired) {
		return nil, vault.Entry{}, E(KindNotFound, op, "document is gone from the vault", err)
	}
	if err != nil {
		return nil, vault.Entry{}, E(KindInternal, op, "failed to read document", err)
	}
	return data, entry, nil
}

// VaultDelete removes a vaulted document and its analysis, if any.
func (s *Service) VaultDelete(ctx context.Context, id string) error {
	const op = "fill.VaultDelete"
	err := s.vault.Delete(ctx, id)
	if errors.Is(err, vault.ErrNotFound) {
		return E(KindNotFound, op, "vault entry does not exist", err)
	}
	if err != nil {
		return E(KindInternal, op, "failed to delete vault entry", err)
	}
	os.Remove(s.analysisPath(id))
	return nil
}

func (s *Service) analysisPath(id string) string {
	return filepath.Join(s.cfg.DataDirectory, "analysis", id+".json")
}

func (s *Service) writeAnalysis(id string, a storedAnalysis) error {
	dir := filepath.Dir(s.analysisPath(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(s.analysisPath(id), data, 0o644)
}

func (s *Service) readAnalysis(id string) (storedAnalysis, error) {
	var a storedAnalysis
	data, err := os.ReadFile(s.analysisPath(id))
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("stored analysis is corrupt: %w", err)
	}
	return a, nil
}

// outputName derives the vaulted filename for a stamped document.
func outputName(src string) string {
	if src == "" {
		return "filled.pdf"
	}
	ext := filepath.Ext(src)
	base := src[:len(src)-len(ext)]
	if ext == "" {
		ext = ".pdf"
	}
	return base + "_filled" + ext
}
