package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/formvault/pdf-stamper/internal/fill"
	"github.com/formvault/pdf-stamper/internal/layer"
	"github.com/formvault/pdf-stamper/internal/template"
)

// readUpload pulls the uploaded PDF out of a multipart form, enforcing the
// configured size limit. Returns the file bytes and the client filename.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		return nil, "", fill.E(fill.KindDocument, "server.readUpload", "upload too large or malformed", err)
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		return nil, "", fill.E(fill.KindDocument, "server.readUpload", "missing 'pdf' form file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fill.E(fill.KindDocument, "server.readUpload", "failed to read upload", err)
	}
	return data, header.Filename, nil
}

func (s *Server) handleProcessTemplate(w http.ResponseWriter, r *http.Request) {
	pdf, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.service.ProcessTemplate(r.Context(), fill.ProcessTemplateRequest{
		Filename:   filename,
		PDF:        pdf,
		TemplateID: r.FormValue("templateId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseLayers decodes the layers JSON field of an edit upload.
func parseLayers(r *http.Request) ([]layer.TextLayer, error) {
	raw := r.FormValue("layers")
	if raw == "" {
		return nil, nil
	}
	var layers []layer.TextLayer
	if err := json.Unmarshal([]byte(raw), &layers); err != nil {
		return nil, fill.E(fill.KindDocument, "server.parseLayers", "invalid layers payload", err)
	}
	return layers, nil
}

func (s *Server) handleSaveEdited(w http.ResponseWriter, r *http.Request) {
	pdf, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	layers, err := parseLayers(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.service.SaveEdited(r.Context(), fill.SaveEditedRequest{
		Filename: filename,
		PDF:      pdf,
		Layers:   layers,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDownloadEdited(w http.ResponseWriter, r *http.Request) {
	pdf, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	layers, err := parseLayers(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.service.DownloadEdited(r.Context(), fill.DownloadEditedRequest{
		Filename: filename,
		PDF:      pdf,
		Layers:   layers,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	servePDF(w, res.Filename, res.PDF)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	pdf, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.service.Analyze(r.Context(), fill.AnalyzeRequest{Filename: filename, PDF: pdf})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req fill.SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fill.E(fill.KindDocument, "server.handleSign", "invalid request body", err))
		return
	}

	res, err := s.service.Sign(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFillFixed(w http.ResponseWriter, r *http.Request) {
	pdf, filename, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.service.FillFixed(r.Context(), fill.FillFixedRequest{
		Filename: filename,
		PDF:      pdf,
		FormType: r.FormValue("formType"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ListTemplates()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var mapping *template.Mapping
	var name string
	var sourcePDF []byte

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		// Designer save: mapping JSON plus the source PDF it was drawn on.
		pdf, filename, err := s.readUpload(w, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		sourcePDF = pdf
		name = r.FormValue("name")
		if name == "" {
			name = filename
		}
		if err := json.Unmarshal([]byte(r.FormValue("mapping")), &mapping); err != nil {
			s.writeError(w, r, fill.E(fill.KindDocument, "server.handleSaveTemplate", "invalid mapping payload", err))
			return
		}
	} else {
		// Re-save without a PDF keeps the stored source.
		var body struct {
			Name    string            `json:"name"`
			Mapping *template.Mapping `json:"mapping"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, r, fill.E(fill.KindDocument, "server.handleSaveTemplate", "invalid request body", err))
			return
		}
		mapping, name = body.Mapping, body.Name
	}

	if mapping == nil {
		s.writeError(w, r, fill.E(fill.KindDocument, "server.handleSaveTemplate", "missing template mapping", nil))
		return
	}
	if err := s.service.SaveTemplate(mapping, name, sourcePDF); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"templateId": mapping.TemplateID})
}

func (s *Server) handleTemplateSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pdf, err := s.service.TemplateSource(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	servePDF(w, id+".pdf", pdf)
}

func (s *Server) handleDetectTemplate(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.DetectTemplate(r.URL.Query().Get("filename"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTemplate(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVaultList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.VaultList(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": entries})
}

func (s *Server) handleVaultDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, entry, err := s.service.VaultDownload(r.Context(), chi.URLParam(r, "id"), q.Get("exp"), q.Get("sig"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	servePDF(w, entry.Filename, data)
}

func (s *Server) handleVaultDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.VaultDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func servePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
