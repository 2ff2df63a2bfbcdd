package template

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no template exists for the requested id.
var ErrNotFound = errors.New("template not found")

// Store persists templates in sqlite. A row carries the template id, its
// display name, the mapping JSON and, when the designer uploaded one, the
// source PDF the template was drawn against. Deleting a template cascades
// to the stored source PDF since both live in the same row.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	mapping    TEXT NOT NULL,
	source_pdf BLOB,
	created_at TEXT NOT NULL
);`

// NewStore opens (and if needed initializes) a template store at dsn.
// Use ":memory:" for an ephemeral store in tests.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}
	// A second pooled connection would see a different ":memory:" database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize template store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts a template. name defaults to the template id when empty;
// sourcePDF may be nil to keep a previously stored source.
func (s *Store) Save(mapping *Mapping, name string, sourcePDF []byte) error {
	if err := mapping.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if name == "" {
		name = mapping.TemplateID
	}

	payload, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	if sourcePDF != nil {
		_, err = s.db.Exec(`
			INSERT INTO templates (id, name, mapping, source_pdf, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				mapping = excluded.mapping, source_pdf = excluded.source_pdf`,
			mapping.TemplateID, name, string(payload), sourcePDF,
			time.Now().UTC().Format(time.RFC3339))
	} else {
		_, err = s.db.Exec(`
			INSERT INTO templates (id, name, mapping, source_pdf, created_at)
			VALUES (?, ?, ?, NULL, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				mapping = excluded.mapping`,
			mapping.TemplateID, name, string(payload),
			time.Now().UTC().Format(time.RFC3339))
	}
	if err != nil {
		return fmt.Errorf("failed to save template %q: %w", mapping.TemplateID, err)
	}
	return nil
}

// Load fetches a template mapping by id. Legacy rows whose field values are
// single objects rather than lists are normalized on decode.
func (s *Store) Load(id string) (*Mapping, error) {
	var payload string
	err := s.db.QueryRow(`SELECT mapping FROM templates WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %q: %w", id, err)
	}

	var mapping Mapping
	if err := json.Unmarshal([]byte(payload), &mapping); err != nil {
		return nil, fmt.Errorf("template %q found but unreadable: %w", id, err)
	}
	return &mapping, nil
}

// SourcePDF returns the stored source PDF for a template, or ErrNotFound
// when the template does not exist or no source was uploaded.
func (s *Store) SourcePDF(id string) ([]byte, error) {
	var pdf []byte
	err := s.db.QueryRow(`SELECT source_pdf FROM templates WHERE id = ?`, id).Scan(&pdf)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && pdf == nil) {
		return nil, fmt.Errorf("source PDF for template %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load source PDF for template %q: %w", id, err)
	}
	return pdf, nil
}

// List returns id, name and field count for every stored template.
func (s *Store) List() ([]Info, error) {
	rows, err := s.db.Query(`SELECT id, name, mapping, created_at FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var payload string
		if err := rows.Scan(&info.ID, &info.Name, &payload, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		var mapping Mapping
		if err := json.Unmarshal([]byte(payload), &mapping); err == nil {
			info.FieldCount = len(mapping.Fields)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a template and, by virtue of sharing its row, the stored
// source PDF. Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	return nil
}
