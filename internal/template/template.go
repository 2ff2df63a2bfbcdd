// Package template holds stored form templates: named collections of field
// placements authored in the designer, persisted by template id and matched
// to uploaded documents by filename (or, optionally, by content keywords).
package template

import (
	"encoding/json"
	"fmt"
)

// FieldType enumerates the kinds of placements a template can hold.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldSignature FieldType = "signature"
	FieldCheckbox  FieldType = "checkbox"
	FieldDate      FieldType = "date"
	FieldSelect    FieldType = "select"
	FieldRadio     FieldType = "radio"
	FieldSymbol    FieldType = "symbol"
)

// FieldMapping is one placement record for a named field: the page it lands
// on, its position as page-relative ratios and optional sizing constraints.
type FieldMapping struct {
	Page          int       `json:"page"`
	XRatio        float64   `json:"xRatio"`
	YRatio        float64   `json:"yRatio"`
	MaxWidthRatio float64   `json:"maxWidthRatio,omitempty"`
	WidthRatio    float64   `json:"widthRatio,omitempty"`
	HeightRatio   float64   `json:"heightRatio,omitempty"`
	Options       []string  `json:"options,omitempty"`
	Required      bool      `json:"required,omitempty"`
	Type          FieldType `json:"type"`
	Color         string    `json:"color,omitempty"`
	IsCustom      bool      `json:"isCustom,omitempty"`
	CustomValue   string    `json:"customValue,omitempty"`
}

// Mappings is the ordered list of placements owned by one field name. The
// same semantic field may be stamped on multiple pages and positions.
//
// Older templates stored a single mapping object instead of a list;
// UnmarshalJSON accepts both shapes and normalizes to a one-element list.
type Mappings []FieldMapping

// UnmarshalJSON accepts either a JSON array of mappings or a legacy single
// mapping object.
func (m *Mappings) UnmarshalJSON(data []byte) error {
	var list []FieldMapping
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}

	var single FieldMapping
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("field mapping is neither a list nor a single mapping: %w", err)
	}
	*m = Mappings{single}
	return nil
}

// Mapping is a full template definition: the user-chosen template id, the
// page size it was designed against and the field placements.
type Mapping struct {
	TemplateID string              `json:"templateId"`
	PageSize   string              `json:"pageSize"`
	Fields     map[string]Mappings `json:"fields"`
}

// Validate checks the parts of a mapping the store relies on.
func (m *Mapping) Validate() error {
	if m.TemplateID == "" {
		return fmt.Errorf("template id cannot be empty")
	}
	if len(m.Fields) == 0 {
		return fmt.Errorf("template %q has no fields", m.TemplateID)
	}
	for name, mappings := range m.Fields {
		if len(mappings) == 0 {
			return fmt.Errorf("field %q has no placements", name)
		}
		for i, fm := range mappings {
			if fm.Page < 0 {
				return fmt.Errorf("field %q placement %d has negative page", name, i)
			}
		}
	}
	return nil
}

// Info identifies a stored template without its mapping payload.
type Info struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FieldCount int    `json:"fieldCount"`
	CreatedAt  string `json:"createdAt,omitempty"`
}
