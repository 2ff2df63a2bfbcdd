// Package analyze turns OCR form-analysis output into fillable field
// positions. The analyzer service speaks the Textract block dialect: a flat
// list of blocks cross-referenced by id, from which key/value pairs and
// signature regions are reassembled here.
package analyze

import "strings"

// Block types and relationship kinds in the analyzer output.
const (
	blockKeyValueSet = "KEY_VALUE_SET"
	blockWord        = "WORD"
	blockSelection   = "SELECTION_ELEMENT"
	blockSignature   = "SIGNATURE"

	entityKey   = "KEY"
	entityValue = "VALUE"

	relChild = "CHILD"
	relValue = "VALUE"

	statusSelected = "SELECTED"
)

// BoundingBox is a detected region in ratio space: fractions of the page
// with origin at the top-left, exactly the convention template mappings use.
type BoundingBox struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

// Geometry wraps the bounding box of a block.
type Geometry struct {
	BoundingBox BoundingBox `json:"BoundingBox"`
}

// Relationship links a block to others by id.
type Relationship struct {
	Type string   `json:"Type"`
	IDs  []string `json:"Ids"`
}

// Block is one element of the analyzer response.
type Block struct {
	ID              string         `json:"Id"`
	BlockType       string         `json:"BlockType"`
	EntityTypes     []string       `json:"EntityTypes,omitempty"`
	Text            string         `json:"Text,omitempty"`
	Confidence      float64        `json:"Confidence,omitempty"`
	SelectionStatus string         `json:"SelectionStatus,omitempty"`
	Page            int            `json:"Page,omitempty"`
	Geometry        *Geometry      `json:"Geometry,omitempty"`
	Relationships   []Relationship `json:"Relationships,omitempty"`
}

// DetectedField is one reassembled key/value pair. Box is the geometry of
// the VALUE region, the place an answer should be written; ID is that
// region's block id and identifies the instance when the same label occurs
// more than once on a form.
type DetectedField struct {
	ID         string      `json:"id"`
	Key        string      `json:"key"`
	Value      string      `json:"value"`
	Box        BoundingBox `json:"box"`
	Page       int         `json:"page"`
	Confidence float64     `json:"confidence"`
}

// DetectedSignature is a region the analyzer classified as a signature spot.
type DetectedSignature struct {
	Box        BoundingBox `json:"box"`
	Page       int         `json:"page"`
	Confidence float64     `json:"confidence"`
}

// Analysis is the distilled result of one document analysis.
type Analysis struct {
	Fields     []DetectedField     `json:"fields"`
	Signatures []DetectedSignature `json:"signatures"`
}

// ParseBlocks reassembles key/value pairs and signature regions from the
// flat block list. KEY blocks with no readable key text, and pairs whose
// VALUE block carries no geometry, are dropped: without a label or a place
// to write there is nothing to fill. Selected checkboxes read as "X".
func ParseBlocks(blocks []Block) Analysis {
	byID := make(map[string]*Block, len(blocks))
	for i := range blocks {
		byID[blocks[i].ID] = &blocks[i]
	}

	var out Analysis
	for i := range blocks {
		b := &blocks[i]
		switch b.BlockType {
		case blockSignature:
			if b.Geometry == nil {
				continue
			}
			out.Signatures = append(out.Signatures, DetectedSignature{
				Box:        b.Geometry.BoundingBox,
				Page:       pageOrFirst(b.Page),
				Confidence: b.Confidence,
			})

		case blockKeyValueSet:
			if !hasEntity(b, entityKey) {
				continue
			}
			key := childText(b, byID)
			if key == "" {
				continue
			}

			valueBlock := linkedValue(b, byID)
			if valueBlock == nil || valueBlock.Geometry == nil {
				continue
			}

			conf := b.Confidence
			if valueBlock.Confidence > 0 && valueBlock.Confidence < conf {
				conf = valueBlock.Confidence
			}
			out.Fields = append(out.Fields, DetectedField{
				ID:         valueBlock.ID,
				Key:        key,
				Value:      childText(valueBlock, byID),
				Box:        valueBlock.Geometry.BoundingBox,
				Page:       pageOrFirst(valueBlock.Page),
				Confidence: conf,
			})
		}
	}
	return out
}

// pageOrFirst maps the analyzer's "page omitted on single-page docs"
// behavior to an explicit 1-based page.
func pageOrFirst(p int) int {
	if p < 1 {
		return 1
	}
	return p
}

func hasEntity(b *Block, entity string) bool {
	for _, e := range b.EntityTypes {
		if e == entity {
			return true
		}
	}
	return false
}

// linkedValue follows the VALUE relationship to the paired value block.
func linkedValue(key *Block, byID map[string]*Block) *Block {
	for _, rel := range key.Relationships {
		if rel.Type != relValue {
			continue
		}
		for _, id := range rel.IDs {
			if v := byID[id]; v != nil && hasEntity(v, entityValue) {
				return v
			}
		}
	}
	return nil
}

// childText joins the CHILD word blocks of a key or value block into one
// string. Selected selection elements contribute "X".
func childText(b *Block, byID map[string]*Block) string {
	var parts []string
	for _, rel := range b.Relationships {
		if rel.Type != relChild {
			continue
		}
		for _, id := range rel.IDs {
			child := byID[id]
			if child == nil {
				continue
			}
			switch child.BlockType {
			case blockWord:
				if child.Text != "" {
					parts = append(parts, child.Text)
				}
			case blockSelection:
				if child.SelectionStatus == statusSelected {
					parts = append(parts, "X")
				}
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
