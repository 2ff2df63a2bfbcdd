package analyze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(left, top float64) *Geometry {
	return &Geometry{BoundingBox: BoundingBox{Left: left, Top: top, Width: 0.2, Height: 0.03}}
}

func kvBlocks() []Block {
	return []Block{
		{
			ID: "k1", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"KEY"},
			Confidence: 95, Geometry: box(0.1, 0.2),
			Relationships: []Relationship{
				{Type: "CHILD", IDs: []string{"w1", "w2"}},
				{Type: "VALUE", IDs: []string{"v1"}},
			},
		},
		{
			ID: "v1", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"VALUE"},
			Confidence: 91, Page: 2, Geometry: box(0.4, 0.2),
			Relationships: []Relationship{{Type: "CHILD", IDs: []string{"w3"}}},
		},
		{ID: "w1", BlockType: "WORD", Text: "Name"},
		{ID: "w2", BlockType: "WORD", Text: "of Bidder"},
		{ID: "w3", BlockType: "WORD", Text: "______"},
	}
}

func TestParseBlocksKeyValue(t *testing.T) {
	a := ParseBlocks(kvBlocks())

	require.Len(t, a.Fields, 1)
	f := a.Fields[0]
	// The instance id is the VALUE region's block id.
	assert.Equal(t, "v1", f.ID)
	assert.Equal(t, "Name of Bidder", f.Key)
	assert.Equal(t, "______", f.Value)
	assert.Equal(t, 0.4, f.Box.Left)
	assert.Equal(t, 2, f.Page)
	// Pair confidence is the weaker of the two blocks.
	assert.Equal(t, 91.0, f.Confidence)
}

func TestParseBlocksSelectedCheckbox(t *testing.T) {
	blocks := []Block{
		{
			ID: "k1", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"KEY"},
			Relationships: []Relationship{
				{Type: "CHILD", IDs: []string{"w1"}},
				{Type: "VALUE", IDs: []string{"v1"}},
			},
		},
		{
			ID: "v1", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"VALUE"},
			Geometry:      box(0.5, 0.5),
			Relationships: []Relationship{{Type: "CHILD", IDs: []string{"s1"}}},
		},
		{ID: "w1", BlockType: "WORD", Text: "VAT registered?"},
		{ID: "s1", BlockType: "SELECTION_ELEMENT", SelectionStatus: "SELECTED"},
	}

	a := ParseBlocks(blocks)
	require.Len(t, a.Fields, 1)
	assert.Equal(t, "X", a.Fields[0].Value)
	assert.Equal(t, 1, a.Fields[0].Page) // page omitted means page 1
}

func TestParseBlocksDropsUnusable(t *testing.T) {
	blocks := []Block{
		// Key with no child words.
		{
			ID: "k1", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"KEY"},
			Relationships: []Relationship{{Type: "VALUE", IDs: []string{"v1"}}},
		},
		{ID: "v1", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"VALUE"}, Geometry: box(0, 0)},
		// Key whose value block has no geometry.
		{
			ID: "k2", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"KEY"},
			Relationships: []Relationship{
				{Type: "CHILD", IDs: []string{"w1"}},
				{Type: "VALUE", IDs: []string{"v2"}},
			},
		},
		{ID: "v2", BlockType: "KEY_VALUE_SET", EntityTypes: []string{"VALUE"}},
		{ID: "w1", BlockType: "WORD", Text: "Email"},
	}

	a := ParseBlocks(blocks)
	assert.Empty(t, a.Fields)
}

func TestParseBlocksSignatures(t *testing.T) {
	blocks := []Block{
		{ID: "s1", BlockType: "SIGNATURE", Confidence: 88, Page: 3, Geometry: box(0.6, 0.8)},
		{ID: "s2", BlockType: "SIGNATURE", Confidence: 70}, // no geometry, dropped
	}

	a := ParseBlocks(blocks)
	require.Len(t, a.Signatures, 1)
	assert.Equal(t, 3, a.Signatures[0].Page)
	assert.Equal(t, 88.0, a.Signatures[0].Confidence)
}

func TestClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Blocks": [
			{"Id": "s1", "BlockType": "SIGNATURE", "Confidence": 90,
			 "Geometry": {"BoundingBox": {"Left": 0.5, "Top": 0.8, "Width": 0.2, "Height": 0.05}}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.New(nil))
	a, err := c.Analyze(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, a.Signatures, 1)
	assert.Equal(t, 0.5, a.Signatures[0].Box.Left)
}

func TestClientAnalyzeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.New(nil))
	_, err := c.Analyze(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestBestSignature(t *testing.T) {
	_, ok := BestSignature(nil)
	assert.False(t, ok)

	best, ok := BestSignature([]DetectedSignature{
		{Confidence: 70, Page: 1},
		{Confidence: 95, Page: 4},
		{Confidence: 80, Page: 2},
	})
	require.True(t, ok)
	assert.Equal(t, 4, best.Page)
}
