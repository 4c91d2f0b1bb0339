package vectorstore

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

// record is the JSON shape of one stored chunk in the Redis list and the
// index file.
type record struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	MetaData map[string]any `json:"metadata,omitempty"`
	Vector   []float64      `json:"vector"`
}

// intMetaKeys hold integers that JSON decodes as float64.
var intMetaKeys = []string{model.MetaPage, model.MetaChunkIndex}

func encodeRecord(d *schema.Document, vector []float64) ([]byte, error) {
	b, err := json.Marshal(record{ID: d.ID, Content: d.Content, MetaData: d.MetaData, Vector: vector})
	if err != nil {
		return nil, fmt.Errorf("marshal chunk %s: %w", d.ID, err)
	}
	return b, nil
}

func decodeRecord(b []byte) (*schema.Document, []float64, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, nil, err
	}
	normalizeMeta(r.MetaData)
	return &schema.Document{ID: r.ID, Content: r.Content, MetaData: r.MetaData}, r.Vector, nil
}

// normalizeMeta restores integer metadata after a JSON round trip so every
// backend returns the same types as the loaders produce.
func normalizeMeta(meta map[string]any) {
	for _, k := range intMetaKeys {
		if f, ok := meta[k].(float64); ok && f == math.Trunc(f) {
			meta[k] = int(f)
		}
	}
}
