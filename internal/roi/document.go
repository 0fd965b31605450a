package roi

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Document is a stored per-device config as an opaque JSON object. Keys other
// than "rule" belong to other writers and must survive a merge.
type Document map[string]any

// Document keys this package reads or writes.
const (
	keyRule        = "rule"
	keyInitialized = "initialized"
)

// IsEmptyDocument reports whether a stored document is the legacy empty
// record and may be replaced wholesale.
//
// The legacy sentinel is an object whose only key is "rule" holding an empty
// list. A document with "initialized": false is also treated as empty, but
// only when "rule" is its sole other key. Anything else, including a missing
// "rule" key next to other keys, is merged.
func IsEmptyDocument(doc Document) bool {
	if doc == nil {
		return true
	}
	if init, ok := doc[keyInitialized].(bool); ok && !init {
		for k := range doc {
			if k != keyRule && k != keyInitialized {
				return false
			}
		}
		return true
	}
	if len(doc) != 1 {
		return false
	}
	rules, ok := doc[keyRule]
	if !ok {
		return false
	}
	switch v := rules.(type) {
	case []any:
		return len(v) == 0
	case []Rule:
		return len(v) == 0
	}
	return false
}

// MergeDocument returns the document to persist: incoming alone when existing
// is empty, otherwise incoming shallow-merged over existing. Written
// documents carry "initialized": true.
func MergeDocument(existing, incoming Document) Document {
	var out Document
	if IsEmptyDocument(existing) {
		out = make(Document, len(incoming)+1)
	} else {
		out = maps.Clone(existing)
	}
	maps.Copy(out, incoming)
	out[keyInitialized] = true
	return out
}

// ToDocument encodes cfg as a Document.
func (c RegionAIConfig) ToDocument() (Document, error) {
	if c.Rule == nil {
		c.Rule = []Rule{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return doc, nil
}

// DecodeDocument extracts the rule list from a stored document.
func DecodeDocument(doc Document) (*RegionAIConfig, error) {
	cfg := &RegionAIConfig{Rule: []Rule{}}
	raw, ok := doc[keyRule]
	if !ok || raw == nil {
		return cfg, nil
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := json.Unmarshal(b, &cfg.Rule); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return cfg, nil
}

// ParseDocument decodes stored JSON text into a Document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc, nil
}
