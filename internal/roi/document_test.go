package roi

import (
	"encoding/json"
	"errors"
	"testing"
)

func parseDoc(t *testing.T, s string) Document {
	t.Helper()
	doc, err := ParseDocument([]byte(s))
	if err != nil {
		t.Fatalf("ParseDocument(%s) error = %v", s, err)
	}
	return doc
}

func TestIsEmptyDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"legacy sentinel", `{"rule":[]}`, true},
		{"not initialized", `{"rule":[{"roi_id":"a"}],"initialized":false}`, true},
		{"not initialized alone", `{"initialized":false}`, true},
		{"not initialized with foreign key", `{"rule":[],"initialized":false,"owner":"vms"}`, false},
		{"rules present", `{"rule":[{"roi_id":"a"}]}`, false},
		{"sentinel plus extra", `{"rule":[],"extra":1}`, false},
		{"other single key", `{"zoom":[]}`, false},
		{"empty object", `{}`, false},
		{"initialized true", `{"rule":[],"initialized":true}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmptyDocument(parseDoc(t, tt.doc)); got != tt.want {
				t.Errorf("IsEmptyDocument(%s) = %v, want %v", tt.doc, got, tt.want)
			}
		})
	}

	if !IsEmptyDocument(nil) {
		t.Error("IsEmptyDocument(nil) = false, want true")
	}
	if !IsEmptyDocument(Document{"rule": []Rule{}}) {
		t.Error("IsEmptyDocument(typed empty rule list) = false, want true")
	}
}

func TestMergeDocument(t *testing.T) {
	incoming, err := RegionAIConfig{Rule: []Rule{{RoiID: "a", RoiType: TypeZoom}}}.ToDocument()
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}

	t.Run("sentinel replaced", func(t *testing.T) {
		got := MergeDocument(parseDoc(t, `{"rule":[]}`), incoming)
		if len(got) != 2 || got["initialized"] != true {
			t.Errorf("MergeDocument() = %v, want rule + initialized only", got)
		}
	})

	t.Run("extra preserved", func(t *testing.T) {
		existing := parseDoc(t, `{"rule":[{"roi_id":"old"}],"extra":1}`)
		got := MergeDocument(existing, incoming)

		if got["extra"] != float64(1) {
			t.Errorf("extra = %v, want 1 preserved", got["extra"])
		}
		cfg, err := DecodeDocument(got)
		if err != nil {
			t.Fatalf("DecodeDocument() error = %v", err)
		}
		if len(cfg.Rule) != 1 || cfg.Rule[0].RoiID != "a" {
			t.Errorf("rules = %+v, want incoming rule a", cfg.Rule)
		}
		if _, ok := existing["initialized"]; ok {
			t.Error("MergeDocument mutated existing document")
		}
	})
}

func TestToDocument_EmptyRulesIsList(t *testing.T) {
	doc, err := RegionAIConfig{}.ToDocument()
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}
	b, _ := json.Marshal(doc) //nolint:errcheck
	if string(b) != `{"rule":[]}` {
		t.Errorf("ToDocument() = %s, want {\"rule\":[]}", b)
	}
}

func TestDecodeDocument(t *testing.T) {
	cfg, err := DecodeDocument(parseDoc(t, `{"other":true}`))
	if err != nil || cfg == nil || len(cfg.Rule) != 0 {
		t.Errorf("DecodeDocument(no rule) = %+v, %v, want empty config", cfg, err)
	}

	_, err = DecodeDocument(parseDoc(t, `{"rule":"nope"}`))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("DecodeDocument(bad rule) error = %v, want ErrInvalidDocument", err)
	}

	if _, err := ParseDocument([]byte("{")); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("ParseDocument(bad json) error = %v, want ErrInvalidDocument", err)
	}
}
