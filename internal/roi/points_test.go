package roi

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

// decodeRule unmarshals a rule from JSON text.
func decodeRule(t *testing.T, s string) Rule {
	t.Helper()
	var r Rule
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("unmarshal rule: %v", err)
	}
	return r
}

func pointsJSON(t *testing.T, r Rule) string {
	t.Helper()
	b, err := json.Marshal(r.Points)
	if err != nil {
		t.Fatalf("marshal points: %v", err)
	}
	return string(b)
}

// ============================================================================
// Predicates
// ============================================================================

func TestIsPointArray(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"pair", []any{1.0, 2.0}, true},
		{"int pair", []any{1, 2}, true},
		{"float slice", []float64{1, 2}, true},
		{"fixed array", [2]float64{1, 2}, true},
		{"three elements", []any{1.0, 2.0, 3.0}, false},
		{"string element", []any{"1", 2.0}, false},
		{"nan", []float64{math.NaN(), 1}, false},
		{"object", map[string]any{"x": 1.0, "y": 2.0}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointArray(tt.v); got != tt.want {
				t.Errorf("IsPointArray(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestIsPointObject(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"object", map[string]any{"x": 1.0, "y": 2.0}, true},
		{"typed map", map[string]float64{"x": 1, "y": 2}, true},
		{"missing y", map[string]any{"x": 1.0}, false},
		{"string x", map[string]any{"x": "1", "y": 2.0}, false},
		{"infinite", map[string]any{"x": math.Inf(1), "y": 2.0}, false},
		{"array", []any{1.0, 2.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointObject(tt.v); got != tt.want {
				t.Errorf("IsPointObject(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestPointToArray(t *testing.T) {
	got, err := PointToArray(map[string]any{"x": 150.0, "y": 300.0})
	if err != nil {
		t.Fatalf("PointToArray(object) error = %v", err)
	}
	if got != (Point{150, 300}) {
		t.Errorf("PointToArray(object) = %v, want [150 300]", got)
	}

	_, err = PointToArray("not a point")
	if !errors.Is(err, ErrInvalidPointFormat) {
		t.Fatalf("PointToArray(string) error = %v, want ErrInvalidPointFormat", err)
	}
	var pe *PointError
	if !errors.As(err, &pe) || pe.Value != "not a point" {
		t.Errorf("PointError.Value = %v, want the offending value", pe)
	}
}

// ============================================================================
// NormalizeRulePoints / NormalizeRegionConfig
// ============================================================================

func TestNormalizeRulePoints_MixedShapes(t *testing.T) {
	r := decodeRule(t, `{"roi_id":"t1","points":[[100,200],{"x":150,"y":300}]}`)

	got, err := NormalizeRulePoints(r)
	if err != nil {
		t.Fatalf("NormalizeRulePoints() error = %v", err)
	}
	if s := pointsJSON(t, got); s != "[[100,200],[150,300]]" {
		t.Errorf("points = %s, want [[100,200],[150,300]]", s)
	}
}

func TestNormalizeRulePoints_Idempotent(t *testing.T) {
	inputs := []string{
		`{"roi_id":"a","points":[[1,2],[3,4],[5,6]]}`,
		`{"roi_id":"b","points":[{"x":1.5,"y":2},{"x":0,"y":0}]}`,
		`{"roi_id":"c","points":[{"x":9,"y":8},[7,6]]}`,
		`{"roi_id":"d","points":[]}`,
	}
	for _, in := range inputs {
		once, err := NormalizeRulePoints(decodeRule(t, in))
		if err != nil {
			t.Fatalf("NormalizeRulePoints(%s) error = %v", in, err)
		}
		twice, err := NormalizeRulePoints(once)
		if err != nil {
			t.Fatalf("second NormalizeRulePoints(%s) error = %v", in, err)
		}
		if a, b := pointsJSON(t, once), pointsJSON(t, twice); a != b {
			t.Errorf("normalize not idempotent for %s: %s then %s", in, a, b)
		}
	}
}

func TestNormalizeRulePoints_NamesBadIndex(t *testing.T) {
	r := decodeRule(t, `{"roi_id":"gate","points":[[1,2],[3,4],"oops",[5,6]]}`)

	_, err := NormalizeRulePoints(r)
	if !errors.Is(err, ErrRuleNormalizationFailed) || !errors.Is(err, ErrInvalidPointFormat) {
		t.Fatalf("error = %v, want both rule and point sentinels", err)
	}
	var re *RuleError
	if !errors.As(err, &re) {
		t.Fatalf("error %T is not *RuleError", err)
	}
	if re.PointIndex != 2 || re.RoiID != "gate" {
		t.Errorf("RuleError = %+v, want point 2 of gate", re)
	}
	if !strings.Contains(err.Error(), "point 2") {
		t.Errorf("message %q does not name point 2", err.Error())
	}
}

func TestNormalizeRulePoints_NoPoints(t *testing.T) {
	r := Rule{RoiID: "z", Name: "no points"}
	got, err := NormalizeRulePoints(r)
	if err != nil {
		t.Fatalf("NormalizeRulePoints() error = %v", err)
	}
	if got.Points != nil {
		t.Errorf("Points = %v, want nil passthrough", got.Points)
	}
}

func TestNormalizeRegionConfig_RuleIndex(t *testing.T) {
	var cfg RegionAIConfig
	if err := json.Unmarshal([]byte(`{"rule":[
		{"roi_id":"a","points":[[1,2]]},
		{"roi_id":"b","points":[{"x":1}]}
	]}`), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	_, err := NormalizeRegionConfig(cfg)
	var re *RuleError
	if !errors.As(err, &re) {
		t.Fatalf("NormalizeRegionConfig() error = %v, want *RuleError", err)
	}
	if re.RuleIndex != 1 || re.PointIndex != 0 {
		t.Errorf("RuleError = %+v, want rule 1 point 0", re)
	}
}

// ============================================================================
// Lenient accessors
// ============================================================================

func TestValidateNormalizedData(t *testing.T) {
	var cfg RegionAIConfig
	if err := json.Unmarshal([]byte(`{"rule":[
		{"roi_id":"a","points":[[1,2],{"x":3,"y":4}]},
		{"roi_id":"","points":[[1,2],"bad"]}
	]}`), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rep := ValidateNormalizedData(cfg)
	if rep.Valid {
		t.Fatal("ValidateNormalizedData() Valid = true, want false")
	}
	if len(rep.Errors) != 3 {
		t.Errorf("Errors = %v, want 3 entries (struct point, missing id, bad point)", rep.Errors)
	}

	norm := RegionAIConfig{Rule: []Rule{{RoiID: "ok", Points: []PointInput{ArrayPoint(1, 2)}}}}
	if rep := ValidateNormalizedData(norm); !rep.Valid || len(rep.Errors) != 0 {
		t.Errorf("ValidateNormalizedData(normalized) = %+v, want valid", rep)
	}
}

func TestSafeGetPointAndGetValidPoints(t *testing.T) {
	r := decodeRule(t, `{"roi_id":"a","points":[[1,2],"bad",{"x":5,"y":6}]}`)

	if p, ok := SafeGetPoint(r, 0); !ok || p != (Point{1, 2}) {
		t.Errorf("SafeGetPoint(0) = %v, %v", p, ok)
	}
	if _, ok := SafeGetPoint(r, 1); ok {
		t.Error("SafeGetPoint(bad) ok = true, want false")
	}
	if _, ok := SafeGetPoint(r, 9); ok {
		t.Error("SafeGetPoint(out of range) ok = true, want false")
	}
	if _, ok := SafeGetPoint(r, -1); ok {
		t.Error("SafeGetPoint(-1) ok = true, want false")
	}

	got := GetValidPoints(r)
	if len(got) != 2 || got[0] != (Point{1, 2}) || got[1] != (Point{5, 6}) {
		t.Errorf("GetValidPoints() = %v, want [[1 2] [5 6]]", got)
	}
}

func TestPointInput_RoundTripKeepsShape(t *testing.T) {
	r := decodeRule(t, `{"roi_id":"a","points":[{"x":1,"y":2},[3,4],"junk"]}`)
	if s := pointsJSON(t, r); s != `[{"x":1,"y":2},[3,4],"junk"]` {
		t.Errorf("round trip = %s", s)
	}
}
