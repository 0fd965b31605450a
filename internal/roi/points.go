package roi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Point is the canonical [x, y] pair.
type Point [2]float64

// X returns the horizontal coordinate.
func (p Point) X() float64 { return p[0] }

// Y returns the vertical coordinate.
func (p Point) Y() float64 { return p[1] }

// PointShape records which encoding a point arrived in.
type PointShape uint8

// Point encodings seen at the boundary.
const (
	ShapeInvalid PointShape = iota
	ShapeArray
	ShapeStruct
)

// PointInput is a point as decoded from a stored or submitted document.
// Decoding never fails on an unrecognised shape: the raw value is kept so
// the strict normalizer can report exactly which point is bad.
type PointInput struct {
	Shape PointShape
	X, Y  float64
	Raw   any
}

// ArrayPoint returns a canonical point input.
func ArrayPoint(x, y float64) PointInput {
	return PointInput{Shape: ShapeArray, X: x, Y: y}
}

// StructPoint returns a point input in {x, y} form.
func StructPoint(x, y float64) PointInput {
	return PointInput{Shape: ShapeStruct, X: x, Y: y}
}

// Canonical reports whether p is already in [x, y] form.
func (p PointInput) Canonical() bool {
	return p.Shape == ShapeArray && finite(p.X) && finite(p.Y)
}

// UnmarshalJSON decodes either encoding, or records the raw value.
func (p *PointInput) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = decodePoint(v)
	return nil
}

// MarshalJSON writes the point back in the shape it arrived in.
func (p PointInput) MarshalJSON() ([]byte, error) {
	switch p.Shape {
	case ShapeArray:
		return json.Marshal([2]float64{p.X, p.Y})
	case ShapeStruct:
		return json.Marshal(struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		}{p.X, p.Y})
	default:
		return json.Marshal(p.Raw)
	}
}

func decodePoint(v any) PointInput {
	if arr, ok := v.([]any); ok && len(arr) == 2 {
		x, okX := toFloat(arr[0])
		y, okY := toFloat(arr[1])
		if okX && okY {
			return ArrayPoint(x, y)
		}
	}
	if obj, ok := v.(map[string]any); ok {
		x, okX := toFloat(obj["x"])
		y, okY := toFloat(obj["y"])
		if okX && okY {
			return StructPoint(x, y)
		}
	}
	return PointInput{Shape: ShapeInvalid, Raw: v}
}

// IsPointArray reports whether v is a two-element list of finite numbers.
func IsPointArray(v any) bool {
	switch p := v.(type) {
	case Point:
		return finite(p[0]) && finite(p[1])
	case [2]float64:
		return finite(p[0]) && finite(p[1])
	case []float64:
		return len(p) == 2 && finite(p[0]) && finite(p[1])
	case PointInput:
		return p.Canonical()
	case []any:
		if len(p) != 2 {
			return false
		}
		_, okX := toFloat(p[0])
		_, okY := toFloat(p[1])
		return okX && okY
	}
	return false
}

// IsPointObject reports whether v carries finite numeric x and y fields.
func IsPointObject(v any) bool {
	switch p := v.(type) {
	case PointInput:
		return p.Shape == ShapeStruct && finite(p.X) && finite(p.Y)
	case map[string]any:
		_, okX := toFloat(p["x"])
		_, okY := toFloat(p["y"])
		return okX && okY
	case map[string]float64:
		x, okX := p["x"]
		y, okY := p["y"]
		return okX && okY && finite(x) && finite(y)
	}
	return false
}

// PointToArray converts either encoding into a canonical Point. It returns a
// *PointError carrying v when neither shape matches.
func PointToArray(v any) (Point, error) {
	switch p := v.(type) {
	case Point:
		if IsPointArray(p) {
			return p, nil
		}
	case PointInput:
		if p.Shape != ShapeInvalid && finite(p.X) && finite(p.Y) {
			return Point{p.X, p.Y}, nil
		}
		if p.Shape == ShapeInvalid {
			return Point{}, &PointError{Value: p.Raw}
		}
	case [2]float64:
		if IsPointArray(p) {
			return Point(p), nil
		}
	case []float64:
		if IsPointArray(p) {
			return Point{p[0], p[1]}, nil
		}
	case map[string]float64:
		if IsPointObject(p) {
			return Point{p["x"], p["y"]}, nil
		}
	default:
		if d := decodePoint(v); d.Shape != ShapeInvalid {
			return Point{d.X, d.Y}, nil
		}
	}
	return Point{}, &PointError{Value: v}
}

// NormalizeRulePoints returns rule with every point in [x, y] form. The first
// invalid point yields a *RuleError naming the rule and the point index. A
// rule without points is returned unchanged.
func NormalizeRulePoints(rule Rule) (Rule, error) {
	if rule.Points == nil {
		return rule, nil
	}

	out := make([]PointInput, len(rule.Points))
	for i, p := range rule.Points {
		pt, err := PointToArray(p)
		if err != nil {
			return rule, &RuleError{RuleIndex: -1, RoiID: rule.RoiID, PointIndex: i, Err: err}
		}
		out[i] = ArrayPoint(pt.X(), pt.Y())
	}
	rule.Points = out
	return rule, nil
}

// NormalizeRegionConfig normalizes every rule. A failure carries the index of
// the rule that caused it.
func NormalizeRegionConfig(cfg RegionAIConfig) (RegionAIConfig, error) {
	if cfg.Rule == nil {
		return cfg, nil
	}

	rules := make([]Rule, len(cfg.Rule))
	for i, r := range cfg.Rule {
		n, err := NormalizeRulePoints(r)
		if err != nil {
			var re *RuleError
			if errors.As(err, &re) {
				re.RuleIndex = i
			}
			return cfg, err
		}
		rules[i] = n
	}
	cfg.Rule = rules
	return cfg, nil
}

// NormalizationReport lists every problem found by ValidateNormalizedData.
type NormalizationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateNormalizedData reports every point and rule not in canonical form
// instead of stopping at the first one.
func ValidateNormalizedData(cfg RegionAIConfig) NormalizationReport {
	var errs []string
	for i, r := range cfg.Rule {
		if r.RoiID == "" {
			errs = append(errs, fmt.Sprintf("rule %d: missing roi_id", i))
		}
		for j, p := range r.Points {
			if !p.Canonical() {
				errs = append(errs, fmt.Sprintf("rule %d (%q): point %d is not in [x, y] form", i, r.RoiID, j))
			}
		}
	}
	return NormalizationReport{Valid: len(errs) == 0, Errors: errs}
}

// SafeGetPoint returns the point at index, or false when the index is out of
// range or the point is unusable.
func SafeGetPoint(rule Rule, index int) (Point, bool) {
	if index < 0 || index >= len(rule.Points) {
		return Point{}, false
	}
	pt, err := PointToArray(rule.Points[index])
	if err != nil {
		return Point{}, false
	}
	return pt, true
}

// GetValidPoints returns the usable points of rule, skipping bad ones.
func GetValidPoints(rule Rule) []Point {
	out := make([]Point, 0, len(rule.Points))
	for _, p := range rule.Points {
		if pt, err := PointToArray(p); err == nil {
			out = append(out, pt)
		}
	}
	return out
}

// toFloat accepts any JSON or Go numeric type holding a finite value.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return f, finite(f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
