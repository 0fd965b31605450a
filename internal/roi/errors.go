package roi

import (
	"errors"
	"fmt"
)

// Domain errors for the roi package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, roi.ErrInvalidPointFormat) {
//	    // report the offending point
//	}
var (
	// ErrInvalidPointFormat is returned when a value is neither [x, y] nor {x, y}.
	ErrInvalidPointFormat = errors.New("roi: invalid point format")

	// ErrRuleNormalizationFailed wraps a point error with the rule it came from.
	ErrRuleNormalizationFailed = errors.New("roi: rule normalization failed")

	// ErrInvalidRule is returned when a rule fails structural validation.
	ErrInvalidRule = errors.New("roi: invalid rule")

	// ErrTooManyRules is returned when a config holds more than MaxRules rules.
	ErrTooManyRules = errors.New("roi: too many rules")

	// ErrTooManyZoomRules is returned when a config holds more than MaxZoomRules zoom rules.
	ErrTooManyZoomRules = errors.New("roi: too many zoom rules")

	// ErrDuplicateRoiID is returned when two rules share a roi_id.
	ErrDuplicateRoiID = errors.New("roi: duplicate roi_id")

	// ErrRuleNotFound is returned when a roi_id does not exist in a config.
	ErrRuleNotFound = errors.New("roi: rule not found")

	// ErrInvalidDocument is returned when a stored document cannot be decoded.
	ErrInvalidDocument = errors.New("roi: invalid stored document")

	// ErrInvalidSchema is returned for schema names that are not plain identifiers.
	ErrInvalidSchema = errors.New("roi: invalid schema name")
)

// PointError reports a single value that is not a valid point.
type PointError struct {
	Value any
}

func (e *PointError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidPointFormat, e.Value)
}

// Unwrap returns ErrInvalidPointFormat.
func (e *PointError) Unwrap() error {
	return ErrInvalidPointFormat
}

// RuleError places a point error inside its rule. RuleIndex is -1 when the
// rule was normalized on its own rather than as part of a config.
type RuleError struct {
	RuleIndex  int
	RoiID      string
	PointIndex int
	Err        error
}

func (e *RuleError) Error() string {
	if e.RuleIndex >= 0 {
		return fmt.Sprintf("%s: rule %d (%q): point %d: %v",
			ErrRuleNormalizationFailed, e.RuleIndex, e.RoiID, e.PointIndex, e.Err)
	}
	return fmt.Sprintf("%s: rule %q: point %d: %v",
		ErrRuleNormalizationFailed, e.RoiID, e.PointIndex, e.Err)
}

// Unwrap exposes both ErrRuleNormalizationFailed and the underlying point error.
func (e *RuleError) Unwrap() []error {
	return []error{ErrRuleNormalizationFailed, e.Err}
}
