package roi

import (
	"fmt"

	"github.com/nerrad567/gray-logic-roi/internal/schedule"
)

// ValidateRegionConfig checks a normalized config before it is persisted.
//
// Rules:
//   - at most MaxRules rules and MaxZoomRules zoom rules
//   - roi_id present and unique
//   - roi_type known, with a point count inside the type's bounds
//   - non-zoom rules have roi_status ON or OFF and valid, non-overlapping schedules
func ValidateRegionConfig(cfg RegionAIConfig) error {
	return validateConfig(cfg, nil)
}

// validateConfig applies the per-rule checks only to rules not in kept.
// Stored rules that predate the current checks stay saveable as long as
// the caller leaves them alone.
func validateConfig(cfg RegionAIConfig, kept map[string]bool) error {
	if len(cfg.Rule) > MaxRules {
		return fmt.Errorf("%w: %d rules, limit is %d", ErrTooManyRules, len(cfg.Rule), MaxRules)
	}

	seen := make(map[string]int, len(cfg.Rule))
	zooms := 0
	for i, r := range cfg.Rule {
		if r.RoiID == "" {
			return fmt.Errorf("%w: rule %d: roi_id is required", ErrInvalidRule, i)
		}
		if prev, dup := seen[r.RoiID]; dup {
			return fmt.Errorf("%w: %q at rules %d and %d", ErrDuplicateRoiID, r.RoiID, prev, i)
		}
		seen[r.RoiID] = i

		if r.RoiType == TypeZoom {
			zooms++
		}
		if kept[r.RoiID] {
			continue
		}
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule %d (%q): %w", i, r.RoiID, err)
		}
	}

	if zooms > MaxZoomRules {
		return fmt.Errorf("%w: %d zoom rules, limit is %d", ErrTooManyZoomRules, zooms, MaxZoomRules)
	}
	return nil
}

func validateRule(r Rule) error {
	bounds, ok := pointBounds[r.RoiType]
	if !ok {
		return fmt.Errorf("%w: unknown roi_type %q", ErrInvalidRule, r.RoiType)
	}

	n := len(r.Points)
	if n < bounds.min || (bounds.max > 0 && n > bounds.max) {
		return fmt.Errorf("%w: %s needs %s points, got %d", ErrInvalidRule, r.RoiType, describeBounds(bounds.min, bounds.max), n)
	}

	if r.RoiType == TypeZoom {
		return nil
	}

	if r.RoiStatus != StatusOn && r.RoiStatus != StatusOff {
		return fmt.Errorf("%w: roi_status must be ON or OFF, got %q", ErrInvalidRule, r.RoiStatus)
	}
	return schedule.Validate(r.Schedule)
}

func describeBounds(lo, hi int) string {
	switch {
	case hi == 0:
		return fmt.Sprintf("at least %d", lo)
	case lo == hi:
		return fmt.Sprintf("exactly %d", lo)
	default:
		return fmt.Sprintf("%d to %d", lo, hi)
	}
}
