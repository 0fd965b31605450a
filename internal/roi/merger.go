package roi

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/opaque"
	"github.com/nerrad567/gray-logic-roi/internal/schedule"
)

// timestampLayout is used for updated_at and created_date stamps.
const timestampLayout = time.RFC3339

// MergeOptions carries the values stamped onto changed rules.
type MergeOptions struct {
	Now   time.Time
	Actor string
}

// StripForType removes fields that are meaningless for the rule's type:
// zoom rules lose schedule and roi_status, other rules lose surveillance_id.
func StripForType(r Rule) Rule {
	if r.RoiType == TypeZoom {
		r.Schedule = nil
		r.RoiStatus = ""
	} else {
		r.SurveillanceID = ""
	}
	return r
}

// MergeRules decides, rule by rule, what the persisted config should hold.
//
// A rule that matches its baseline (same roi_id) in everything except
// updated_at and created_date is kept exactly as the baseline has it, old
// updated_at included. Changed and new rules get updated_at = opts.Now.
// created_date and created_by never change once set. The edited list is
// authoritative for which rules exist and their order.
//
// Keys the edited rule does not declare are inherited from the baseline
// rule, and from the baseline schedule at the same index.
func MergeRules(edited RegionAIConfig, baseline *RegionAIConfig, opts MergeOptions) RegionAIConfig {
	out, _ := mergeRules(edited, baseline, opts)
	return out
}

// mergeRules is MergeRules that also reports the roi_ids kept from the
// baseline unchanged.
func mergeRules(edited RegionAIConfig, baseline *RegionAIConfig, opts MergeOptions) (RegionAIConfig, map[string]bool) {
	now := opts.Now.UTC().Format(timestampLayout)

	prior := make(map[string]Rule)
	if baseline != nil {
		for _, b := range baseline.Rule {
			if n, err := NormalizeRulePoints(b); err == nil {
				b = n
			}
			prior[b.RoiID] = StripForType(b)
		}
	}

	out := RegionAIConfig{Rule: make([]Rule, 0, len(edited.Rule))}
	kept := make(map[string]bool)
	for _, r := range edited.Rule {
		r = StripForType(r)
		base, found := prior[r.RoiID]

		if r.RoiType != TypeZoom && (!found || base.RoiType == TypeZoom) {
			r = ensureSchedule(r)
		}

		if found {
			if base.CreatedBy != "" {
				r.CreatedBy = base.CreatedBy
			}
			if base.CreatedDate != "" {
				r.CreatedDate = base.CreatedDate
			}
			r = inheritExtra(r, base)
			if sameIgnoringTimestamps(r, base) {
				out.Rule = append(out.Rule, base)
				kept[r.RoiID] = true
				continue
			}
		}

		if r.CreatedDate == "" {
			r.CreatedDate = now
		}
		if r.CreatedBy == "" {
			r.CreatedBy = opts.Actor
		}
		r.UpdatedAt = now
		out.Rule = append(out.Rule, r)
	}
	return out, kept
}

// inheritExtra copies undeclared keys from base onto r where r lacks them.
func inheritExtra(r, base Rule) Rule {
	r.Extra = opaque.Inherit(r.Extra, base.Extra)
	if len(r.Schedule) == 0 || len(base.Schedule) == 0 {
		return r
	}
	r.Schedule = slices.Clone(r.Schedule)
	for i := range r.Schedule {
		if i < len(base.Schedule) {
			r.Schedule[i].Extra = opaque.Inherit(r.Schedule[i].Extra, base.Schedule[i].Extra)
		}
	}
	return r
}

// ensureSchedule gives a non-zoom rule a one-entry default schedule and an
// OFF status when it has none.
func ensureSchedule(r Rule) Rule {
	if len(r.Schedule) == 0 {
		window, err := schedule.NextScheduleWindow(nil, -1)
		if err == nil {
			r.Schedule = []schedule.Schedule{schedule.NewDefaultSchedule(window, string(r.RoiType))}
		}
	}
	if r.RoiStatus == "" {
		r.RoiStatus = StatusOff
	}
	return r
}

// sameIgnoringTimestamps compares two rules with updated_at and created_date blanked.
func sameIgnoringTimestamps(a, b Rule) bool {
	a.UpdatedAt, a.CreatedDate = "", ""
	b.UpdatedAt, b.CreatedDate = "", ""

	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
