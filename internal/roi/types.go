package roi

import (
	"encoding/json"

	"github.com/nerrad567/gray-logic-roi/internal/opaque"
	"github.com/nerrad567/gray-logic-roi/internal/schedule"
)

// Config limits.
const (
	MaxRules     = 6
	MaxZoomRules = 1
)

// RoiType is the AI behaviour a rule drives.
type RoiType string

// Rule types.
const (
	TypeIntrusion RoiType = "intrusion"
	TypeTripwire  RoiType = "tripwire"
	TypeDensity   RoiType = "density"
	TypeZoom      RoiType = "zoom"
	TypeHealth    RoiType = "health"
)

// pointBounds holds the allowed point count per type. A zero max means no
// upper bound.
var pointBounds = map[RoiType]struct{ min, max int }{
	TypeIntrusion: {3, 0},
	TypeDensity:   {3, 0},
	TypeHealth:    {3, 0},
	TypeTripwire:  {2, 2},
	TypeZoom:      {1, 1},
}

// Valid reports whether t is a known rule type.
func (t RoiType) Valid() bool {
	_, ok := pointBounds[t]
	return ok
}

// RoiStatus switches a non-zoom rule on or off.
type RoiStatus string

// Rule statuses.
const (
	StatusOn  RoiStatus = "ON"
	StatusOff RoiStatus = "OFF"
)

// Rule is one region or line tied to an AI behaviour.
//
// Schedule and RoiStatus are present only for non-zoom rules;
// SurveillanceID only for zoom rules. Timestamps are kept as the strings
// the upstream store holds so unchanged rules round-trip byte for byte.
// Keys this package does not declare are carried in Extra.
type Rule struct {
	RoiID          string              `json:"roi_id"`
	Name           string              `json:"name"`
	RoiType        RoiType             `json:"roi_type"`
	Points         []PointInput        `json:"points,omitempty"`
	RoiStatus      RoiStatus           `json:"roi_status,omitempty"`
	CreatedDate    string              `json:"created_date,omitempty"`
	CreatedBy      string              `json:"created_by,omitempty"`
	UpdatedAt      string              `json:"updated_at,omitempty"`
	Schedule       []schedule.Schedule `json:"schedule,omitempty"`
	SurveillanceID string              `json:"surveillance_id,omitempty"`

	Extra opaque.Fields `json:"-"`
}

var ruleKeys = []string{
	"roi_id", "name", "roi_type", "points", "roi_status",
	"created_date", "created_by", "updated_at", "schedule", "surveillance_id",
}

type ruleFields Rule

// UnmarshalJSON decodes a rule and captures undeclared keys in Extra.
func (r *Rule) UnmarshalJSON(b []byte) error {
	var f ruleFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := opaque.Split(b, ruleKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*r = Rule(f)
	return nil
}

// MarshalJSON encodes the rule together with its Extra keys.
func (r Rule) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(ruleFields(r))
	if err != nil {
		return nil, err
	}
	return opaque.Join(b, r.Extra)
}

// RegionAIConfig is the full per-device rule set.
type RegionAIConfig struct {
	Rule []Rule `json:"rule"`
}

// FindRule returns the rule with roiID and its index.
func (c RegionAIConfig) FindRule(roiID string) (Rule, int, bool) {
	for i, r := range c.Rule {
		if r.RoiID == roiID {
			return r, i, true
		}
	}
	return Rule{}, -1, false
}
