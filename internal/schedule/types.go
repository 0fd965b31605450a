package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-roi/internal/opaque"
)

// TimeOfDay is a wall-clock time as seconds since midnight. Schedules carry
// no date component.
type TimeOfDay int

// Day boundaries.
const (
	Midnight  TimeOfDay = 0
	EndOfDay  TimeOfDay = 23*3600 + 59*60 + 59
	secsPerHr           = 3600
	secsPerMn           = 60
)

// ParseTimeOfDay parses "HH:mm:ss" with two digits per field.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != len("15:04:05") || s[2] != ':' || s[5] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	var fields [3]int
	for i := range fields {
		hi, lo := s[i*3], s[i*3+1]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		fields[i] = int(hi-'0')*10 + int(lo-'0')
	}

	h, m, sec := fields[0], fields[1], fields[2]
	if h > 23 || m > 59 || sec > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(h*secsPerHr + m*secsPerMn + sec), nil
}

// String formats t as "HH:mm:ss".
func (t TimeOfDay) String() string {
	v := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", v/secsPerHr, v%secsPerHr/secsPerMn, v%secsPerMn)
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Contains reports whether t lies inside the range.
func (r TimeRange) Contains(t TimeOfDay) bool {
	return t >= r.Start && t < r.End
}

// Overlaps reports whether two ranges share any instant. Touching ranges
// (r.End == o.Start) do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Direction is the crossing direction a schedule reacts to.
type Direction string

// Valid directions.
const (
	DirectionBoth Direction = "Both"
	DirectionAToB Direction = "A to B"
	DirectionBToA Direction = "B to A"
)

// Default detection parameters for a generated schedule.
const (
	DefaultConfidence = 0.5
)

// Schedule is one active window of a rule plus its detection parameters.
type Schedule struct {
	SurveillanceID           string    `json:"surveillance_id"`
	AIType                   string    `json:"ai_type"`
	StartTime                string    `json:"start_time" validate:"required,timeofday"`
	EndTime                  string    `json:"end_time" validate:"required,timeofday"`
	Direction                Direction `json:"direction" validate:"required,oneof=Both 'A to B' 'B to A'"`
	ConfidenceThreshold      float64   `json:"confidence_threshold" validate:"gte=0,lte=1"`
	ConfidenceZoom           float64   `json:"confidence_zoom" validate:"gte=0,lte=1"`
	DurationThresholdSeconds float64   `json:"duration_threshold_seconds" validate:"gte=0"`

	// Extra holds keys written by other tools; they are kept on re-encode.
	Extra opaque.Fields `json:"-"`
}

var scheduleKeys = []string{
	"surveillance_id", "ai_type", "start_time", "end_time", "direction",
	"confidence_threshold", "confidence_zoom", "duration_threshold_seconds",
}

type scheduleFields Schedule

// UnmarshalJSON decodes a schedule and captures undeclared keys in Extra.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	var f scheduleFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := opaque.Split(b, scheduleKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*s = Schedule(f)
	return nil
}

// MarshalJSON encodes the schedule together with its Extra keys.
func (s Schedule) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(scheduleFields(s))
	if err != nil {
		return nil, err
	}
	return opaque.Join(b, s.Extra)
}

// Range parses the schedule's start and end times.
func (s Schedule) Range() (TimeRange, error) {
	start, err := ParseTimeOfDay(s.StartTime)
	if err != nil {
		return TimeRange{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseTimeOfDay(s.EndTime)
	if err != nil {
		return TimeRange{}, fmt.Errorf("end_time: %w", err)
	}
	return TimeRange{Start: start, End: end}, nil
}
