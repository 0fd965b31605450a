package schedule

import (
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-roi/internal/validation"
)

// CalculateDisabledRanges returns the ranges occupied by every schedule
// except the one at excludeIndex, so an in-place edit does not collide with
// itself. Pass -1 to include all of them.
func CalculateDisabledRanges(schedules []Schedule, excludeIndex int) ([]TimeRange, error) {
	ranges := make([]TimeRange, 0, len(schedules))
	for i, s := range schedules {
		if i == excludeIndex {
			continue
		}
		r, err := s.Range()
		if err != nil {
			return nil, fmt.Errorf("schedule %d: %w", i, err)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// FindNextAvailableSlot returns the earliest time not covered by ranges, or
// false when their union covers the whole day.
//
// Ranges are scanned in start order with a cursor beginning at midnight. A
// range that starts after the cursor leaves a gap at the cursor; otherwise
// the cursor moves to the range end. Touching ranges leave no gap.
func FindNextAvailableSlot(ranges []TimeRange) (TimeOfDay, bool) {
	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	cursor := Midnight
	for _, r := range sorted {
		if cursor < r.Start {
			return cursor, true
		}
		cursor = max(cursor, r.End)
	}
	if cursor < EndOfDay {
		return cursor, true
	}
	return 0, false
}

// NextScheduleWindow returns the free window starting at the next available
// slot and ending where the next occupied range begins (or at end of day).
func NextScheduleWindow(schedules []Schedule, excludeIndex int) (TimeRange, error) {
	ranges, err := CalculateDisabledRanges(schedules, excludeIndex)
	if err != nil {
		return TimeRange{}, err
	}

	start, ok := FindNextAvailableSlot(ranges)
	if !ok {
		return TimeRange{}, ErrNoAvailableTimeSlot
	}

	end := EndOfDay
	for _, r := range ranges {
		if r.Start > start && r.Start < end {
			end = r.Start
		}
	}
	return TimeRange{Start: start, End: end}, nil
}

// NewDefaultSchedule builds a schedule covering window with default
// detection parameters.
func NewDefaultSchedule(window TimeRange, aiType string) Schedule {
	return Schedule{
		AIType:                   aiType,
		StartTime:                window.Start.String(),
		EndTime:                  window.End.String(),
		Direction:                DirectionBoth,
		ConfidenceThreshold:      DefaultConfidence,
		ConfidenceZoom:           DefaultConfidence,
		DurationThresholdSeconds: 0,
	}
}

// CheckOverlap returns an *OverlapError for the first pair of schedules whose
// ranges overlap, or nil.
func CheckOverlap(schedules []Schedule) error {
	ranges, err := CalculateDisabledRanges(schedules, -1)
	if err != nil {
		return err
	}
	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i].Overlaps(ranges[j]) {
				return &OverlapError{First: i, Second: j}
			}
		}
	}
	return nil
}

// Validate checks field formats, that each window is non-empty, and that no
// two windows overlap.
func Validate(schedules []Schedule) error {
	for i := range schedules {
		if err := validation.Struct(&schedules[i]); err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
		r, err := schedules[i].Range()
		if err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
		if r.End <= r.Start {
			return fmt.Errorf("schedule %d: %w", i, ErrEmptyRange)
		}
	}
	return CheckOverlap(schedules)
}
