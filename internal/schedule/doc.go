// Package schedule allocates non-overlapping time-of-day windows for rules.
//
// All functions are pure and safe for concurrent use. Times are wall-clock
// "HH:mm:ss" values without a date; a window is the half-open interval
// [start_time, end_time).
//
//	ranges, _ := schedule.CalculateDisabledRanges(rule.Schedule, editing)
//	slot, ok := schedule.FindNextAvailableSlot(ranges)
//	if !ok {
//	    return schedule.ErrNoAvailableTimeSlot
//	}
package schedule
