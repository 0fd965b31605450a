package schedule

import (
	"errors"
	"fmt"
)

// Domain-specific errors for schedule allocation.
var (
	// ErrNoAvailableTimeSlot is returned when the day is fully booked.
	ErrNoAvailableTimeSlot = errors.New("schedule: no available time slots")

	// ErrScheduleOverlap is returned when two schedules of one rule overlap.
	ErrScheduleOverlap = errors.New("schedule: time ranges overlap")

	// ErrInvalidTimeOfDay is returned for times not in HH:mm:ss form.
	ErrInvalidTimeOfDay = errors.New("schedule: invalid time of day")

	// ErrEmptyRange is returned when end_time is not after start_time.
	ErrEmptyRange = errors.New("schedule: end_time must be after start_time")
)

// OverlapError names the two schedule indices that overlap.
type OverlapError struct {
	First, Second int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: schedule %d and schedule %d", ErrScheduleOverlap, e.First, e.Second)
}

// Unwrap returns ErrScheduleOverlap.
func (e *OverlapError) Unwrap() error {
	return ErrScheduleOverlap
}
