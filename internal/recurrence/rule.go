package recurrence

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedFrequency = errors.New("unsupported frequency")
	ErrScheduleExhausted    = errors.New("next trigger date exceeds schedule end")
	ErrInvalidInterval      = errors.New("interval must be at least 1")
	ErrMissingStartDate     = errors.New("start date is required")
	ErrTriggerBeforeStart   = errors.New("next trigger date is before start date")
	ErrEndBeforeStart       = errors.New("end date is before start date")
)

// Rule is a recurrence schedule. It is a value type: Advance returns a new
// Rule and leaves the receiver untouched.
type Rule struct {
	Frequency       Frequency
	Interval        int
	StartDate       time.Time
	NextTriggerDate time.Time
	EndDate         *time.Time
}

// NewRule builds a validated rule. All dates are truncated to UTC calendar
// dates. A nil next defaults to the start date.
func NewRule(f Frequency, interval int, start time.Time, next, end *time.Time) (Rule, error) {
	r := Rule{
		Frequency: f,
		Interval:  interval,
		StartDate: Truncate(start),
	}
	if next != nil {
		r.NextTriggerDate = Truncate(*next)
	} else {
		r.NextTriggerDate = r.StartDate
	}
	if end != nil {
		e := Truncate(*end)
		r.EndDate = &e
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Validate checks the rule invariants.
func (r Rule) Validate() error {
	if !r.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFrequency, string(r.Frequency))
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if r.NextTriggerDate.Before(r.StartDate) {
		return ErrTriggerBeforeStart
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// ShouldTrigger reports whether now has reached the next trigger date.
func (r Rule) ShouldTrigger(now time.Time) bool {
	return !now.Before(r.NextTriggerDate)
}

// Exhausted reports whether the cursor already lies beyond the end date.
// Rules advanced by this package never reach that state; records written
// by older clients may.
func (r Rule) Exhausted() bool {
	return r.EndDate != nil && r.NextTriggerDate.After(*r.EndDate)
}

// Advance runs the catch-up loop: while the cursor is on or before the
// calendar date of now it moves one period forward. It returns the advanced
// rule and every occurrence the cursor moved past, oldest first.
//
// When a step would pass EndDate the loop stops with ErrScheduleExhausted.
// The returned rule then holds the last in-range trigger date and the
// returned occurrences are still legitimate; the schedule has no further
// occurrences and callers should retire it.
func (r Rule) Advance(now time.Time) (Rule, []time.Time, error) {
	if err := checkStep(r.Frequency, r.Interval); err != nil {
		return r, nil, err
	}

	today := Truncate(now)
	anchor := r.anchorDay()
	p := periods[r.Frequency]

	var passed []time.Time
	for !r.NextTriggerDate.After(today) {
		if r.EndDate != nil && r.NextTriggerDate.After(*r.EndDate) {
			return r, passed, ErrScheduleExhausted
		}
		candidate := shift(r.NextTriggerDate, p, r.Interval, anchor)
		passed = append(passed, r.NextTriggerDate)
		if r.EndDate != nil && candidate.After(*r.EndDate) {
			return r, passed, ErrScheduleExhausted
		}
		r.NextTriggerDate = candidate
	}
	return r, passed, nil
}

// ComputeNextTriggerDate advances r in place and returns the new trigger date.
// On error r keeps whatever progress was made before the failure.
func (r *Rule) ComputeNextTriggerDate(now time.Time) (time.Time, error) {
	advanced, _, err := r.Advance(now)
	*r = advanced
	return r.NextTriggerDate, err
}

// Following returns the trigger date one period after the current one,
// without regard to the wall clock or the end date.
func (r Rule) Following() (time.Time, error) {
	if err := checkStep(r.Frequency, r.Interval); err != nil {
		return time.Time{}, err
	}
	return shift(r.NextTriggerDate, periods[r.Frequency], r.Interval, r.anchorDay()), nil
}

// anchorDay is the day-of-month monthly and yearly schedules aim for. It is
// the start day while the cursor sits on that day, or on the last day of a
// month too short for it. A cursor on any other day keeps its own day.
func (r Rule) anchorDay() int {
	next := r.NextTriggerDate.Day()
	if r.StartDate.IsZero() {
		return next
	}
	start := r.StartDate.Day()
	if next == min(start, daysIn(r.NextTriggerDate.Year(), r.NextTriggerDate.Month())) {
		return start
	}
	return next
}

type wireRule struct {
	Frequency       Frequency  `json:"frequency"`
	Interval        int        `json:"interval"`
	StartDate       time.Time  `json:"startDate"`
	NextTriggerDate *time.Time `json:"nextTriggerDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	next := r.NextTriggerDate
	return json.Marshal(wireRule{
		Frequency:       r.Frequency,
		Interval:        r.Interval,
		StartDate:       r.StartDate,
		NextTriggerDate: &next,
		EndDate:         r.EndDate,
	})
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := NewRule(w.Frequency, w.Interval, w.StartDate, w.NextTriggerDate, w.EndDate)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
