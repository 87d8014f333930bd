// Package recurrence implements the scheduling engine behind recurring expenses,
// recurring incomes and category budget cycles.
//
// A Rule owns a schedule definition and a cursor (NextTriggerDate). Callers ask
// whether the cursor is due and advance it through every elapsed period in one
// pass. All dates are UTC calendar dates; time-of-day is discarded.
package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the unit of a recurrence period.
type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

// period describes one unit of a frequency. Exactly one of days or months is set.
type period struct {
	days   int
	months int
}

// periods maps each supported frequency to its step size. Forward advancement
// and window reconstruction both read from this table so they cannot drift apart.
var periods = map[Frequency]period{
	Daily:   {days: 1},
	Weekly:  {days: 7},
	Monthly: {months: 1},
	Yearly:  {months: 12},
}

// Frequencies returns the supported frequencies in ascending period length.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Monthly, Yearly}
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	_, ok := periods[f]
	return ok
}

func (f Frequency) String() string {
	return string(f)
}

// ParseFrequency resolves s case-insensitively to a supported frequency.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(s)
	for _, f := range Frequencies() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, s)
}

// Truncate returns the UTC calendar date of t at midnight.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Step moves t forward by interval periods of f. For Monthly and Yearly the
// day-of-month is anchorDay clamped to the last day of the target month.
func Step(t time.Time, f Frequency, interval, anchorDay int) (time.Time, error) {
	if err := checkStep(f, interval); err != nil {
		return time.Time{}, err
	}
	return shift(Truncate(t), periods[f], interval, anchorDay), nil
}

// StepBack moves t backward by interval periods of f. It is the exact inverse
// of Step for dates whose day-of-month equals the clamped anchorDay.
func StepBack(t time.Time, f Frequency, interval, anchorDay int) (time.Time, error) {
	if err := checkStep(f, interval); err != nil {
		return time.Time{}, err
	}
	return shift(Truncate(t), periods[f], -interval, anchorDay), nil
}

func checkStep(f Frequency, interval int) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFrequency, string(f))
	}
	if interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, interval)
	}
	return nil
}

func shift(t time.Time, p period, n, anchorDay int) time.Time {
	if p.days != 0 {
		return t.AddDate(0, 0, p.days*n)
	}
	return addMonthsClamped(t, p.months*n, anchorDay)
}

// addMonthsClamped adds months to t and places the result on anchorDay, or on
// the last day of the target month when that month is shorter.
func addMonthsClamped(t time.Time, months, anchorDay int) time.Time {
	y, m, _ := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	day := anchorDay
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
