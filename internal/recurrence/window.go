package recurrence

import "time"

// WindowStart returns the date exactly one period before windowEnd. Monthly
// and yearly periods aim for windowEnd's own day-of-month.
func WindowStart(windowEnd time.Time, f Frequency, interval int) (time.Time, error) {
	end := Truncate(windowEnd)
	return StepBack(end, f, interval, end.Day())
}

// WindowStart returns the start of the window that ends at the current
// trigger date. For a rule advanced from its start date this is the value
// NextTriggerDate held before its most recent step.
func (r Rule) WindowStart() (time.Time, error) {
	return StepBack(r.NextTriggerDate, r.Frequency, r.Interval, r.anchorDay())
}

// Window returns the [start, end) bounds of a budget or recurrence window.
// Offset 0 is the window ending at NextTriggerDate, offset 1 the one before
// it and so on. Negative offsets are treated as 0.
func (r Rule) Window(offset int) (start, end time.Time, err error) {
	if offset < 0 {
		offset = 0
	}
	if err := checkStep(r.Frequency, r.Interval); err != nil {
		return time.Time{}, time.Time{}, err
	}
	anchor := r.anchorDay()
	p := periods[r.Frequency]

	end = r.NextTriggerDate
	if offset > 0 {
		end = shift(end, p, -r.Interval*offset, anchor)
	}
	start = shift(end, p, -r.Interval, anchor)
	return start, end, nil
}
