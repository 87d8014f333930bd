package recurrence

import (
	"fmt"

	"github.com/teambition/rrule-go"
)

var rruleFreqs = map[Frequency]rrule.Frequency{
	Daily:   rrule.DAILY,
	Weekly:  rrule.WEEKLY,
	Monthly: rrule.MONTHLY,
	Yearly:  rrule.YEARLY,
}

// ROption describes the rule as RFC 5545 recurrence options anchored on
// StartDate. Month-end clamping is expressed as BYMONTHDAY=28..anchor with
// BYSETPOS=-1, which picks the anchor day or the last day of a shorter month.
func (r Rule) ROption() (rrule.ROption, error) {
	freq, ok := rruleFreqs[r.Frequency]
	if !ok {
		return rrule.ROption{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, string(r.Frequency))
	}
	if r.Interval < 1 {
		return rrule.ROption{}, fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: r.Interval,
		Dtstart:  r.StartDate,
	}
	if r.EndDate != nil {
		opt.Until = *r.EndDate
	}

	anchor := r.StartDate.Day()
	if (r.Frequency == Monthly || r.Frequency == Yearly) && anchor > 28 {
		for d := 28; d <= anchor; d++ {
			opt.Bymonthday = append(opt.Bymonthday, d)
		}
		opt.Bysetpos = []int{-1}
		if r.Frequency == Yearly {
			opt.Bymonth = []int{int(r.StartDate.Month())}
		}
	}
	return opt, nil
}

// RRule builds an rrule-go iterator equivalent to the rule's schedule.
func (r Rule) RRule() (*rrule.RRule, error) {
	opt, err := r.ROption()
	if err != nil {
		return nil, err
	}
	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return rr, nil
}

// RRuleString renders the rule as an RRULE line for calendar export.
func (r Rule) RRuleString() (string, error) {
	opt, err := r.ROption()
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}
