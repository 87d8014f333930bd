package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestWindowStart(t *testing.T) {
	tests := []struct {
		name      string
		windowEnd time.Time
		freq      Frequency
		interval  int
		want      time.Time
		wantErr   error
	}{
		{"daily", date(2024, 1, 10), Daily, 3, date(2024, 1, 7), nil},
		{"weekly", date(2024, 1, 22), Weekly, 1, date(2024, 1, 15), nil},
		{"monthly clamps into february", date(2024, 3, 31), Monthly, 1, date(2024, 2, 29), nil},
		{"every other month", date(2024, 5, 15), Monthly, 2, date(2024, 3, 15), nil},
		{"yearly", date(2025, 2, 28), Yearly, 1, date(2024, 2, 28), nil},
		{"yearly from leap day", date(2024, 2, 29), Yearly, 1, date(2023, 2, 28), nil},
		{"time of day ignored", time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC), Daily, 1, date(2024, 1, 9), nil},
		{"unsupported frequency", date(2024, 1, 10), Frequency("Hourly"), 1, time.Time{}, ErrUnsupportedFrequency},
		{"zero interval", date(2024, 1, 10), Monthly, 0, time.Time{}, ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WindowStart(tt.windowEnd, tt.freq, tt.interval)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("WindowStart() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WindowStart() unexpected error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("WindowStart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindowStartInverse(t *testing.T) {
	for _, f := range Frequencies() {
		for interval := 1; interval <= 3; interval++ {
			for end := date(2024, 1, 1); end.Year() == 2024; end = end.AddDate(0, 0, 1) {
				start, err := WindowStart(end, f, interval)
				if err != nil {
					t.Fatalf("WindowStart(%v, %s, %d) error = %v", end, f, interval, err)
				}
				back, err := Step(start, f, interval, end.Day())
				if err != nil {
					t.Fatalf("Step() error = %v", err)
				}
				if !back.Equal(end) {
					t.Fatalf("Step(WindowStart(%v)) with %s/%d = %v", end, f, interval, back)
				}
			}
		}
	}
}

func TestRuleWindowStartUndoesAdvance(t *testing.T) {
	starts := []time.Time{date(2024, 1, 31), date(2024, 1, 30), date(2024, 2, 29), date(2024, 3, 15)}

	for _, f := range Frequencies() {
		for _, start := range starts {
			r := mustRule(t, f, 1, start, nil, nil)
			for i := 0; i < 30; i++ {
				before := r.NextTriggerDate
				next, err := r.Following()
				if err != nil {
					t.Fatalf("Following() error = %v", err)
				}
				r.NextTriggerDate = next

				got, err := r.WindowStart()
				if err != nil {
					t.Fatalf("WindowStart() error = %v", err)
				}
				if !got.Equal(before) {
					t.Fatalf("%s from %v: WindowStart() at %v = %v, want %v", f, start, next, got, before)
				}
			}
		}
	}
}

func TestRuleWindowStartUndoesAdvanceFromOffsetCursor(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		next  time.Time
	}{
		{"cursor after start day", date(2024, 1, 15), date(2024, 2, 20)},
		{"cursor before start day", date(2024, 1, 25), date(2024, 2, 10)},
	}

	for _, f := range []Frequency{Monthly, Yearly} {
		for _, tt := range tests {
			t.Run(string(f)+" "+tt.name, func(t *testing.T) {
				r := mustRule(t, f, 1, tt.start, ptr(tt.next), nil)
				for i := 0; i < 24; i++ {
					before := r.NextTriggerDate
					next, err := r.Following()
					if err != nil {
						t.Fatalf("Following() error = %v", err)
					}
					if next.Day() != before.Day() {
						t.Fatalf("Following() from %v = %v, want day %d", before, next, before.Day())
					}
					r.NextTriggerDate = next

					got, err := r.WindowStart()
					if err != nil {
						t.Fatalf("WindowStart() error = %v", err)
					}
					if !got.Equal(before) {
						t.Fatalf("WindowStart() at %v = %v, want %v", next, got, before)
					}
				}
			})
		}
	}
}

func TestRuleWindow(t *testing.T) {
	r := mustRule(t, Monthly, 1, date(2024, 1, 31), ptr(date(2024, 5, 31)), nil)

	tests := []struct {
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{0, date(2024, 4, 30), date(2024, 5, 31)},
		{1, date(2024, 3, 31), date(2024, 4, 30)},
		{2, date(2024, 2, 29), date(2024, 3, 31)},
		{-1, date(2024, 4, 30), date(2024, 5, 31)},
	}
	for _, tt := range tests {
		start, end, err := r.Window(tt.offset)
		if err != nil {
			t.Fatalf("Window(%d) error = %v", tt.offset, err)
		}
		if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
			t.Errorf("Window(%d) = [%v, %v), want [%v, %v)", tt.offset, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}
