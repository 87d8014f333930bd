package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"walletguru/internal/recurrence"
)

// ruleFlags are the schedule flags shared by every recurrencectl command.
type ruleFlags struct {
	frequency string
	interval  int
	start     string
	next      string
	end       string
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.frequency, "frequency", "f", string(recurrence.Monthly), "Daily, Weekly, Monthly or Yearly")
	pf.IntVarP(&f.interval, "interval", "i", 1, "periods between occurrences")
	pf.StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	pf.StringVar(&f.next, "next", "", "next trigger date, defaults to the start date")
	pf.StringVar(&f.end, "end", "", "optional end date")
}

func (f *ruleFlags) rule() (recurrence.Rule, error) {
	freq, err := recurrence.ParseFrequency(f.frequency)
	if err != nil {
		return recurrence.Rule{}, err
	}
	if f.start == "" {
		return recurrence.Rule{}, errors.New("--start is required")
	}
	start, err := parseDate("start", f.start)
	if err != nil {
		return recurrence.Rule{}, err
	}
	next, err := optionalDate("next", f.next)
	if err != nil {
		return recurrence.Rule{}, err
	}
	end, err := optionalDate("end", f.end)
	if err != nil {
		return recurrence.Rule{}, err
	}
	return recurrence.NewRule(freq, f.interval, start, next, end)
}

func parseDate(name, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, s)
	}
	return t, nil
}

func optionalDate(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(name, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func day(t time.Time) string { return t.Format(time.DateOnly) }

// NewRecurrenceCommand builds the recurrencectl command tree. now supplies
// the default evaluation date of the next command.
func NewRecurrenceCommand(now func() time.Time) *cobra.Command {
	flags := &ruleFlags{}
	root := &cobra.Command{
		Use:           "recurrencectl",
		Short:         "Inspect recurrence rules offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root)
	root.AddCommand(
		newNextCommand(flags, now),
		newWindowsCommand(flags),
		newRRuleCommand(flags),
	)
	return root
}

func newNextCommand(flags *ruleFlags, now func() time.Time) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Advance the rule to a date and list the occurrences it passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := flags.rule()
			if err != nil {
				return err
			}
			when := now()
			if at != "" {
				if when, err = parseDate("at", at); err != nil {
					return err
				}
			}
			advanced, passed, err := rule.Advance(when)
			exhausted := errors.Is(err, recurrence.ErrScheduleExhausted)
			if err != nil && !exhausted {
				return err
			}
			out := cmd.OutOrStdout()
			for _, occ := range passed {
				fmt.Fprintf(out, "occurrence %s\n", day(occ))
			}
			fmt.Fprintf(out, "next %s\n", day(advanced.NextTriggerDate))
			if exhausted {
				fmt.Fprintln(out, "exhausted: no occurrences remain before the end date")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluation date, defaults to today")
	return cmd
}

func newWindowsCommand(flags *ruleFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Print the budget windows ending at the next trigger date, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			rule, err := flags.rule()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for offset := 0; offset < count; offset++ {
				start, end, err := rule.Window(offset)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%s\t%s\n", offset, day(start), day(end))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 3, "number of windows")
	return cmd
}

func newRRuleCommand(flags *ruleFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "rrule",
		Short: "Render the rule as an RFC 5545 RRULE and list its first occurrences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := flags.rule()
			if err != nil {
				return err
			}
			line, err := rule.RRuleString()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, line)
			if count <= 0 {
				return nil
			}
			rr, err := rule.RRule()
			if err != nil {
				return err
			}
			return printOccurrences(out, rr.Iterator(), count)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "occurrences to list, 0 for none")
	return cmd
}

func printOccurrences(out io.Writer, next func() (time.Time, bool), count int) error {
	for i := 0; i < count; i++ {
		t, ok := next()
		if !ok {
			break
		}
		if _, err := fmt.Fprintln(out, day(t)); err != nil {
			return err
		}
	}
	return nil
}
