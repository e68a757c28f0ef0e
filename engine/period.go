package engine

// =============================================================================
// PERIOD - Inclusive date window
// =============================================================================

// Period is an inclusive window [Start, End]. Timesheets, payroll and P&L
// are always computed for a calendar-month Period.
type Period struct {
	Start Date
	End   Date
}

// MonthOf returns the calendar month containing d.
func MonthOf(d Date) Period {
	return Period{Start: d.StartOfMonth(), End: d.EndOfMonth()}
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// IsEmpty reports a window whose end precedes its start.
func (p Period) IsEmpty() bool { return p.End.Before(p.Start) }

// Days returns every day in the period in ascending order. An empty period yields nil.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
