package googlefit

import "time"

// All day boundaries below are wall-clock midnights in the given location.
// The client passes time.Local unless configured otherwise, so results
// depend on the time zone of the running process.

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayWindow covers the local calendar day of t. Time of day is ignored.
func DayWindow(t time.Time, loc *time.Location) Window {
	begin := startOfDay(t, loc)
	return Window{
		Start: begin,
		End:   begin.AddDate(0, 0, 1),
	}
}

// TrailingDaysWindow covers the n full days before the day of now, excluding it.
func TrailingDaysWindow(now time.Time, n int, loc *time.Location) Window {
	today := startOfDay(now, loc)
	return Window{
		Start: today.AddDate(0, 0, -n),
		End:   today,
	}
}

// DaysAgo returns the same wall-clock time n calendar days before now.
func DaysAgo(now time.Time, n int, loc *time.Location) time.Time {
	return now.In(loc).AddDate(0, 0, -n)
}
