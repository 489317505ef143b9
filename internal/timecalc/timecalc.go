package timecalc

import (
	"fmt"
	"time"
)

const (
	// RegularDailyLimitMinutes is the worked time per day paid at the regular rate.
	RegularDailyLimitMinutes = 8 * 60

	// RegularWeeklyLimitMinutes is the worked time per week paid at the regular rate.
	RegularWeeklyLimitMinutes = 40 * 60
)

// BreakSpan is the slice of an entry spent on break. End is nil while the
// break is still open.
type BreakSpan struct {
	Start  time.Time
	End    *time.Time
	IsPaid bool
}

// Totals is the outcome of a duration computation over one entry.
type Totals struct {
	WorkedMinutes int
	BreakMinutes  int
}

// RoundMinutes converts an elapsed duration to whole minutes, rounding half
// a minute up. Negative durations round to zero.
func RoundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + 30*time.Second) / time.Minute)
}

// ComputeTotals derives worked and break minutes for a closed window.
// Breaks still open are treated as ending at ref. Unpaid break time is
// subtracted from the gross span, paid break time is not; the worked total
// never goes below zero. BreakMinutes counts paid and unpaid alike.
func ComputeTotals(clockIn, clockOut time.Time, breaks []BreakSpan, ref time.Time) Totals {
	gross := RoundMinutes(clockOut.Sub(clockIn))

	unpaid := 0
	all := 0
	for _, b := range breaks {
		end := ref
		if b.End != nil {
			end = *b.End
		}
		mins := RoundMinutes(end.Sub(b.Start))
		all += mins
		if !b.IsPaid {
			unpaid += mins
		}
	}

	worked := gross - unpaid
	if worked < 0 {
		worked = 0
	}

	return Totals{WorkedMinutes: worked, BreakMinutes: all}
}

// SplitOvertime divides worked minutes into the part paid at the regular
// rate and the part above the limit.
func SplitOvertime(totalMinutes, limitMinutes int) (regular, overtime int) {
	if totalMinutes <= limitMinutes {
		return totalMinutes, 0
	}
	return limitMinutes, totalMinutes - limitMinutes
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = StartOfDay(monday)
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// DayKey formats t as a calendar-day key like "2026-03-02".
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatMinutes renders minutes as a label like "8h 30m" or "45m".
func FormatMinutes(mins int) string {
	h := mins / 60
	m := mins % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
