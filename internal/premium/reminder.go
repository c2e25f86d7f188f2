package premium

import "time"

// Reminder identifies a step on the premium expiry reminder ladder. The zero
// value means no reminder has been sent for the current subscription period.
// Values are strictly ordered by urgency so the monotonicity rule collapses to
// a single integer comparison.
type Reminder int

const (
	ReminderNone Reminder = iota
	Reminder30Days
	Reminder14Days
	Reminder7Days
	Reminder3Days
	Reminder2Days
	Reminder1Day
	ReminderExpired
)

// Thresholds lists the reminder steps that carry a time window, ordered from
// most urgent to least urgent. The scheduler walks this slice and stops at the
// first window satisfied by the remaining time, which guarantees at most one
// emission per user per scan.
var Thresholds = []Reminder{
	Reminder1Day,
	Reminder2Days,
	Reminder3Days,
	Reminder7Days,
	Reminder14Days,
	Reminder30Days,
}

var tokens = map[Reminder]string{
	ReminderNone:    "",
	Reminder30Days:  "30d",
	Reminder14Days:  "14d",
	Reminder7Days:   "7d",
	Reminder3Days:   "3d",
	Reminder2Days:   "2d",
	Reminder1Day:    "1d",
	ReminderExpired: "expired",
}

var windows = map[Reminder]time.Duration{
	Reminder30Days: 30 * 24 * time.Hour,
	Reminder14Days: 14 * 24 * time.Hour,
	Reminder7Days:  7 * 24 * time.Hour,
	Reminder3Days:  3 * 24 * time.Hour,
	Reminder2Days:  2 * 24 * time.Hour,
	Reminder1Day:   24 * time.Hour,
}

// Token returns the string persisted in users.last_premium_reminder.
func (r Reminder) Token() string {
	return tokens[r]
}

// Window returns the remaining-time bound for threshold reminders. It is zero
// for ReminderNone and ReminderExpired, which carry no window.
func (r Reminder) Window() time.Duration {
	return windows[r]
}

// MoreUrgentThan reports whether r is strictly more urgent than other.
func (r Reminder) MoreUrgentThan(other Reminder) bool {
	return r > other
}

// Satisfied reports whether the remaining time until expiry falls inside the
// reminder's window.
func (r Reminder) Satisfied(timeLeft time.Duration) bool {
	window := r.Window()
	return window > 0 && timeLeft <= window
}

// ParseReminder maps a persisted token back to its ladder position. Unknown
// tokens are treated as no reminder so a corrupt value can only cause an extra
// reminder, never a missed downgrade.
func ParseReminder(token string) Reminder {
	for reminder, t := range tokens {
		if t == token && reminder != ReminderNone {
			return reminder
		}
	}
	return ReminderNone
}

// NextReminder resolves the reminder that should fire for the supplied
// remaining time and persisted state. It returns ReminderNone when no
// threshold is both satisfied and strictly more urgent than current.
func NextReminder(timeLeft time.Duration, current Reminder) Reminder {
	for _, threshold := range Thresholds {
		if !threshold.Satisfied(timeLeft) {
			continue
		}
		// Thresholds are ordered most urgent first, so the first satisfied
		// window decides. Anything it does not beat, later windows cannot.
		if threshold.MoreUrgentThan(current) {
			return threshold
		}
		return ReminderNone
	}
	return ReminderNone
}
