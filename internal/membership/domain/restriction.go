package domain

import "time"

// CooldownPeriod is how long a withdrawn phone identity is refused
// re-authentication.
const CooldownPeriod = 30 * 24 * time.Hour

// Restriction records a withdrawal cooldown for one phone identity.
// Records are never deleted; they expire only by elapsed time.
type Restriction struct {
	Phone       string
	UserID      string
	WithdrawnAt time.Time
}

// Active reports whether the cooldown still blocks re-authentication at now.
func (r Restriction) Active(now time.Time) bool {
	return now.Sub(r.WithdrawnAt) < CooldownPeriod
}

// RemainingDays returns the whole days left in the cooldown, rounded up.
// It returns zero once the cooldown has elapsed.
func (r Restriction) RemainingDays(now time.Time) int {
	remaining := CooldownPeriod - now.Sub(r.WithdrawnAt)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
