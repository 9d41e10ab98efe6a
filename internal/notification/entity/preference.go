package entity

import "time"

const minutesPerDay = 24 * 60

// Preference is a user's push notification preference row.
type Preference struct {
	UserID          int64
	PushEnabled     bool
	ReminderEnabled bool

	// QuietHoursEnabled switches the do-not-disturb window on.
	QuietHoursEnabled bool
	// QuietStartMinute and QuietEndMinute bound the window in minutes of the
	// user's local day. The window may wrap midnight (start > end).
	QuietStartMinute int
	QuietEndMinute   int
	// UTCOffsetMinutes converts server time to the user's local clock.
	UTCOffsetMinutes int
	// QuietCategories lists categories the window applies to. Empty means all.
	QuietCategories []NotificationCategory
}

// InQuietHours reports whether sending a notification of the given category to
// this user at the given instant would land inside their quiet window.
func (p Preference) InQuietHours(category NotificationCategory, now time.Time) bool {
	if !p.QuietHoursEnabled {
		return false
	}
	if len(p.QuietCategories) > 0 && !p.appliesTo(category) {
		return false
	}

	local := now.UTC().Add(time.Duration(p.UTCOffsetMinutes) * time.Minute)
	minute := local.Hour()*60 + local.Minute()

	start := p.QuietStartMinute % minutesPerDay
	end := p.QuietEndMinute % minutesPerDay
	if start == end {
		return false
	}
	if start < end {
		return minute >= start && minute < end
	}
	// wraps midnight
	return minute >= start || minute < end
}

func (p Preference) appliesTo(category NotificationCategory) bool {
	for _, c := range p.QuietCategories {
		if c == category {
			return true
		}
	}
	return false
}
