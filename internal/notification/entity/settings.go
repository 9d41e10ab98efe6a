package entity

import "github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"

// TriggerSettings is the tagged union of per-trigger settings.
//
// Each trigger key owns a concrete settings type with its own sanitizer;
// persisted rows store sparse overrides that are merged over the defaults and
// decoded back through the matching FromMap constructor.
type TriggerSettings interface {
	// Sanitize clamps every field into its allowed range and returns the result.
	Sanitize() TriggerSettings
	// ToMap converts the settings to their persisted JSON representation.
	ToMap() valueobject.JSONMap
}

// Bounds for renewal reminder settings.
const (
	RenewalDaysBeforeMin = 0
	RenewalDaysBeforeMax = 30
	TriggerLimitMin      = 1
	TriggerLimitMax      = 500
	LookbackDaysMin      = 1
	LookbackDaysMax      = 30
)

// RenewalSettings configures the renewal reminder trigger.
type RenewalSettings struct {
	// DaysBefore is how many days before expiration the reminder fires.
	DaysBefore int
	// Limit caps how many candidates a single run evaluates.
	Limit int
}

// RenewalSettingsFromMap decodes renewal settings from a persisted map.
// Missing keys fall back to the provided defaults.
func RenewalSettingsFromMap(m valueobject.JSONMap, defaults RenewalSettings) RenewalSettings {
	out := defaults
	if m.Has("daysBefore") {
		out.DaysBefore = m.GetInt("daysBefore")
	}
	if m.Has("limit") {
		out.Limit = m.GetInt("limit")
	}
	return out
}

// Sanitize clamps DaysBefore to [0,30] and Limit to [1,500].
func (s RenewalSettings) Sanitize() TriggerSettings {
	return RenewalSettings{
		DaysBefore: clamp(s.DaysBefore, RenewalDaysBeforeMin, RenewalDaysBeforeMax),
		Limit:      clamp(s.Limit, TriggerLimitMin, TriggerLimitMax),
	}
}

// ToMap converts the settings to their persisted JSON representation.
func (s RenewalSettings) ToMap() valueobject.JSONMap {
	return valueobject.JSONMap{"daysBefore": s.DaysBefore, "limit": s.Limit}
}

// ReferralSettings configures both referral triggers.
type ReferralSettings struct {
	// Limit caps how many referral pairs a single batch run evaluates.
	Limit int
	// LookbackDays bounds how far back a batch run scans for candidates.
	LookbackDays int
}

// ReferralSettingsFromMap decodes referral settings from a persisted map.
// Missing keys fall back to the provided defaults.
func ReferralSettingsFromMap(m valueobject.JSONMap, defaults ReferralSettings) ReferralSettings {
	out := defaults
	if m.Has("limit") {
		out.Limit = m.GetInt("limit")
	}
	if m.Has("lookbackDays") {
		out.LookbackDays = m.GetInt("lookbackDays")
	}
	return out
}

// Sanitize clamps Limit to [1,500] and LookbackDays to [1,30].
func (s ReferralSettings) Sanitize() TriggerSettings {
	return ReferralSettings{
		Limit:        clamp(s.Limit, TriggerLimitMin, TriggerLimitMax),
		LookbackDays: clamp(s.LookbackDays, LookbackDaysMin, LookbackDaysMax),
	}
}

// ToMap converts the settings to their persisted JSON representation.
func (s ReferralSettings) ToMap() valueobject.JSONMap {
	return valueobject.JSONMap{"limit": s.Limit, "lookbackDays": s.LookbackDays}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
