package entity

import (
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

// TriggerKey identifies a notification trigger policy.
type TriggerKey string

const (
	TriggerKeyRenewalReminder  TriggerKey = "renewal_reminder"
	TriggerKeyReferralInvited  TriggerKey = "referral_invited"
	TriggerKeyReferralVerified TriggerKey = "referral_verified"
)

func (tk TriggerKey) String() string {
	return string(tk)
}

// SettingKind is the value kind of a configurable trigger setting.
type SettingKind string

const (
	SettingKindNumber  SettingKind = "number"
	SettingKindBoolean SettingKind = "boolean"
)

// SettingField describes one configurable setting so an admin UI can render it.
type SettingField struct {
	Key   string
	Label string
	Kind  SettingKind
	Min   int
	Max   int
	Step  int
}

// TriggerDefinition is the immutable compile-time description of a trigger.
//
// Definitions are built once at startup and never mutated afterwards.
type TriggerDefinition struct {
	Key             TriggerKey
	Label           string
	Description     string
	DefaultSettings TriggerSettings
	Schema          []SettingField
}

// TriggerConfig is the persisted per-trigger activation flag and settings
// overrides. It does not exist until the trigger is first read, at which point
// it is materialized with defaults.
type TriggerConfig struct {
	TriggerKey TriggerKey
	IsActive   bool
	Settings   valueobject.JSONMap
	UpdatedAt  time.Time
}

// TriggerLogEntry is one row of the append-only trigger ledger.
//
// Entries double as the audit trail and the dedup source: a subject is
// considered handled when a matching entry exists, including entries that only
// record a skip.
type TriggerLogEntry struct {
	ID         int64
	TriggerKey TriggerKey
	UserID     int64
	Context    valueobject.JSONMap
	SentAt     time.Time
}

// Ledger context keys. The referral key keeps its legacy wire name because
// existing rows were written with it.
const (
	LogKeyEvent         = "event"
	LogKeyRefereeID     = "referido_id"
	LogKeySkippedReason = "skippedReason"
	LogKeySent          = "sent"
	LogKeyAttempts      = "attempts"
	LogKeyTargetDate    = "target_date"
)

// Skip reasons recorded in ledger context.
const (
	SkipReasonOptOut     = "opt_out"
	SkipReasonQuietHours = "quiet_hours"
	SkipReasonNoTokens   = "no_tokens"
)

// TriggerStatus is the externally visible state of one trigger.
type TriggerStatus struct {
	Key          TriggerKey
	Label        string
	Description  string
	IsActive     bool
	Settings     valueobject.JSONMap
	SettingsMeta []SettingField
	LastRun      *TriggerLastRun
}

// TriggerLastRun summarizes the most recent ledger entry for a trigger.
type TriggerLastRun struct {
	SentAt  time.Time
	Summary valueobject.JSONMap
}
