package usecase

import (
	"context"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

// triggerRunner executes one trigger run with already-sanitized settings.
type triggerRunner func(ctx context.Context, settings entity.TriggerSettings) entity.TriggerRunResult

type registryEntry struct {
	def entity.TriggerDefinition
	run triggerRunner
}

// newRegistry builds the immutable trigger catalog once at startup.
//
// Listings iterate the returned key slice, never the map, so output order is
// stable regardless of map iteration.
func newRegistry(s *Usecase) (map[entity.TriggerKey]registryEntry, []entity.TriggerKey) {
	entries := []registryEntry{
		{
			def: entity.TriggerDefinition{
				Key:         entity.TriggerKeyRenewalReminder,
				Label:       "Renewal reminder",
				Description: "Reminds smart/pro users whose subscription expires in a configurable number of days.",
				DefaultSettings: entity.RenewalSettings{
					DaysBefore: 3,
					Limit:      100,
				},
				Schema: []entity.SettingField{
					{Key: "daysBefore", Label: "Days before expiration", Kind: entity.SettingKindNumber, Min: entity.RenewalDaysBeforeMin, Max: entity.RenewalDaysBeforeMax, Step: 1},
					{Key: "limit", Label: "Max users per run", Kind: entity.SettingKindNumber, Min: entity.TriggerLimitMin, Max: entity.TriggerLimitMax, Step: 10},
				},
			},
			run: func(ctx context.Context, settings entity.TriggerSettings) entity.TriggerRunResult {
				return s.runRenewalReminder(ctx, settings.(entity.RenewalSettings))
			},
		},
		{
			def: entity.TriggerDefinition{
				Key:         entity.TriggerKeyReferralInvited,
				Label:       "Referral invited",
				Description: "Notifies a referrer when someone registers with their invitation.",
				DefaultSettings: entity.ReferralSettings{
					Limit:        100,
					LookbackDays: 7,
				},
				Schema: referralSchema(),
			},
			run: func(ctx context.Context, settings entity.TriggerSettings) entity.TriggerRunResult {
				return s.runReferral(ctx, entity.TriggerKeyReferralInvited, settings.(entity.ReferralSettings), nil)
			},
		},
		{
			def: entity.TriggerDefinition{
				Key:         entity.TriggerKeyReferralVerified,
				Label:       "Referral verified",
				Description: "Notifies a referrer when their referee verifies the WhatsApp account.",
				DefaultSettings: entity.ReferralSettings{
					Limit:        100,
					LookbackDays: 7,
				},
				Schema: referralSchema(),
			},
			run: func(ctx context.Context, settings entity.TriggerSettings) entity.TriggerRunResult {
				return s.runReferral(ctx, entity.TriggerKeyReferralVerified, settings.(entity.ReferralSettings), nil)
			},
		},
	}

	registry := make(map[entity.TriggerKey]registryEntry, len(entries))
	keys := make([]entity.TriggerKey, 0, len(entries))
	for _, e := range entries {
		registry[e.def.Key] = e
		keys = append(keys, e.def.Key)
	}

	return registry, keys
}

func referralSchema() []entity.SettingField {
	return []entity.SettingField{
		{Key: "limit", Label: "Max referrals per run", Kind: entity.SettingKindNumber, Min: entity.TriggerLimitMin, Max: entity.TriggerLimitMax, Step: 10},
		{Key: "lookbackDays", Label: "Lookback window (days)", Kind: entity.SettingKindNumber, Min: entity.LookbackDaysMin, Max: entity.LookbackDaysMax, Step: 1},
	}
}

// decodeSettings merges persisted overrides over the definition defaults and
// clamps every field into range.
func decodeSettings(def entity.TriggerDefinition, overrides valueobject.JSONMap) entity.TriggerSettings {
	switch defaults := def.DefaultSettings.(type) {
	case entity.RenewalSettings:
		return entity.RenewalSettingsFromMap(overrides, defaults).Sanitize()
	case entity.ReferralSettings:
		return entity.ReferralSettingsFromMap(overrides, defaults).Sanitize()
	default:
		return def.DefaultSettings.Sanitize()
	}
}
