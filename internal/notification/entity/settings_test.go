package entity

import (
	"testing"

	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

func TestRenewalSettingsSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   RenewalSettings
		want RenewalSettings
	}{
		{
			name: "InRange",
			in:   RenewalSettings{DaysBefore: 3, Limit: 100},
			want: RenewalSettings{DaysBefore: 3, Limit: 100},
		},
		{
			name: "NegativeDaysBefore",
			in:   RenewalSettings{DaysBefore: -5, Limit: 100},
			want: RenewalSettings{DaysBefore: 0, Limit: 100},
		},
		{
			name: "DaysBeforeTooLarge",
			in:   RenewalSettings{DaysBefore: 999, Limit: 100},
			want: RenewalSettings{DaysBefore: 30, Limit: 100},
		},
		{
			name: "ZeroLimit",
			in:   RenewalSettings{DaysBefore: 3, Limit: 0},
			want: RenewalSettings{DaysBefore: 3, Limit: 1},
		},
		{
			name: "LimitTooLarge",
			in:   RenewalSettings{DaysBefore: 3, Limit: 10000},
			want: RenewalSettings{DaysBefore: 3, Limit: 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Sanitize(); got != tt.want {
				t.Fatalf("Sanitize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReferralSettingsSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   ReferralSettings
		want ReferralSettings
	}{
		{
			name: "InRange",
			in:   ReferralSettings{Limit: 100, LookbackDays: 7},
			want: ReferralSettings{Limit: 100, LookbackDays: 7},
		},
		{
			name: "ZeroLookback",
			in:   ReferralSettings{Limit: 100, LookbackDays: 0},
			want: ReferralSettings{Limit: 100, LookbackDays: 1},
		},
		{
			name: "LookbackTooLarge",
			in:   ReferralSettings{Limit: 100, LookbackDays: 365},
			want: ReferralSettings{Limit: 100, LookbackDays: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Sanitize(); got != tt.want {
				t.Fatalf("Sanitize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSettingsFromMap(t *testing.T) {
	t.Run("MissingKeysFallBackToDefaults", func(t *testing.T) {
		defaults := RenewalSettings{DaysBefore: 3, Limit: 100}

		got := RenewalSettingsFromMap(valueobject.JSONMap{"limit": 50}, defaults)

		if got.DaysBefore != 3 || got.Limit != 50 {
			t.Fatalf("unexpected decode: %+v", got)
		}
	})

	t.Run("JSONNumbersDecode", func(t *testing.T) {
		// values unmarshalled from jsonb arrive as float64
		got := ReferralSettingsFromMap(valueobject.JSONMap{"limit": float64(25), "lookbackDays": float64(14)}, ReferralSettings{})

		if got.Limit != 25 || got.LookbackDays != 14 {
			t.Fatalf("unexpected decode: %+v", got)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		in := RenewalSettings{DaysBefore: 5, Limit: 42}

		got := RenewalSettingsFromMap(in.ToMap(), RenewalSettings{})

		if got != in {
			t.Fatalf("round trip mismatch: %+v != %+v", got, in)
		}
	})
}
