package entity

import (
	"testing"
	"time"
)

func TestPreferenceInQuietHours(t *testing.T) {
	noonUTC := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	base := Preference{
		UserID:            1,
		PushEnabled:       true,
		QuietHoursEnabled: true,
		QuietStartMinute:  22 * 60,
		QuietEndMinute:    7 * 60,
	}

	t.Run("Disabled", func(t *testing.T) {
		p := base
		p.QuietHoursEnabled = false
		p.UTCOffsetMinutes = 600 // local 22:00, inside the window if it were on

		if p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("disabled quiet hours must never match")
		}
	})

	t.Run("InsideWindowAfterStart", func(t *testing.T) {
		p := base
		p.UTCOffsetMinutes = 600 // local 22:00

		if !p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("local 22:00 is inside 22:00-07:00")
		}
	})

	t.Run("InsideWindowPastMidnight", func(t *testing.T) {
		p := base
		p.UTCOffsetMinutes = -600 // local 02:00

		if !p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("local 02:00 is inside the wrapped 22:00-07:00 window")
		}
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		p := base
		p.UTCOffsetMinutes = 0 // local 12:00

		if p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("local noon is outside 22:00-07:00")
		}
	})

	t.Run("EndBoundaryExclusive", func(t *testing.T) {
		p := base
		p.UTCOffsetMinutes = -300 // local 07:00 exactly

		if p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("window end is exclusive")
		}
	})

	t.Run("NonWrappingWindow", func(t *testing.T) {
		p := base
		p.QuietStartMinute = 9 * 60
		p.QuietEndMinute = 17 * 60
		p.UTCOffsetMinutes = 0 // local 12:00

		if !p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("local noon is inside 09:00-17:00")
		}
	})

	t.Run("EqualBoundsMeansNoWindow", func(t *testing.T) {
		p := base
		p.QuietStartMinute = 600
		p.QuietEndMinute = 600
		p.UTCOffsetMinutes = 600

		if p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("zero-length window must never match")
		}
	})

	t.Run("CategoryFilter", func(t *testing.T) {
		p := base
		p.UTCOffsetMinutes = 600 // local 22:00, inside the window
		p.QuietCategories = []NotificationCategory{CategoryMarketing}

		if !p.InQuietHours(CategoryMarketing, noonUTC) {
			t.Fatalf("listed category must be filtered")
		}
		if p.InQuietHours(CategoryTransaction, noonUTC) {
			t.Fatalf("unlisted category must pass through")
		}
	})

	t.Run("EmptyCategoriesApplyToAll", func(t *testing.T) {
		p := base
		p.UTCOffsetMinutes = 600

		if !p.InQuietHours(CategoryPayment, noonUTC) {
			t.Fatalf("empty category list applies the window to every category")
		}
	})
}

func TestCampaignTypeCategory(t *testing.T) {
	tests := []struct {
		in   CampaignType
		want NotificationCategory
	}{
		{CampaignTypeTransaction, CategoryTransaction},
		{CampaignTypeMarketing, CategoryMarketing},
		{CampaignTypeSystem, CategorySystem},
		{CampaignTypeReminder, CategoryReminder},
		{CampaignTypeReferral, CategoryReferral},
		{CampaignTypePayment, CategoryPayment},
		{CampaignType(" marketing "), CategoryMarketing},
		{CampaignType("promo"), CategoryMarketing},
		{CampaignType(""), CategoryMarketing},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Category(); got != tt.want {
				t.Fatalf("Category(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
