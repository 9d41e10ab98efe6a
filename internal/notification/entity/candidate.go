package entity

import "time"

// Subscription tiers whose expiration produces renewal reminders.
const (
	SubscriptionSmart = "smart"
	SubscriptionPro   = "pro"
)

// RenewalCandidate is a user whose subscription expires inside the target window.
type RenewalCandidate struct {
	UserID       int64
	Subscription string
	ExpiresAt    time.Time
}

// Referral is one referrer/referee pair from the referrals table.
type Referral struct {
	ID               int64
	ReferrerID       int64
	RefereeID        int64
	VerifiedWhatsApp bool
	RegisteredAt     time.Time
	VerifiedAt       *time.Time
}
