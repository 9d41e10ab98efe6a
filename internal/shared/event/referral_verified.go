package event

const ReferralVerifiedDestination string = "referral_verified"
const ReferralVerifiedConsumerNotification string = "referral_verified_notification"

type ReferralVerifiedMessage struct {
	ReferralID int64 `json:"referral_id"`
	ReferrerID int64 `json:"referrer_id"`
	RefereeID  int64 `json:"referee_id"`
}
