package event

const ReferralCreatedDestination string = "referral_created"
const ReferralCreatedConsumerNotification string = "referral_created_notification"

type ReferralCreatedMessage struct {
	ReferralID int64 `json:"referral_id"`
	ReferrerID int64 `json:"referrer_id"`
	RefereeID  int64 `json:"referee_id"`
}
