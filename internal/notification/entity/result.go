package entity

import "github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"

// SkippedCounts breaks down why eligible candidates were not notified.
type SkippedCounts struct {
	NoTokens   int `json:"noTokens"`
	OptOut     int `json:"optOut"`
	QuietHours int `json:"quietHours"`
}

// TriggerRunResult is the structured outcome of one trigger run.
//
// Runs report failures through Success/Error instead of returning an error so
// a cron caller always gets the partial counters that were reached.
type TriggerRunResult struct {
	TriggerKey           TriggerKey          `json:"triggerKey"`
	Success              bool                `json:"success"`
	Error                string              `json:"error,omitempty"`
	EvaluatedUsers       int                 `json:"evaluatedUsers"`
	AlreadyProcessed     int                 `json:"alreadyProcessed"`
	EligibleUsers        int                 `json:"eligibleUsers"`
	NotifiedUsers        int                 `json:"notifiedUsers"`
	NotificationAttempts int                 `json:"notificationAttempts"`
	SuccessfulAttempts   int                 `json:"successfulAttempts"`
	FailedAttempts       int                 `json:"failedAttempts"`
	Skipped              SkippedCounts       `json:"skipped"`
	Settings             valueobject.JSONMap `json:"settings"`
}

// TargetToken is one push destination inside a resolved segment.
type TargetToken struct {
	Token  string
	UserID int64
}

// SegmentResult is what the segment resolver returns for a campaign.
type SegmentResult struct {
	Tokens                  []TargetToken
	UsersMatched            int
	QuietHoursFilteredUsers int
}

// PushMessage is a single delivery request for one device token.
type PushMessage struct {
	Token      string
	Title      string
	Body       string
	ImageURL   string
	Data       valueobject.JSONMap
	Category   NotificationCategory
	UserID     int64
	CampaignID int64
	AdminID    int64
}

// SendFailure records one failed token delivery inside a campaign.
type SendFailure struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
	Error  string `json:"error"`
}

// CampaignSummary aggregates a finished campaign execution.
type CampaignSummary struct {
	TargetUsers        int `json:"targetUsers"`
	QuietHoursFiltered int `json:"quietHoursFiltered"`
	Tokens             int `json:"tokens"`
	Sent               int `json:"sent"`
	Failed             int `json:"failed"`
}

// CampaignExecutionResult is returned to the caller of campaign execution.
type CampaignExecutionResult struct {
	Message string          `json:"message"`
	Summary CampaignSummary `json:"summary"`
	Failed  []SendFailure   `json:"failed,omitempty"`
}
