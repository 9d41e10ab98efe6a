package entity

import (
	"strings"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusFailed    CampaignStatus = "failed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

func (s CampaignStatus) String() string {
	return string(s)
}

// CampaignType categorizes a campaign; it maps to the notification category
// used for preference and quiet-hours evaluation.
type CampaignType string

const (
	CampaignTypeTransaction CampaignType = "transaction"
	CampaignTypeMarketing   CampaignType = "marketing"
	CampaignTypeSystem      CampaignType = "system"
	CampaignTypeReminder    CampaignType = "reminder"
	CampaignTypeReferral    CampaignType = "referral"
	CampaignTypePayment     CampaignType = "payment"
)

// Category resolves the notification category for this campaign type.
// Unrecognized types fall back to marketing.
func (t CampaignType) Category() NotificationCategory {
	switch CampaignType(strings.TrimSpace(string(t))) {
	case CampaignTypeTransaction:
		return CategoryTransaction
	case CampaignTypeSystem:
		return CategorySystem
	case CampaignTypeReminder:
		return CategoryReminder
	case CampaignTypeReferral:
		return CategoryReferral
	case CampaignTypePayment:
		return CategoryPayment
	default:
		return CategoryMarketing
	}
}

// NotificationCategory is the per-preference notification class.
type NotificationCategory string

const (
	CategoryTransaction NotificationCategory = "transaction"
	CategoryMarketing   NotificationCategory = "marketing"
	CategorySystem      NotificationCategory = "system"
	CategoryReminder    NotificationCategory = "reminder"
	CategoryReferral    NotificationCategory = "referral"
	CategoryPayment     NotificationCategory = "payment"
)

func (c NotificationCategory) String() string {
	return string(c)
}

// SegmentFilter narrows campaign targeting.
type SegmentFilter struct {
	// Subscriptions limits targeting to subscription tiers (e.g. smart, pro).
	Subscriptions []string `json:"subscriptions,omitempty"`
	// Platforms limits targeting to device platforms (android, ios, web).
	Platforms []string `json:"platforms,omitempty"`
	// UserIDs targets an explicit user list.
	UserIDs []int64 `json:"user_ids,omitempty"`
	// LastActiveDays targets users active within the window. Zero disables it.
	LastActiveDays int `json:"last_active_days,omitempty"`
}

// Campaign is a one-shot broadcast to a resolved segment.
//
// Campaigns are authored externally in scheduled state; from the moment
// execution begins the engine owns every state transition except cancelled.
type Campaign struct {
	ID             int64
	Title          string
	Body           string
	ImageURL       string
	Data           valueobject.JSONMap
	CampaignType   CampaignType
	Filters        SegmentFilter
	Status         CampaignStatus
	TargetUsers    int
	SentCount      int
	FailedCount    int
	DeliveredCount int
	OpenedCount    int
	ClickedCount   int
	CreatedBy      int64
	SentAt         *time.Time
	UpdatedAt      time.Time
}

// CampaignCounts is the delivery tally persisted when execution finishes.
type CampaignCounts struct {
	TargetUsers int
	Sent        int
	Failed      int
	Delivered   int
}
