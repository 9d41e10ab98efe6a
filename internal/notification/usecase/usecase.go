package usecase

import (
	"context"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/clock"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/uid"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/validator"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	// trigger configuration
	GetTriggerConfig(ctx context.Context, key entity.TriggerKey) (*entity.TriggerConfig, error)
	SaveTriggerConfig(ctx context.Context, cfg entity.TriggerConfig) error

	// ledger
	AppendTriggerLogs(ctx context.Context, entries []entity.TriggerLogEntry) error
	ListProcessedUserIDs(ctx context.Context, key entity.TriggerKey, userIDs []int64, since time.Time) (map[int64]struct{}, error)
	ListProcessedReferralPairs(ctx context.Context, key entity.TriggerKey, referrerIDs []int64) (map[string]struct{}, error)
	LastTriggerLog(ctx context.Context, key entity.TriggerKey) (*entity.TriggerLogEntry, error)

	// candidates and user state
	ListRenewalCandidates(ctx context.Context, start, end time.Time, limit int) ([]entity.RenewalCandidate, error)
	ListRecentReferrals(ctx context.Context, verifiedOnly bool, since time.Time, limit int) ([]entity.Referral, error)
	GetReferralsByIDs(ctx context.Context, ids []int64, verifiedOnly bool) ([]entity.Referral, error)
	GetPreferences(ctx context.Context, userIDs []int64) (map[int64]entity.Preference, error)
	GetActiveTokens(ctx context.Context, userID int64) ([]string, error)

	// campaigns
	GetCampaign(ctx context.Context, id int64) (*entity.Campaign, error)
	ClaimCampaignSending(ctx context.Context, id int64) (bool, error)
	FinishCampaign(ctx context.Context, id int64, status entity.CampaignStatus, counts entity.CampaignCounts, sentAt time.Time) error
	RevertCampaignToScheduled(ctx context.Context, id int64) error
	ResolveSegment(ctx context.Context, filters entity.SegmentFilter, category entity.NotificationCategory) (*entity.SegmentResult, error)
}

// pusher delivers one notification to one device token. Delivery errors are
// per-token and never abort a run.
type pusher interface {
	Send(ctx context.Context, msg entity.PushMessage) error
}

// locker guards trigger runs against overlapping cron invocations.
type locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Usecase implements the notification trigger and campaign execution engine.
type Usecase struct {
	repoDB    repoDB
	pusher    pusher
	locker    locker
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation

	registry     map[entity.TriggerKey]registryEntry
	registryKeys []entity.TriggerKey
}

type Dependency struct {
	RepoDB     repoDB
	Pusher     pusher
	Locker     locker
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

// NewEngine builds the engine and its immutable trigger registry.
func NewEngine(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:    dep.RepoDB,
		pusher:    dep.Pusher,
		locker:    dep.Locker,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
	s.registry, s.registryKeys = newRegistry(s)

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) newLogEntry(key entity.TriggerKey, userID int64, logCtx valueobject.JSONMap) entity.TriggerLogEntry {
	return entity.TriggerLogEntry{
		ID:         s.uid.Generate(),
		TriggerKey: key,
		UserID:     userID,
		Context:    logCtx,
		SentAt:     s.clock.Now().UTC(),
	}
}
