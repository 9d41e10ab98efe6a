package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/instrument"
)

type fakeRepo struct {
	mu sync.Mutex

	configs      map[entity.TriggerKey]entity.TriggerConfig
	getCfgErr    error
	saveCfgErr   error
	savedConfigs []entity.TriggerConfig

	logs      []entity.TriggerLogEntry
	appendErr error
	ledgerErr error
	pairArgs  []int64

	candidates    []entity.RenewalCandidate
	candidatesErr error
	listCandArgs  []any

	referrals    []entity.Referral
	referralsErr error

	prefs    map[int64]entity.Preference
	prefsErr error

	tokens    map[int64][]string
	tokensErr error

	campaign       *entity.Campaign
	getCampaignErr error
	claimOK        bool
	claimErr       error
	finishStatus   entity.CampaignStatus
	finishCounts   entity.CampaignCounts
	finishErr      error
	finished       bool
	reverted       bool

	segment    *entity.SegmentResult
	segmentErr error
}

func (f *fakeRepo) GetTriggerConfig(_ context.Context, key entity.TriggerKey) (*entity.TriggerConfig, error) {
	if f.getCfgErr != nil {
		return nil, f.getCfgErr
	}
	cfg, ok := f.configs[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &cfg, nil
}

func (f *fakeRepo) SaveTriggerConfig(_ context.Context, cfg entity.TriggerConfig) error {
	if f.saveCfgErr != nil {
		return f.saveCfgErr
	}
	f.savedConfigs = append(f.savedConfigs, cfg)
	if f.configs == nil {
		f.configs = map[entity.TriggerKey]entity.TriggerConfig{}
	}
	f.configs[cfg.TriggerKey] = cfg
	return nil
}

func (f *fakeRepo) AppendTriggerLogs(_ context.Context, entries []entity.TriggerLogEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.logs = append(f.logs, entries...)
	return nil
}

func (f *fakeRepo) ListProcessedUserIDs(_ context.Context, key entity.TriggerKey, userIDs []int64, since time.Time) (map[int64]struct{}, error) {
	if f.ledgerErr != nil {
		return nil, f.ledgerErr
	}
	wanted := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	processed := make(map[int64]struct{})
	for _, e := range f.logs {
		if e.TriggerKey != key || e.SentAt.Before(since) {
			continue
		}
		if _, ok := wanted[e.UserID]; ok {
			processed[e.UserID] = struct{}{}
		}
	}
	return processed, nil
}

func (f *fakeRepo) ListProcessedReferralPairs(_ context.Context, key entity.TriggerKey, referrerIDs []int64) (map[string]struct{}, error) {
	if f.ledgerErr != nil {
		return nil, f.ledgerErr
	}
	f.pairArgs = referrerIDs
	wanted := make(map[int64]struct{}, len(referrerIDs))
	for _, id := range referrerIDs {
		wanted[id] = struct{}{}
	}
	processed := make(map[string]struct{})
	for _, e := range f.logs {
		if e.TriggerKey != key {
			continue
		}
		if _, ok := wanted[e.UserID]; !ok {
			continue
		}
		referee, ok := e.Context[entity.LogKeyRefereeID]
		if !ok {
			continue
		}
		processed[fmt.Sprintf("%d:%v", e.UserID, referee)] = struct{}{}
	}
	return processed, nil
}

func (f *fakeRepo) LastTriggerLog(_ context.Context, key entity.TriggerKey) (*entity.TriggerLogEntry, error) {
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].TriggerKey == key {
			entry := f.logs[i]
			return &entry, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) ListRenewalCandidates(_ context.Context, start, end time.Time, limit int) ([]entity.RenewalCandidate, error) {
	f.listCandArgs = []any{start, end, limit}
	return f.candidates, f.candidatesErr
}

func (f *fakeRepo) ListRecentReferrals(_ context.Context, _ bool, _ time.Time, _ int) ([]entity.Referral, error) {
	return f.referrals, f.referralsErr
}

func (f *fakeRepo) GetReferralsByIDs(_ context.Context, ids []int64, verifiedOnly bool) ([]entity.Referral, error) {
	if f.referralsErr != nil {
		return nil, f.referralsErr
	}
	var out []entity.Referral
	for _, r := range f.referrals {
		for _, id := range ids {
			if r.ID == id && (!verifiedOnly || r.VerifiedWhatsApp) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) GetPreferences(_ context.Context, _ []int64) (map[int64]entity.Preference, error) {
	if f.prefsErr != nil {
		return nil, f.prefsErr
	}
	if f.prefs == nil {
		return map[int64]entity.Preference{}, nil
	}
	return f.prefs, nil
}

func (f *fakeRepo) GetActiveTokens(_ context.Context, userID int64) ([]string, error) {
	if f.tokensErr != nil {
		return nil, f.tokensErr
	}
	return f.tokens[userID], nil
}

func (f *fakeRepo) GetCampaign(_ context.Context, _ int64) (*entity.Campaign, error) {
	if f.getCampaignErr != nil {
		return nil, f.getCampaignErr
	}
	if f.campaign == nil {
		return nil, goerror.ErrNotFound
	}
	c := *f.campaign
	return &c, nil
}

func (f *fakeRepo) ClaimCampaignSending(_ context.Context, _ int64) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.claimOK && f.campaign != nil {
		f.campaign.Status = entity.CampaignStatusSending
	}
	return f.claimOK, nil
}

func (f *fakeRepo) FinishCampaign(_ context.Context, _ int64, status entity.CampaignStatus, counts entity.CampaignCounts, _ time.Time) error {
	if f.finishErr != nil {
		return f.finishErr
	}
	f.finished = true
	f.finishStatus = status
	f.finishCounts = counts
	return nil
}

func (f *fakeRepo) RevertCampaignToScheduled(_ context.Context, _ int64) error {
	f.reverted = true
	return nil
}

func (f *fakeRepo) ResolveSegment(_ context.Context, _ entity.SegmentFilter, _ entity.NotificationCategory) (*entity.SegmentResult, error) {
	return f.segment, f.segmentErr
}

type fakePusher struct {
	mu         sync.Mutex
	sent       []entity.PushMessage
	failTokens map[string]error
}

func (f *fakePusher) Send(_ context.Context, msg entity.PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failTokens[msg.Token]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeLocker struct {
	held       bool
	acquireErr error
	released   []string
}

func (f *fakeLocker) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	return !f.held, nil
}

func (f *fakeLocker) Release(_ context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type okValidator struct{}

func (okValidator) Validate(any) error { return nil }

func newTestEngine(repo *fakeRepo, pusher *fakePusher, locker *fakeLocker, now time.Time) *Usecase {
	return NewEngine(Dependency{
		RepoDB:     repo,
		Pusher:     pusher,
		Locker:     locker,
		UID:        &seqID{},
		Clock:      &fixedClock{now: now},
		Validator:  okValidator{},
		Instrument: instrument.NewNoop(),
	})
}
