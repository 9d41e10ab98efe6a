package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahorro365app-prog/ahorro-notify/internal/notification/entity"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goerror"
	"github.com/ahorro365app-prog/ahorro-notify/internal/pkg/goroutine"
	"go.uber.org/atomic"
)

// ExecuteCampaign claims a scheduled campaign and fans its pushes out to the
// resolved segment.
//
// The claim is a conditional scheduled-to-sending transition, so concurrent
// executions of the same campaign collapse to exactly one winner. Any failure,
// including failing to persist the outcome after dispatch, reverts the
// campaign to scheduled so it is never left stuck in sending. A re-execution
// after a post-dispatch revert may resend already delivered pushes; delivery
// is at-least-once.
func (s *Usecase) ExecuteCampaign(ctx context.Context, id int64) (*entity.CampaignExecutionResult, error) {
	ctx, span := s.startSpan(ctx, "ExecuteCampaign")
	defer span.End()

	campaign, err := s.repoDB.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Campaign not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to load campaign", "campaign_id", id, "error", err)

		return nil, goerror.NewServer(err)
	}

	claimed, err := s.repoDB.ClaimCampaignSending(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to claim campaign", "campaign_id", id, "error", err)

		return nil, goerror.NewServer(err)
	}
	if !claimed {
		return nil, s.campaignClaimConflict(ctx, id, campaign.Status)
	}

	var execErr error
	defer func() {
		if execErr == nil {
			return
		}
		if revertErr := s.repoDB.RevertCampaignToScheduled(ctx, id); revertErr != nil {
			slog.ErrorContext(ctx, "failed to revert campaign to scheduled",
				"campaign_id", id, "error", revertErr)
		}
	}()

	category := campaign.CampaignType.Category()

	segment, err := s.repoDB.ResolveSegment(ctx, campaign.Filters, category)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve campaign segment", "campaign_id", id, "error", err)
		execErr = goerror.NewServer(err)

		return nil, execErr
	}

	now := s.clock.Now().UTC()

	if len(segment.Tokens) == 0 {
		counts := entity.CampaignCounts{TargetUsers: segment.UsersMatched}
		if err := s.repoDB.FinishCampaign(ctx, id, entity.CampaignStatusSent, counts, now); err != nil {
			slog.ErrorContext(ctx, "failed to finish empty campaign", "campaign_id", id, "error", err)
			execErr = goerror.NewServer(err)

			return nil, execErr
		}

		return &entity.CampaignExecutionResult{
			Message: "Campaign finished with no reachable devices",
			Summary: entity.CampaignSummary{
				TargetUsers:        segment.UsersMatched,
				QuietHoursFiltered: segment.QuietHoursFilteredUsers,
			},
		}, nil
	}

	var sent, failed atomic.Int64
	failures := make([]*entity.SendFailure, len(segment.Tokens))

	// Sized to the segment so every token gets a goroutine.
	mgr := goroutine.NewManager(len(segment.Tokens))
	for i, target := range segment.Tokens {
		mgr.Go(ctx, func(ctx context.Context) error {
			msg := entity.PushMessage{
				Token:      target.Token,
				Title:      campaign.Title,
				Body:       campaign.Body,
				ImageURL:   campaign.ImageURL,
				Data:       campaign.Data,
				Category:   category,
				UserID:     target.UserID,
				CampaignID: campaign.ID,
				AdminID:    campaign.CreatedBy,
			}
			if err := s.pusher.Send(ctx, msg); err != nil {
				failed.Inc()
				failures[i] = &entity.SendFailure{Token: target.Token, UserID: target.UserID, Error: err.Error()}

				return nil
			}
			sent.Inc()

			return nil
		})
	}
	_ = mgr.Wait()

	sentCount := int(sent.Load())
	failedCount := int(failed.Load())

	status := entity.CampaignStatusSent
	if sentCount == 0 && failedCount > 0 {
		status = entity.CampaignStatusFailed
	}

	counts := entity.CampaignCounts{
		TargetUsers: segment.UsersMatched,
		Sent:        sentCount,
		Failed:      failedCount,
		Delivered:   sentCount,
	}
	if err := s.repoDB.FinishCampaign(ctx, id, status, counts, now); err != nil {
		slog.ErrorContext(ctx, "failed to persist campaign result", "campaign_id", id, "error", err)
		execErr = goerror.NewServer(err)

		return nil, execErr
	}

	failedList := make([]entity.SendFailure, 0, failedCount)
	for _, f := range failures {
		if f != nil {
			failedList = append(failedList, *f)
		}
	}

	return &entity.CampaignExecutionResult{
		Message: fmt.Sprintf("Campaign delivered to %d of %d devices", sentCount, len(segment.Tokens)),
		Summary: entity.CampaignSummary{
			TargetUsers:        segment.UsersMatched,
			QuietHoursFiltered: segment.QuietHoursFilteredUsers,
			Tokens:             len(segment.Tokens),
			Sent:               sentCount,
			Failed:             failedCount,
		},
		Failed: failedList,
	}, nil
}

// campaignClaimConflict maps a lost claim to a conflict error describing the
// state that beat us to it.
func (s *Usecase) campaignClaimConflict(ctx context.Context, id int64, lastSeen entity.CampaignStatus) error {
	status := lastSeen
	if current, err := s.repoDB.GetCampaign(ctx, id); err == nil {
		status = current.Status
	}

	switch status {
	case entity.CampaignStatusSending:
		return goerror.NewBusiness("Campaign is already sending", goerror.CodeConflict)
	case entity.CampaignStatusSent:
		return goerror.NewBusiness("Campaign was already sent", goerror.CodeConflict)
	case entity.CampaignStatusCancelled:
		return goerror.NewBusiness("Campaign is cancelled", goerror.CodeConflict)
	case entity.CampaignStatusFailed:
		return goerror.NewBusiness("Campaign already failed", goerror.CodeConflict)
	default:
		return goerror.NewBusiness("Campaign is not in a schedulable state", goerror.CodeConflict)
	}
}
