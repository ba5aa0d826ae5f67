// Package reconcile audits stored conversations against the swipe records they are
// derived from and repairs drift left behind by partial failures.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	matchsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
)

const defaultBatch = 500

type ConversationScanner interface {
	ScanActiveConversations(ctx context.Context, afterID string, limit int) ([]model.Conversation, error)
}

type PairScanner interface {
	ListAcceptedPairsWithoutConversation(ctx context.Context, after [2]string, limit int) ([][2]string, error)
}

type MatchDetector interface {
	MutualAccept(ctx context.Context, a, b string) (bool, error)
	EvaluateMutualMatch(ctx context.Context, a, b string) (matchsvc.Outcome, error)
	Invalidate(ctx context.Context, a, b string) (bool, error)
}

type Report struct {
	Scanned     int
	Invalid     int
	MarkedStale int
	Created     int
}

type Job struct {
	conversations ConversationScanner
	pairs         PairScanner
	matches       MatchDetector
	batch         int
	logger        *zap.Logger
}

func New(conversations ConversationScanner, pairs PairScanner, matches MatchDetector, batch int, logger *zap.Logger) *Job {
	if batch <= 0 {
		batch = defaultBatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		conversations: conversations,
		pairs:         pairs,
		matches:       matches,
		batch:         batch,
		logger:        logger,
	}
}

// Start runs RunOnce every interval until ctx is done. Failures are logged and the
// next tick retries.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Warn("reconcile run failed", zap.Error(err))
			}
		}
	}
}

func (j *Job) RunOnce(ctx context.Context) (Report, error) {
	if j.conversations == nil || j.pairs == nil || j.matches == nil {
		return Report{}, fmt.Errorf("reconcile dependencies are not configured")
	}

	var report Report
	afterID := ""
	for {
		rows, err := j.conversations.ScanActiveConversations(ctx, afterID, j.batch)
		if err != nil {
			return report, fmt.Errorf("scan active conversations: %w", err)
		}
		for _, conv := range rows {
			report.Scanned++
			if err := j.auditConversation(ctx, conv, &report); err != nil {
				return report, err
			}
		}
		if len(rows) < j.batch {
			break
		}
		afterID = rows[len(rows)-1].ID
	}

	// Pairs page by the last one seen so records that keep failing never starve the rest.
	var afterPair [2]string
	for {
		pairs, err := j.pairs.ListAcceptedPairsWithoutConversation(ctx, afterPair, j.batch)
		if err != nil {
			return report, fmt.Errorf("list unmatched accepts: %w", err)
		}
		for _, pair := range pairs {
			out, err := j.matches.EvaluateMutualMatch(ctx, pair[0], pair[1])
			if err != nil {
				if errors.Is(err, errs.ErrInvariantViolation) {
					report.Invalid++
					continue
				}
				return report, fmt.Errorf("evaluate pair %s/%s: %w", pair[0], pair[1], err)
			}
			if out.Created {
				report.Created++
			} else if out.Conversation != nil {
				j.logger.Info("reconcile reactivated conversation", zap.String("conversation_id", out.Conversation.ID))
			}
		}
		if len(pairs) < j.batch {
			break
		}
		afterPair = pairs[len(pairs)-1]
	}

	if report.Invalid > 0 || report.MarkedStale > 0 || report.Created > 0 {
		j.logger.Info("reconcile completed",
			zap.Int("scanned", report.Scanned),
			zap.Int("invalid", report.Invalid),
			zap.Int("marked_stale", report.MarkedStale),
			zap.Int("created", report.Created),
		)
	}
	return report, nil
}

func (j *Job) auditConversation(ctx context.Context, conv model.Conversation, report *Report) error {
	if err := matchsvc.CheckCanonical(conv); err != nil {
		report.Invalid++
		j.logger.Error("conversation invariant violated",
			zap.String("conversation_id", conv.ID),
			zap.String("user_id", conv.UserAID),
			zap.String("peer_id", conv.UserBID),
			zap.Error(err),
		)
		return nil
	}

	mutual, err := j.matches.MutualAccept(ctx, conv.UserAID, conv.UserBID)
	if err != nil {
		return fmt.Errorf("check pair %s: %w", conv.ID, err)
	}
	if mutual {
		return nil
	}

	changed, err := j.matches.Invalidate(ctx, conv.UserAID, conv.UserBID)
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", conv.ID, err)
	}
	if changed {
		report.MarkedStale++
		j.logger.Warn("reconcile flagged conversation without mutual accept",
			zap.String("conversation_id", conv.ID),
			zap.String("user_id", conv.UserAID),
		)
	}
	return nil
}
