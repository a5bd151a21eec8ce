package bill

import (
	"context"
	"slices"
	"strings"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/metrics"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ShareBill copies a bill into each target board as an independent unpaid bill that
// remembers where it came from. Boards are written independently: one failing target
// does not undo the others, and every target gets its own ShareResult.
func (s *ServiceImpl) ShareBill(ctx context.Context, sourceBoardId string, billId string, targetBoardIds []string) ([]ShareResult, error) {
	access, err := board.RequireMutate(ctx, s.boards, sourceBoardId)
	if err != nil {
		return nil, err
	}
	original, err := s.repo.GetBill(ctx, sourceBoardId, billId)
	if err != nil {
		return nil, err
	}

	targets := distinctTargets(targetBoardIds)
	if len(targets) == 0 {
		return nil, apperr.InvalidInput("at least one target board is required")
	}

	results := make([]ShareResult, len(targets))
	var g errgroup.Group
	g.SetLimit(shareConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = s.shareTo(ctx, original, target, access.User.Id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			metrics.ShareTargets.WithLabelValues(metrics.Result(r.Err, isDenied)).Inc()
			continue
		}
		metrics.ShareTargets.WithLabelValues(metrics.ResultOk).Inc()
		s.eventBus.PublishCommitted(ctx, event_bus.BillChangedType, event_bus.BillChanged{BoardId: r.BoardId, BillId: r.BillId, UserId: access.User.Id})
	}
	log.Infof("bill %s shared from board %s to %d board(s), %d failed", billId, sourceBoardId, len(targets)-failed, failed)
	return results, nil
}

// distinctTargets drops blank and repeated ids, keeping the order of first appearance.
func distinctTargets(ids []string) []string {
	targets := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(targets, id) {
			continue
		}
		targets = append(targets, id)
	}
	return targets
}

func (s *ServiceImpl) shareTo(ctx context.Context, original Bill, targetBoardId string, userId string) ShareResult {
	result := ShareResult{BoardId: targetBoardId}
	if targetBoardId == original.BoardId {
		result.Err = apperr.InvalidInput("cannot share bill %s into its own board", original.Id)
		return result
	}
	if _, err := board.RequireMutate(ctx, s.boards, targetBoardId); err != nil {
		result.Err = err
		return result
	}
	copied, err := s.repo.CreateBill(ctx, original.sharedCopy(targetBoardId, uuid.NewString(), userId, s.clock.Now().UTC()))
	if err != nil {
		log.Warnf("sharing bill %s to board %s failed: %v", original.Id, targetBoardId, err)
		result.Err = err
		return result
	}
	result.BillId = copied.Id
	return result
}
