package bill

import (
	"context"
	"slices"
	"strings"

	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

// checkBill compares one bill with the transactions linked to it.
func checkBill(b Bill, linked []ledger.Transaction) (Violation, bool) {
	v := Violation{BoardId: b.BoardId, BillId: b.Id, TransactionIds: transactionIds(linked)}
	switch {
	case b.Paid && len(linked) == 0:
		v.Kind = MissingTransaction
	case b.Paid && len(linked) > 1:
		v.Kind = DuplicateTransactions
	case !b.Paid && len(linked) > 0:
		v.Kind = StaleTransaction
	default:
		return Violation{}, false
	}
	return v, true
}

// findViolations reports every bill of the board that breaks the paid/linked rule,
// plus linked transactions whose bill is gone. Results are ordered by bill id.
func findViolations(boardId string, bills []Bill, linked []ledger.Transaction) []Violation {
	byBill := make(map[string][]ledger.Transaction)
	for _, t := range linked {
		byBill[t.LinkedBillId] = append(byBill[t.LinkedBillId], t)
	}

	var violations []Violation
	for _, b := range bills {
		if v, ok := checkBill(b, byBill[b.Id]); ok {
			violations = append(violations, v)
		}
		delete(byBill, b.Id)
	}
	for billId, orphans := range byBill {
		violations = append(violations, Violation{
			BoardId:        boardId,
			BillId:         billId,
			Kind:           OrphanedTransaction,
			TransactionIds: transactionIds(orphans),
		})
	}
	slices.SortFunc(violations, func(a, b Violation) int { return strings.Compare(a.BillId, b.BillId) })
	return violations
}

// Verify lists the invariant violations of a board without changing anything.
func (s *ServiceImpl) Verify(ctx context.Context, boardId string) ([]Violation, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return nil, err
	}
	violations, err := s.scan(ctx, boardId)
	if err != nil {
		return nil, err
	}
	for _, v := range violations {
		reportViolation(v)
	}
	return violations, nil
}

// Heal repairs the violations Verify finds: a missing transaction is recreated,
// stale ones are deleted and of duplicates only the most recent is kept. Orphaned
// transactions are reported but left alone. Each bill is repaired in its own commit.
func (s *ServiceImpl) Heal(ctx context.Context, boardId string) ([]Violation, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return nil, err
	}
	violations, err := s.scan(ctx, boardId)
	if err != nil {
		return nil, err
	}

	var repaired []Violation
	for _, v := range violations {
		if v.Kind == OrphanedTransaction {
			reportViolation(v)
			continue
		}
		var outcome linkOutcome
		var healed Bill
		err := s.repo.WithTransaction(ctx, func(repo Repository) error {
			b, err := repo.GetBillForUpdate(ctx, boardId, v.BillId)
			if err != nil {
				return err
			}
			linked, err := repo.LinkedTransactions(ctx, boardId, b.Id)
			if err != nil {
				return err
			}
			// Re-check under lock: a concurrent toggle may have fixed it already.
			current, ok := checkBill(b, linked)
			if !ok {
				return nil
			}
			reportViolation(current)
			healed = b
			if b.Paid {
				return s.reconcile(ctx, repo, b, linked, access.User.Id, &outcome)
			}
			return removeTransactions(ctx, repo, boardId, linked, &outcome)
		})
		recordLinker("heal", err, outcome.noop())
		if err != nil {
			log.Errorf("failed to heal bill %s on board %s: %v", v.BillId, boardId, err)
			return repaired, err
		}
		if !outcome.noop() {
			repaired = append(repaired, v)
			s.publishOutcome(ctx, healed, access.User.Id, outcome)
		}
	}
	log.Infof("healed %d of %d invariant violations on board %s", len(repaired), len(violations), boardId)
	return repaired, nil
}

func (s *ServiceImpl) scan(ctx context.Context, boardId string) ([]Violation, error) {
	bills, err := s.repo.ListBills(ctx, boardId, false)
	if err != nil {
		return nil, err
	}
	linked, err := s.repo.AllLinkedTransactions(ctx, boardId)
	if err != nil {
		return nil, err
	}
	return findViolations(boardId, bills, linked), nil
}
