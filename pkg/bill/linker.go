package bill

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/metrics"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// linkOutcome collects what a linker operation changed, for the events published after commit.
type linkOutcome struct {
	created        []ledger.Transaction
	removed        []ledger.Transaction
	paymentChanged bool
}

func (o linkOutcome) noop() bool {
	return len(o.created) == 0 && len(o.removed) == 0 && !o.paymentChanged
}

// MarkPaid records the current user as payer and links a new expense dated today.
// On an already paid bill it only repairs a missing or duplicated linked transaction.
func (s *ServiceImpl) MarkPaid(ctx context.Context, boardId string, billId string) (result Bill, err error) {
	var outcome linkOutcome
	defer func() { recordLinker("mark_paid", err, outcome.noop()) }()

	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Bill{}, err
	}

	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		b, err := repo.GetBillForUpdate(ctx, boardId, billId)
		if err != nil {
			return err
		}
		linked, err := repo.LinkedTransactions(ctx, boardId, billId)
		if err != nil {
			return err
		}
		result = b

		if b.Paid {
			return s.reconcile(ctx, repo, b, linked, access.User.Id, &outcome)
		}
		if len(linked) > 0 {
			reportViolation(Violation{BoardId: boardId, BillId: billId, Kind: StaleTransaction, TransactionIds: transactionIds(linked)})
			if err := removeTransactions(ctx, repo, boardId, linked, &outcome); err != nil {
				return err
			}
		}
		ok, err := repo.SetPayment(ctx, boardId, billId, true, access.User.Id, access.User.DisplayName)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBillNotFound
		}
		b.Paid = true
		b.PaidByUserId = access.User.Id
		b.PaidByDisplayName = access.User.DisplayName
		outcome.paymentChanged = true

		t := s.linkedTransaction(b, access.User.Id)
		if err := repo.CreateTransaction(ctx, t); err != nil {
			return err
		}
		outcome.created = append(outcome.created, t)
		result = b
		return nil
	})
	if err != nil {
		return Bill{}, err
	}
	if outcome.noop() {
		log.Debugf("bill %s on board %s is already paid", billId, boardId)
		return result, nil
	}
	s.publishOutcome(ctx, result, access.User.Id, outcome)
	return result, nil
}

// MarkUnpaid clears the payer and deletes every transaction linked to the bill.
func (s *ServiceImpl) MarkUnpaid(ctx context.Context, boardId string, billId string) (result Bill, err error) {
	var outcome linkOutcome
	defer func() { recordLinker("mark_unpaid", err, outcome.noop()) }()

	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Bill{}, err
	}

	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		b, err := repo.GetBillForUpdate(ctx, boardId, billId)
		if err != nil {
			return err
		}
		linked, err := repo.LinkedTransactions(ctx, boardId, billId)
		if err != nil {
			return err
		}
		result = b

		if !b.Paid {
			if len(linked) == 0 {
				return nil
			}
			reportViolation(Violation{BoardId: boardId, BillId: billId, Kind: StaleTransaction, TransactionIds: transactionIds(linked)})
			return removeTransactions(ctx, repo, boardId, linked, &outcome)
		}

		switch {
		case len(linked) == 0:
			reportViolation(Violation{BoardId: boardId, BillId: billId, Kind: MissingTransaction})
		case len(linked) > 1:
			reportViolation(Violation{BoardId: boardId, BillId: billId, Kind: DuplicateTransactions, TransactionIds: transactionIds(linked)})
		}
		ok, err := repo.SetPayment(ctx, boardId, billId, false, "", "")
		if err != nil {
			return err
		}
		if !ok {
			return ErrBillNotFound
		}
		outcome.paymentChanged = true
		if err := removeTransactions(ctx, repo, boardId, linked, &outcome); err != nil {
			return err
		}
		b.Paid = false
		b.PaidByUserId = ""
		b.PaidByDisplayName = ""
		result = b
		return nil
	})
	if err != nil {
		return Bill{}, err
	}
	if outcome.noop() {
		log.Debugf("bill %s on board %s is already unpaid", billId, boardId)
		return result, nil
	}
	s.publishOutcome(ctx, result, access.User.Id, outcome)
	return result, nil
}

// DeleteBill deletes the bill together with every transaction linked to it.
func (s *ServiceImpl) DeleteBill(ctx context.Context, boardId string, billId string) (err error) {
	var outcome linkOutcome
	defer func() { recordLinker("delete_bill", err, false) }()

	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return err
	}

	var deleted Bill
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		b, err := repo.GetBillForUpdate(ctx, boardId, billId)
		if err != nil {
			return err
		}
		linked, err := repo.LinkedTransactions(ctx, boardId, billId)
		if err != nil {
			return err
		}
		if v, ok := checkBill(b, linked); ok {
			reportViolation(v)
		}
		if err := removeTransactions(ctx, repo, boardId, linked, &outcome); err != nil {
			return err
		}
		ok, err := repo.DeleteBill(ctx, boardId, billId)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBillNotFound
		}
		deleted = b
		return nil
	})
	if err != nil {
		return err
	}
	s.publishBillChanged(ctx, event_bus.BillDeletedType, deleted, access.User.Id)
	s.publishTransactions(ctx, boardId, access.User.Id, outcome)
	return nil
}

// DeleteTransaction deletes a transaction. A transaction linked to a bill takes the
// bill's paid state with it: the bill is reset to unpaid in the same commit.
func (s *ServiceImpl) DeleteTransaction(ctx context.Context, boardId string, transactionId string) (err error) {
	var outcome linkOutcome
	defer func() { recordLinker("delete_transaction", err, false) }()

	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return err
	}

	var bill Bill
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		t, err := repo.GetTransaction(ctx, boardId, transactionId)
		if err != nil {
			return err
		}
		if !t.IsLinked() {
			return removeTransactions(ctx, repo, boardId, []ledger.Transaction{t}, &outcome)
		}

		// Lock the bill before its transactions, the same order MarkPaid uses.
		b, err := repo.GetBillForUpdate(ctx, boardId, t.LinkedBillId)
		if errors.Is(err, ErrBillNotFound) {
			reportViolation(Violation{BoardId: boardId, BillId: t.LinkedBillId, Kind: OrphanedTransaction, TransactionIds: []string{t.Id}})
			return removeTransactions(ctx, repo, boardId, []ledger.Transaction{t}, &outcome)
		}
		if err != nil {
			return err
		}
		linked, err := repo.LinkedTransactions(ctx, boardId, b.Id)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(linked, func(l ledger.Transaction) bool { return l.Id == t.Id }) {
			return ledger.ErrTransactionNotFound
		}
		if v, ok := checkBill(b, linked); ok {
			reportViolation(v)
		}
		if err := removeTransactions(ctx, repo, boardId, linked, &outcome); err != nil {
			return err
		}
		if b.Paid {
			ok, err := repo.SetPayment(ctx, boardId, b.Id, false, "", "")
			if err != nil {
				return err
			}
			if !ok {
				return ErrBillNotFound
			}
			outcome.paymentChanged = true
			b.Paid = false
			b.PaidByUserId = ""
			b.PaidByDisplayName = ""
		}
		bill = b
		return nil
	})
	if err != nil {
		return err
	}
	if bill.Id == "" {
		s.publishTransactions(ctx, boardId, access.User.Id, outcome)
		return nil
	}
	s.publishOutcome(ctx, bill, access.User.Id, outcome)
	return nil
}

// reconcile makes a paid bill own exactly one linked transaction. The most recent
// duplicate is kept.
func (s *ServiceImpl) reconcile(ctx context.Context, repo Repository, b Bill, linked []ledger.Transaction, actorId string, outcome *linkOutcome) error {
	switch {
	case len(linked) == 1:
		return nil
	case len(linked) == 0:
		reportViolation(Violation{BoardId: b.BoardId, BillId: b.Id, Kind: MissingTransaction})
		payer := b.PaidByUserId
		if payer == "" {
			payer = actorId
		}
		t := s.linkedTransaction(b, payer)
		if err := repo.CreateTransaction(ctx, t); err != nil {
			return err
		}
		outcome.created = append(outcome.created, t)
		return nil
	default:
		reportViolation(Violation{BoardId: b.BoardId, BillId: b.Id, Kind: DuplicateTransactions, TransactionIds: transactionIds(linked)})
		return removeTransactions(ctx, repo, b.BoardId, linked[:len(linked)-1], outcome)
	}
}

func (s *ServiceImpl) linkedTransaction(b Bill, userId string) ledger.Transaction {
	return ledger.Transaction{
		Id:           uuid.NewString(),
		BoardId:      b.BoardId,
		Title:        b.Title,
		Amount:       b.Amount,
		Date:         utils.Today(s.clock),
		CategoryId:   b.CategoryId,
		Type:         ledger.Expense,
		LinkedBillId: b.Id,
		CreatedBy:    userId,
		CreatedAt:    s.clock.Now().UTC(),
	}
}

func removeTransactions(ctx context.Context, repo Repository, boardId string, transactions []ledger.Transaction, outcome *linkOutcome) error {
	if len(transactions) == 0 {
		return nil
	}
	deleted, err := repo.DeleteTransactions(ctx, boardId, transactionIds(transactions)...)
	if err != nil {
		return err
	}
	if int(deleted) != len(transactions) {
		return ledger.ErrTransactionNotFound
	}
	outcome.removed = append(outcome.removed, transactions...)
	return nil
}

func (s *ServiceImpl) publishOutcome(ctx context.Context, b Bill, userId string, outcome linkOutcome) {
	if outcome.paymentChanged {
		eventType := event_bus.BillUnpaidType
		if b.Paid {
			eventType = event_bus.BillPaidType
		}
		var transactionId string
		switch {
		case len(outcome.created) > 0:
			transactionId = outcome.created[0].Id
		case len(outcome.removed) > 0:
			transactionId = outcome.removed[0].Id
		}
		s.eventBus.PublishCommitted(ctx, eventType, event_bus.BillPaymentChanged{
			BoardId:       b.BoardId,
			BillId:        b.Id,
			TransactionId: transactionId,
			UserId:        userId,
			Paid:          b.Paid,
		})
	}
	s.publishTransactions(ctx, b.BoardId, userId, outcome)
}

func (s *ServiceImpl) publishTransactions(ctx context.Context, boardId string, userId string, outcome linkOutcome) {
	for _, t := range slices.Concat(outcome.removed, outcome.created) {
		s.eventBus.PublishCommitted(ctx, event_bus.TransactionChangedType, event_bus.TransactionChanged{
			BoardId:       boardId,
			TransactionId: t.Id,
			UserId:        userId,
			Days:          []time.Time{t.Date},
		})
	}
}

func reportViolation(v Violation) {
	metrics.InvariantViolations.WithLabelValues(string(v.Kind)).Inc()
	log.Warnf("invariant violation on board %s: bill %s has %s (transactions %v)", v.BoardId, v.BillId, v.Kind, v.TransactionIds)
}

func transactionIds(transactions []ledger.Transaction) []string {
	ids := make([]string, 0, len(transactions))
	for _, t := range transactions {
		ids = append(ids, t.Id)
	}
	return ids
}
