package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	AddTransaction(ctx context.Context, boardId string, t Transaction) (Transaction, error)
	GetTransaction(ctx context.Context, boardId string, id string) (Transaction, error)
	// UpdateTransaction edits title, amount, date, category and type. The bill link cannot change.
	UpdateTransaction(ctx context.Context, boardId string, t Transaction) (Transaction, error)
	ListTransactions(ctx context.Context, boardId string, month Month) ([]Transaction, error)
	// Aggregate sums realized transactions within [from, to]; unpaid bills never count.
	Aggregate(ctx context.Context, boardId string, from time.Time, to time.Time) (Totals, error)
}

type ServiceImpl struct {
	repo     Repository
	boards   board.Reader
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, boards board.Reader, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, boards: boards, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) AddTransaction(ctx context.Context, boardId string, t Transaction) (Transaction, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Transaction{}, err
	}
	if t.LinkedBillId != "" {
		return Transaction{}, apperr.InvalidInput("linked transactions are created by paying a bill")
	}
	if t.Date.IsZero() {
		t.Date = utils.Today(s.clock)
	}
	t, err = validate(t)
	if err != nil {
		return Transaction{}, err
	}
	t.Id = uuid.NewString()
	t.BoardId = boardId
	t.CreatedBy = access.User.Id
	t.CreatedAt = s.clock.Now().UTC()

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return Transaction{}, err
	}
	s.publishChanged(ctx, created, access.User.Id, created.Date)
	return created, nil
}

func (s *ServiceImpl) GetTransaction(ctx context.Context, boardId string, id string) (Transaction, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return Transaction{}, err
	}
	return s.repo.Get(ctx, boardId, id)
}

func (s *ServiceImpl) UpdateTransaction(ctx context.Context, boardId string, t Transaction) (Transaction, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Transaction{}, err
	}
	existing, err := s.repo.Get(ctx, boardId, t.Id)
	if err != nil {
		return Transaction{}, err
	}
	if t.LinkedBillId != "" && t.LinkedBillId != existing.LinkedBillId {
		return Transaction{}, apperr.InvalidInput("the bill link of transaction %s cannot be changed", t.Id)
	}
	if t.Date.IsZero() {
		t.Date = existing.Date
	}
	if existing.IsLinked() {
		if err := checkLinkedEdit(existing, t); err != nil {
			return Transaction{}, err
		}
		t.Type = Expense
		t.Amount = existing.Amount
	}
	t, err = validate(t)
	if err != nil {
		return Transaction{}, err
	}
	t.BoardId = boardId
	t.LinkedBillId = existing.LinkedBillId
	t.CreatedBy = existing.CreatedBy
	t.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return Transaction{}, err
	}
	if !updated {
		return Transaction{}, ErrTransactionNotFound
	}
	s.publishChanged(ctx, t, access.User.Id, existing.Date, t.Date)
	return t, nil
}

func (s *ServiceImpl) ListTransactions(ctx context.Context, boardId string, month Month) ([]Transaction, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, boardId, month.Start(), month.End())
}

func (s *ServiceImpl) Aggregate(ctx context.Context, boardId string, from time.Time, to time.Time) (Totals, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return Totals{}, err
	}
	from, to = utils.Day(from), utils.Day(to)
	if to.Before(from) {
		return Totals{}, apperr.InvalidInput("range end %s is before its start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return s.repo.SumByType(ctx, boardId, from, to)
}

func (s *ServiceImpl) publishChanged(ctx context.Context, t Transaction, userId string, days ...time.Time) {
	log.Debugf("transaction %s changed on board %s", t.Id, t.BoardId)
	s.eventBus.PublishCommitted(ctx, event_bus.TransactionChangedType, event_bus.TransactionChanged{
		BoardId:       t.BoardId,
		TransactionId: t.Id,
		UserId:        userId,
		Days:          days,
	})
}

// checkLinkedEdit allows only title and category changes on a transaction created by paying a bill.
// Its amount, date and expense type follow the bill.
func checkLinkedEdit(existing Transaction, t Transaction) error {
	if t.Type != "" && t.Type != Expense {
		return apperr.InvalidInput("transaction %s pays bill %s and must stay an expense", t.Id, existing.LinkedBillId)
	}
	if !t.Amount.IsZero() && !t.Amount.Equal(existing.Amount) {
		return apperr.InvalidInput("the amount of transaction %s follows bill %s", t.Id, existing.LinkedBillId)
	}
	if !utils.Day(t.Date).Equal(existing.Date) {
		return apperr.InvalidInput("the date of transaction %s follows bill %s", t.Id, existing.LinkedBillId)
	}
	return nil
}

func validate(t Transaction) (Transaction, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return t, apperr.InvalidInput("transaction title is required")
	}
	if err := CheckAmount("transaction amount", t.Amount); err != nil {
		return t, err
	}
	if !t.Type.Valid() {
		return t, apperr.InvalidInput("transaction type must be income or expense, got %q", t.Type)
	}
	t.Date = utils.Day(t.Date)
	return t, nil
}
