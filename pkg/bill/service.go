package bill

import (
	"context"
	"errors"
	"strings"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/config"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/metrics"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const shareConcurrency = 4

type Service interface {
	// CreateBill stores a new unpaid bill.
	CreateBill(ctx context.Context, boardId string, b Bill) (Bill, error)
	GetBill(ctx context.Context, boardId string, id string) (Bill, error)
	ListBills(ctx context.Context, boardId string, unpaidOnly bool) ([]Bill, error)
	// UpdateBill edits the descriptive fields. It never touches the paid state or an existing linked transaction.
	UpdateBill(ctx context.Context, boardId string, b Bill) (Bill, error)

	MarkPaid(ctx context.Context, boardId string, billId string) (Bill, error)
	MarkUnpaid(ctx context.Context, boardId string, billId string) (Bill, error)
	DeleteBill(ctx context.Context, boardId string, billId string) error
	DeleteTransaction(ctx context.Context, boardId string, transactionId string) error

	Verify(ctx context.Context, boardId string) ([]Violation, error)
	Heal(ctx context.Context, boardId string) ([]Violation, error)

	ShareBill(ctx context.Context, sourceBoardId string, billId string, targetBoardIds []string) ([]ShareResult, error)
	PaymentLink(ctx context.Context, boardId string, billId string) (PaymentRequest, error)
}

type ServiceImpl struct {
	repo     Repository
	boards   board.Reader
	eventBus *event_bus.EventBus
	clock    utils.Clock
	payments config.Payments
}

func NewService(repo Repository, boards board.Reader, eventBus *event_bus.EventBus, clock utils.Clock, payments config.Payments) *ServiceImpl {
	return &ServiceImpl{repo: repo, boards: boards, eventBus: eventBus, clock: clock, payments: payments}
}

func (s *ServiceImpl) CreateBill(ctx context.Context, boardId string, b Bill) (Bill, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Bill{}, err
	}
	b, err = validate(b)
	if err != nil {
		return Bill{}, err
	}
	b.Id = uuid.NewString()
	b.BoardId = boardId
	b.Paid = false
	b.PaidByUserId = ""
	b.PaidByDisplayName = ""
	b.IsSharedCopy = false
	b.OriginalBoardId = ""
	b.OriginalBillId = ""
	b.SharedByUserId = ""
	b.CreatedAt = s.clock.Now().UTC()

	created, err := s.repo.CreateBill(ctx, b)
	if err != nil {
		return Bill{}, err
	}
	s.publishBillChanged(ctx, event_bus.BillChangedType, created, access.User.Id)
	return created, nil
}

func (s *ServiceImpl) GetBill(ctx context.Context, boardId string, id string) (Bill, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return Bill{}, err
	}
	return s.repo.GetBill(ctx, boardId, id)
}

func (s *ServiceImpl) ListBills(ctx context.Context, boardId string, unpaidOnly bool) ([]Bill, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return nil, err
	}
	return s.repo.ListBills(ctx, boardId, unpaidOnly)
}

func (s *ServiceImpl) UpdateBill(ctx context.Context, boardId string, b Bill) (Bill, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Bill{}, err
	}
	b, err = validate(b)
	if err != nil {
		return Bill{}, err
	}
	b.BoardId = boardId
	updated, err := s.repo.UpdateBill(ctx, b)
	if err != nil {
		return Bill{}, err
	}
	if !updated {
		return Bill{}, ErrBillNotFound
	}
	stored, err := s.repo.GetBill(ctx, boardId, b.Id)
	if err != nil {
		return Bill{}, err
	}
	s.publishBillChanged(ctx, event_bus.BillChangedType, stored, access.User.Id)
	return stored, nil
}

func (s *ServiceImpl) publishBillChanged(ctx context.Context, eventType event_bus.EventType, b Bill, userId string) {
	s.eventBus.PublishCommitted(ctx, eventType, event_bus.BillChanged{BoardId: b.BoardId, BillId: b.Id, UserId: userId})
}

func validate(b Bill) (Bill, error) {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return b, apperr.InvalidInput("bill title is required")
	}
	if err := ledger.CheckAmount("bill amount", b.Amount); err != nil {
		return b, err
	}
	if b.DueDate.IsZero() {
		return b, apperr.InvalidInput("bill due date is required")
	}
	b.DueDate = utils.Day(b.DueDate)
	return b, nil
}

func recordLinker(operation string, err error, noop bool) {
	result := metrics.Result(err, isDenied)
	if err == nil && noop {
		result = metrics.ResultNoop
	}
	metrics.LinkerOperations.WithLabelValues(operation, result).Inc()
	if err != nil {
		log.Debugf("%s failed: %v", operation, err)
	}
}

func isDenied(err error) bool {
	return errors.Is(err, apperr.ErrPermissionDenied)
}
