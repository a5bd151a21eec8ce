package savings

import (
	"context"
	"strings"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/internal/event_bus"
	"github.com/boardledger/boardledger/internal/utils"
	"github.com/boardledger/boardledger/pkg/board"
	"github.com/boardledger/boardledger/pkg/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreateGoal(ctx context.Context, boardId string, g Goal) (Goal, error)
	GetGoal(ctx context.Context, boardId string, id string) (Goal, error)
	ListGoals(ctx context.Context, boardId string) ([]Goal, error)
	UpdateGoal(ctx context.Context, boardId string, g Goal) (Goal, error)
	// Deposit adds amount to the goal. Anything beyond the target is ignored.
	Deposit(ctx context.Context, boardId string, id string, amount decimal.Decimal) (Goal, error)
	// Withdraw takes amount from the goal, never going below zero.
	Withdraw(ctx context.Context, boardId string, id string, amount decimal.Decimal) (Goal, error)
	DeleteGoal(ctx context.Context, boardId string, id string) error
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

func (s *ServiceImpl) CreateGoal(ctx context.Context, boardId string, g Goal) (Goal, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Goal{}, err
	}
	g, err = validate(g)
	if err != nil {
		return Goal{}, err
	}
	g.Id = uuid.NewString()
	g.BoardId = boardId
	g.CurrentAmount = decimal.Zero
	g.CreatedAt = s.clock.Now().UTC()

	created, err := s.repo.CreateGoal(ctx, g)
	if err != nil {
		return Goal{}, err
	}
	s.publishChanged(ctx, created, access.User.Id)
	return created, nil
}

func (s *ServiceImpl) GetGoal(ctx context.Context, boardId string, id string) (Goal, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return Goal{}, err
	}
	return s.repo.GetGoal(ctx, boardId, id)
}

func (s *ServiceImpl) ListGoals(ctx context.Context, boardId string) ([]Goal, error) {
	if _, err := board.ResolveAccess(ctx, s.boards, boardId); err != nil {
		return nil, err
	}
	return s.repo.ListGoals(ctx, boardId)
}

func (s *ServiceImpl) UpdateGoal(ctx context.Context, boardId string, g Goal) (Goal, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Goal{}, err
	}
	g, err = validate(g)
	if err != nil {
		return Goal{}, err
	}
	g.BoardId = boardId
	updated, err := s.repo.UpdateGoal(ctx, g)
	if err != nil {
		return Goal{}, err
	}
	s.publishChanged(ctx, updated, access.User.Id)
	return updated, nil
}

func (s *ServiceImpl) Deposit(ctx context.Context, boardId string, id string, amount decimal.Decimal) (Goal, error) {
	return s.adjust(ctx, boardId, id, amount, amount)
}

func (s *ServiceImpl) Withdraw(ctx context.Context, boardId string, id string, amount decimal.Decimal) (Goal, error) {
	return s.adjust(ctx, boardId, id, amount, amount.Neg())
}

func (s *ServiceImpl) adjust(ctx context.Context, boardId string, id string, amount decimal.Decimal, delta decimal.Decimal) (Goal, error) {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return Goal{}, err
	}
	if err := ledger.CheckAmount("amount", amount); err != nil {
		return Goal{}, err
	}
	g, err := s.repo.AdjustAmount(ctx, boardId, id, delta)
	if err != nil {
		return Goal{}, err
	}
	if g.Reached() {
		log.Infof("savings goal %s on board %s reached its target", g.Id, boardId)
	}
	s.publishChanged(ctx, g, access.User.Id)
	return g, nil
}

func (s *ServiceImpl) DeleteGoal(ctx context.Context, boardId string, id string) error {
	access, err := board.RequireMutate(ctx, s.boards, boardId)
	if err != nil {
		return err
	}
	deleted, err := s.repo.DeleteGoal(ctx, boardId, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrGoalNotFound
	}
	s.publishChanged(ctx, Goal{Id: id, BoardId: boardId}, access.User.Id)
	return nil
}

func (s *ServiceImpl) publishChanged(ctx context.Context, g Goal, userId string) {
	s.eventBus.PublishCommitted(ctx, event_bus.SavingsGoalChangedType, event_bus.SavingsGoalChanged{BoardId: g.BoardId, GoalId: g.Id, UserId: userId})
}

func validate(g Goal) (Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return g, apperr.InvalidInput("goal name is required")
	}
	if err := ledger.CheckAmount("goal target", g.TargetAmount); err != nil {
		return g, err
	}
	return g, nil
}
