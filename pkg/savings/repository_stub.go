package savings

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type RepositoryStub struct {
	mu    sync.Mutex
	goals map[string]Goal
	err   error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{goals: make(map[string]Goal)}
}

func (s *RepositoryStub) CreateGoal(ctx context.Context, g Goal) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Goal{}, s.err
	}
	s.goals[g.Id] = g
	return g, nil
}

func (s *RepositoryStub) GetGoal(ctx context.Context, boardId string, id string) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(boardId, id)
}

func (s *RepositoryStub) get(boardId string, id string) (Goal, error) {
	if s.err != nil {
		return Goal{}, s.err
	}
	g, ok := s.goals[id]
	if !ok || g.BoardId != boardId {
		return Goal{}, ErrGoalNotFound
	}
	return g, nil
}

func (s *RepositoryStub) ListGoals(ctx context.Context, boardId string) ([]Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var result []Goal
	for _, g := range s.goals {
		if g.BoardId == boardId {
			result = append(result, g)
		}
	}
	slices.SortFunc(result, func(a, b Goal) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
	return result, nil
}

func (s *RepositoryStub) UpdateGoal(ctx context.Context, g Goal) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.get(g.BoardId, g.Id)
	if err != nil {
		return Goal{}, err
	}
	existing.Name = g.Name
	existing.TargetAmount = g.TargetAmount
	existing.CurrentAmount = decimal.Min(existing.CurrentAmount, g.TargetAmount)
	s.goals[g.Id] = existing
	return existing, nil
}

func (s *RepositoryStub) AdjustAmount(ctx context.Context, boardId string, id string, delta decimal.Decimal) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.get(boardId, id)
	if err != nil {
		return Goal{}, err
	}
	existing.CurrentAmount = existing.clamp(delta)
	s.goals[id] = existing
	return existing, nil
}

func (s *RepositoryStub) DeleteGoal(ctx context.Context, boardId string, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(boardId, id); err != nil {
		if s.err != nil {
			return false, err
		}
		return false, nil
	}
	delete(s.goals, id)
	return true, nil
}

func (s *RepositoryStub) Put(g Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.Id] = g
}

func (s *RepositoryStub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = make(map[string]Goal)
	s.err = nil
}
