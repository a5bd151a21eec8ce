package ledger

import (
	"context"
	"slices"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu           sync.RWMutex
	transactions map[string]Transaction
	err          error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{transactions: make(map[string]Transaction)}
}

func (s *RepositoryStub) Create(ctx context.Context, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Transaction{}, s.err
	}
	s.transactions[t.Id] = t
	return t, nil
}

func (s *RepositoryStub) Get(ctx context.Context, boardId string, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return Transaction{}, s.err
	}
	t, ok := s.transactions[id]
	if !ok || t.BoardId != boardId {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (s *RepositoryStub) Update(ctx context.Context, t Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	existing, ok := s.transactions[t.Id]
	if !ok || existing.BoardId != t.BoardId {
		return false, nil
	}
	t.LinkedBillId = existing.LinkedBillId
	t.CreatedBy = existing.CreatedBy
	t.CreatedAt = existing.CreatedAt
	s.transactions[t.Id] = t
	return true, nil
}

func (s *RepositoryStub) List(ctx context.Context, boardId string, from time.Time, to time.Time) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var result []Transaction
	for _, t := range s.transactions {
		if t.BoardId == boardId && !t.Date.Before(from) && !t.Date.After(to) {
			result = append(result, t)
		}
	}
	slices.SortFunc(result, func(a, b Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (s *RepositoryStub) SumByType(ctx context.Context, boardId string, from time.Time, to time.Time) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return Totals{}, s.err
	}
	var board []Transaction
	for _, t := range s.transactions {
		if t.BoardId == boardId {
			board = append(board, t)
		}
	}
	return Sum(board, from, to), nil
}

// Put stores t directly (test setup helper).
func (s *RepositoryStub) Put(t Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.Id] = t
}

// SetError makes every subsequent call fail with err.
func (s *RepositoryStub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *RepositoryStub) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = make(map[string]Transaction)
	s.err = nil
}
